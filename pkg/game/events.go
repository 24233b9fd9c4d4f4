package game

import (
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// GlobalEventKind is a network-wide occurrence that hits every actor.
type GlobalEventKind string

const (
	GlobalSecurityAudit      GlobalEventKind = "security_audit"
	GlobalResourceCorruption GlobalEventKind = "resource_corruption"
	GlobalMonitoringOutage   GlobalEventKind = "monitoring_outage"
	GlobalThreatIntelShared  GlobalEventKind = "threat_intel_shared"
)

var globalEventKinds = []GlobalEventKind{
	GlobalSecurityAudit,
	GlobalResourceCorruption,
	GlobalMonitoringOutage,
	GlobalThreatIntelShared,
}

const (
	globalChanceAfterFailure = 0.5
	globalChanceAfterSuccess = 0.3
)

// Vitals is the uniform change the event applies to each run state.
func (k GlobalEventKind) Vitals() state.Vitals {
	switch k {
	case GlobalSecurityAudit:
		return state.Vitals{Detection: 20}
	case GlobalResourceCorruption:
		return state.Vitals{Resources: -10}
	case GlobalMonitoringOutage:
		return state.Vitals{Detection: -15}
	}
	return state.Vitals{}
}

// Apply mutates run by the event's fixed effect. Completed runs are left
// alone.
func (k GlobalEventKind) Apply(run *state.RunState) {
	if run == nil || run.Completed {
		return
	}
	run.Adjust(k.Vitals())
}

func (k GlobalEventKind) Description() string {
	switch k {
	case GlobalSecurityAudit:
		return "A surprise security audit sweeps the network"
	case GlobalResourceCorruption:
		return "Corrupted backups eat into everyone's resources"
	case GlobalMonitoringOutage:
		return "A monitoring outage blinds the SOC for a while"
	case GlobalThreatIntelShared:
		return "An industry partner shares fresh threat intelligence"
	}
	return string(k)
}

func (k GlobalEventKind) Summary() string {
	switch k {
	case GlobalSecurityAudit:
		return "Detection +20 for everyone"
	case GlobalResourceCorruption:
		return "Resources -10 for everyone"
	case GlobalMonitoringOutage:
		return "Detection -15 for everyone"
	case GlobalThreatIntelShared:
		return "Your next action gets +10% success"
	}
	return ""
}

// GlobalEvent is a fired event as reported in a turn result.
type GlobalEvent struct {
	Kind        GlobalEventKind `json:"kind"`
	Description string          `json:"description"`
	Summary     string          `json:"summary"`
}

func newGlobalEvent(k GlobalEventKind) *GlobalEvent {
	return &GlobalEvent{Kind: k, Description: k.Description(), Summary: k.Summary()}
}
