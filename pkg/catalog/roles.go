package catalog

import (
	"fmt"
	"strings"
)

// Role is a playable character.
type Role string

const (
	RoleUser     Role = "user"
	RoleDefender Role = "defender"
	RoleAttacker Role = "attacker"
)

// Roles returns every supported role in display order.
func Roles() []Role {
	return []Role{RoleUser, RoleDefender, RoleAttacker}
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDefender, RoleAttacker:
		return true
	}
	return false
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Title is the display name of the role.
func (r Role) Title() string {
	switch r {
	case RoleUser:
		return "Office Employee"
	case RoleDefender:
		return "Ethical Hacker"
	case RoleAttacker:
		return "Cybercriminal"
	}
	return string(r)
}

// Archetype is the risk temperament of a role.
type Archetype string

const (
	Cautious   Archetype = "cautious"
	Balanced   Archetype = "balanced"
	Aggressive Archetype = "aggressive"
)

func (r Role) Archetype() Archetype {
	switch r {
	case RoleUser:
		return Cautious
	case RoleAttacker:
		return Aggressive
	}
	return Balanced
}

// Phase is the narrative phase of a stage.
type Phase string

const (
	PhaseEarly Phase = "early"
	PhaseMid   Phase = "mid"
	PhaseLate  Phase = "late"
)

func Phases() []Phase {
	return []Phase{PhaseEarly, PhaseMid, PhaseLate}
}

// PhaseFor maps stage index i of count stages onto a phase.
func PhaseFor(i, count int) Phase {
	fraction := 0.0
	if count > 1 {
		fraction = float64(i) / float64(max(1, count-1))
	}
	switch {
	case fraction < 0.33:
		return PhaseEarly
	case fraction < 0.66:
		return PhaseMid
	default:
		return PhaseLate
	}
}

// Risk is the risk level of an option.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Tier orders risks from 0 (low) to 3 (critical). Unknown risks rank as medium.
func (r Risk) Tier() int {
	switch r {
	case RiskLow:
		return 0
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return 1
}

// AtLeastHigh reports whether r is high or critical.
func (r Risk) AtLeastHigh() bool {
	return r.Tier() >= RiskHigh.Tier()
}

func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Severity is the severity of an event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
