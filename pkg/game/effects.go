package game

import (
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// EffectKind is a transient modifier on the human's success chance.
type EffectKind string

const (
	EffectVirus           EffectKind = "virus"
	EffectFirewallBlocked EffectKind = "firewall_blocked"
	EffectSystemOverride  EffectKind = "system_override"
	EffectThreatIntel     EffectKind = "threat_intel"
)

// Modifier is the chance delta the effect contributes while alive.
func (k EffectKind) Modifier() int {
	switch k {
	case EffectVirus:
		return -20
	case EffectFirewallBlocked:
		return -15
	case EffectSystemOverride:
		return 20
	case EffectThreatIntel:
		return 10
	}
	return 0
}

// Duration is the number of turns a fresh effect lasts.
func (k EffectKind) Duration() int {
	switch k {
	case EffectVirus, EffectSystemOverride:
		return 2
	case EffectFirewallBlocked, EffectThreatIntel:
		return 1
	}
	return 0
}

func (k EffectKind) Description() string {
	switch k {
	case EffectVirus:
		return "A virus is slowing your systems down"
	case EffectFirewallBlocked:
		return "The firewall is blocking your next move"
	case EffectSystemOverride:
		return "You have an override on the target systems"
	case EffectThreatIntel:
		return "Fresh threat intelligence sharpens your next move"
	}
	return string(k)
}

// Effect is one active instance of an EffectKind.
type Effect struct {
	Kind        EffectKind `json:"kind"`
	Remaining   int        `json:"remaining"`
	Description string     `json:"description"`
}

func NewEffect(k EffectKind) Effect {
	return Effect{Kind: k, Remaining: k.Duration(), Description: k.Description()}
}

// effectChance sums the chance modifiers of effects.
func effectChance(effects []Effect) int {
	total := 0
	for _, e := range effects {
		total += e.Kind.Modifier()
	}
	return total
}

// tickEffects decrements every effect and drops the expired ones.
func tickEffects(effects []Effect) []Effect {
	kept := make([]Effect, 0, len(effects))
	for _, e := range effects {
		e.Remaining--
		if e.Remaining > 0 {
			kept = append(kept, e)
		}
	}
	return kept
}

const (
	virusChance    = 0.4
	firewallChance = 0.3
	overrideChance = 0.2
)

// rollEffect decides whether a resolved option spawns a new effect. One
// float is drawn only when the option's risk and outcome can spawn one.
func rollEffect(opt catalog.Option, success bool, src dice.Source) (EffectKind, bool) {
	high := opt.Risk.AtLeastHigh()
	switch {
	case !success && high:
		return EffectVirus, dice.Chance(src, virusChance)
	case !success && opt.Risk == catalog.RiskMedium:
		return EffectFirewallBlocked, dice.Chance(src, firewallChance)
	case success && high:
		return EffectSystemOverride, dice.Chance(src, overrideChance)
	}
	return "", false
}

// State-driven chance adjustments shared by every actor.
const (
	chanceFloor   = 10
	chanceCeiling = 95
)

func stateChance(run *state.RunState) int {
	if run == nil {
		return 0
	}
	adj := 0
	switch {
	case run.Detection > 70:
		adj -= 20
	case run.Detection >= 40:
		adj -= 10
	}
	switch {
	case run.Resources < 20:
		adj -= 15
	case run.Resources > 80:
		adj += 10
	}
	if run.Health < 30 {
		adj -= 10
	}
	return adj
}

// EffectiveChance is the success chance of an action after effects, the
// actor's own run state and any flat bonus, clamped to [10,95].
func EffectiveChance(base int, effects []Effect, run *state.RunState, bonus int) int {
	return state.Clamp(base+effectChance(effects)+stateChance(run)+bonus, chanceFloor, chanceCeiling)
}
