// Package actor turns a player's accessory loadout into the modifiers the
// turn engine applies.
package actor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/state"
	"github.com/jwebster45206/d20"
)

var ErrUnknownAccessory = errors.New("unknown accessory")

// Modifier keys carried on the compiled actor.
const (
	ModHealthPenalty  = "health_penalty"
	ModResourceGain   = "resource_gain"
	ModProgressBonus  = "progress_bonus"
	ModDetectionGain  = "detection_gain"
	ModOpponentChance = "opponent_chance"
)

// Accessory is a static piece of gear that shifts one modifier.
type Accessory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Modifier    string `json:"modifier"`
	Value       int    `json:"value"`
}

var accessories = map[catalog.Role][]Accessory{
	catalog.RoleUser: {
		{ID: "shield", Name: "Privacy Shield", Description: "Softens the blow of failed actions", Modifier: ModHealthPenalty, Value: -5},
		{ID: "analyzer", Name: "Traffic Analyzer", Description: "Squeezes extra resources out of every win", Modifier: ModResourceGain, Value: 3},
	},
	catalog.RoleDefender: {
		{ID: "toolkit", Name: "Forensics Toolkit", Description: "Successful actions move the investigation further", Modifier: ModProgressBonus, Value: 3},
		{ID: "cloak", Name: "Honeypot Cloak", Description: "Hides defensive moves from the attacker", Modifier: ModDetectionGain, Value: -3},
	},
	catalog.RoleAttacker: {
		{ID: "mask", Name: "Proxy Mask", Description: "Routes traffic through throwaway hosts", Modifier: ModDetectionGain, Value: -4},
		{ID: "virus", Name: "Polymorphic Virus", Description: "Slows down everyone else on the network", Modifier: ModOpponentChance, Value: -5},
	},
}

// Accessories lists the gear available to role.
func Accessories(role catalog.Role) []Accessory {
	return slices.Clone(accessories[role])
}

func lookup(role catalog.Role, id string) (Accessory, bool) {
	for _, a := range accessories[role] {
		if a.ID == id {
			return a, true
		}
	}
	return Accessory{}, false
}

// Loadout is the accessory selection a player stores per role.
type Loadout struct {
	Role        catalog.Role `json:"role"`
	Accessories []string     `json:"accessories"`
}

// Validate checks the role and that every accessory belongs to it exactly once.
func (l Loadout) Validate() error {
	if !l.Role.Valid() {
		return fmt.Errorf("invalid role %q", l.Role)
	}
	seen := make(map[string]bool, len(l.Accessories))
	for _, id := range l.Accessories {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, ok := lookup(l.Role, id); !ok {
			return fmt.Errorf("%w %q for %s", ErrUnknownAccessory, id, l.Role)
		}
		if seen[id] {
			return fmt.Errorf("accessory %q listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

// Kit is a compiled loadout.
type Kit struct {
	Loadout Loadout
	Actor   *d20.Actor
}

// Build validates the loadout and compiles it into a d20 actor whose combat
// modifiers hold the accessory values.
func (l Loadout) Build(id string) (*Kit, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	mods := make(map[string]int)
	for _, name := range l.Accessories {
		a, _ := lookup(l.Role, strings.ToLower(strings.TrimSpace(name)))
		mods[a.Modifier] += a.Value
	}

	a, err := d20.NewActor(id).
		WithHP(state.InitialHealth).
		WithAC(10).
		WithAttributes(map[string]int{"resources": state.InitialResources}).
		WithCombatModifiers(mods).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build loadout actor: %w", err)
	}
	return &Kit{Loadout: l, Actor: a}, nil
}

// Modifiers is the flattened effect of a kit.
type Modifiers struct {
	HealthPenalty  int `json:"health_penalty,omitempty"`
	ResourceGain   int `json:"resource_gain,omitempty"`
	ProgressBonus  int `json:"progress_bonus,omitempty"`
	DetectionGain  int `json:"detection_gain,omitempty"`
	OpponentChance int `json:"opponent_chance,omitempty"`
}

// Modifiers reads the accessory values back off the actor. A nil kit has
// no modifiers.
func (k *Kit) Modifiers() Modifiers {
	var m Modifiers
	if k == nil || k.Actor == nil {
		return m
	}
	for _, mod := range k.Actor.GetCombatModifiers() {
		switch mod.Reason {
		case ModHealthPenalty:
			m.HealthPenalty += mod.Value
		case ModResourceGain:
			m.ResourceGain += mod.Value
		case ModProgressBonus:
			m.ProgressBonus += mod.Value
		case ModDetectionGain:
			m.DetectionGain += mod.Value
		case ModOpponentChance:
			m.OpponentChance += mod.Value
		}
	}
	return m
}
