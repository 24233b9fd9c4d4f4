// Package ai scores and picks options for computer-controlled actors.
package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

var ErrNoOptions = errors.New("no options to choose from")

// Difficulty sets how an AI trades risk for reward.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// DefaultDifficulty is the difficulty an AI playing role gets unless told
// otherwise.
func DefaultDifficulty(role catalog.Role) Difficulty {
	switch role {
	case catalog.RoleUser:
		return Easy
	case catalog.RoleAttacker:
		return Hard
	}
	return Medium
}

// Indexed by Risk.Tier(): low, medium, high, critical.
var riskModifiers = map[Difficulty][4]float64{
	Easy:   {1.3, 1.0, 0.7, 0.6},
	Medium: {1.2, 1.0, 0.8, 0.7},
	Hard:   {0.8, 1.0, 1.2, 1.25},
}

var archetypeModifiers = map[catalog.Archetype][4]float64{
	catalog.Cautious:   {1.15, 1.0, 0.85, 0.8},
	catalog.Balanced:   {1.0, 1.1, 0.95, 0.9},
	catalog.Aggressive: {0.9, 1.0, 1.15, 1.2},
}

const (
	jitterSpread = 0.05

	highDetection     = 70
	elevatedDetection = 40
	lowResources      = 20
	lowHealth         = 30

	// Medium falls back to safe options once detection reaches this.
	mediumCautionDetection = 60
	// Hard stops gambling below this health.
	hardCautionHealth = 40

	hardGambleSuccess = 70
	hardGambleChance  = 0.7
)

func riskModifier(r catalog.Risk, d Difficulty) float64 {
	mods, ok := riskModifiers[d]
	if !ok {
		mods = riskModifiers[Medium]
	}
	return mods[r.Tier()]
}

func characterModifier(r catalog.Risk, role catalog.Role) float64 {
	return archetypeModifiers[role.Archetype()][r.Tier()]
}

// stateModifier is 1 when current is nil.
func stateModifier(o catalog.Option, current *state.RunState) float64 {
	if current == nil {
		return 1
	}
	m := 1.0
	high := o.Risk.AtLeastHigh()
	low := o.Risk == catalog.RiskLow

	switch {
	case current.Detection > highDetection:
		if high {
			m *= 0.6
		} else if low {
			m *= 1.3
		}
	case current.Detection >= elevatedDetection:
		if high {
			m *= 0.8
		} else if low {
			m *= 1.1
		}
	}

	if current.Resources < lowResources {
		switch {
		case o.Time >= 3:
			m *= 0.7
		case o.Time == 2:
			m *= 0.85
		}
	}

	if current.Health < lowHealth && high {
		m *= 0.5
	}
	return m
}

// Score rates one option. One jitter value is drawn from src.
func Score(o catalog.Option, d Difficulty, role catalog.Role, current *state.RunState, src dice.Source) float64 {
	return float64(o.Success) *
		riskModifier(o.Risk, d) *
		characterModifier(o.Risk, role) *
		stateModifier(o, current) *
		dice.Jitter(src, jitterSpread)
}

type scoredOption struct {
	opt   catalog.Option
	score float64
}

// Decide picks one of options for an actor playing role at difficulty d.
// current may be nil. Decide never mutates its inputs.
func Decide(options []catalog.Option, d Difficulty, role catalog.Role, current *state.RunState, src dice.Source) (catalog.Option, error) {
	if len(options) == 0 {
		return catalog.Option{}, ErrNoOptions
	}

	ranked := make([]scoredOption, len(options))
	for i, o := range options {
		ranked[i] = scoredOption{opt: o, score: Score(o, d, role, current, src)}
	}
	slices.SortStableFunc(ranked, func(a, b scoredOption) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	switch d {
	case Easy:
		if o, ok := firstWhere(ranked, 3, func(o catalog.Option) bool { return o.Risk == catalog.RiskLow }); ok {
			return o, nil
		}

	case Hard:
		if current != nil && current.Health < hardCautionHealth {
			if o, ok := firstWhere(ranked, 2, func(o catalog.Option) bool { return !o.Risk.AtLeastHigh() }); ok {
				return o, nil
			}
			break
		}
		var gambles []catalog.Option
		for _, s := range ranked {
			if s.opt.Risk.AtLeastHigh() && s.opt.Success >= hardGambleSuccess {
				gambles = append(gambles, s.opt)
			}
		}
		if len(gambles) > 0 && dice.Chance(src, hardGambleChance) {
			return dice.Pick(src, gambles), nil
		}

	default:
		if current != nil && current.Detection >= mediumCautionDetection {
			if o, ok := firstWhere(ranked, 3, func(o catalog.Option) bool { return o.Risk.Tier() <= catalog.RiskMedium.Tier() }); ok {
				return o, nil
			}
		}
	}

	return ranked[0].opt, nil
}

func firstWhere(ranked []scoredOption, top int, pred func(catalog.Option) bool) (catalog.Option, bool) {
	for i, s := range ranked {
		if i >= top {
			break
		}
		if pred(s.opt) {
			return s.opt, true
		}
	}
	return catalog.Option{}, false
}
