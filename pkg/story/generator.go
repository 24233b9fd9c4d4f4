// Package story assembles multi-stage narratives from the content catalog
// and resolves the choices made at each stage.
package story

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// ErrInvalidCharacter is returned when a story is requested for an
// unsupported role.
var ErrInvalidCharacter = errors.New("invalid character")

const (
	// Stage count bounds. Configured values are held inside them.
	MinStages = 4
	MaxStages = 7

	// connectionBias is the chance of moving along a graph edge instead of
	// jumping anywhere in the scenario.
	connectionBias = 0.9

	// maxEventAttempts bounds the weighted draws spent looking for an
	// unused event before narrowing the pool.
	maxEventAttempts = 20

	optionsPerStage = 3
)

// Config bounds the number of stages per story.
type Config struct {
	MinStages int
	MaxStages int
}

func DefaultConfig() Config {
	return Config{MinStages: 5, MaxStages: 7}
}

// Generator builds stories. It holds no per-story state and is safe to
// reuse.
type Generator struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	cfg     Config
}

func NewGenerator(cat *catalog.Catalog, logger *slog.Logger, cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.MinStages == 0 {
		cfg.MinStages = def.MinStages
	}
	if cfg.MaxStages == 0 {
		cfg.MaxStages = def.MaxStages
	}
	cfg.MinStages = state.Clamp(cfg.MinStages, MinStages, MaxStages)
	cfg.MaxStages = state.Clamp(cfg.MaxStages, cfg.MinStages, MaxStages)

	return &Generator{catalog: cat, logger: logger, cfg: cfg}
}

func (g *Generator) Catalog() *catalog.Catalog {
	return g.catalog
}

func (g *Generator) Config() Config {
	return g.cfg
}

// GenerateSeeded builds a story from a fresh source seeded with seed.
func (g *Generator) GenerateSeeded(role catalog.Role, seed uint64) (*Story, error) {
	return g.Generate(role, dice.New(seed))
}

// Generate builds a complete story for role, drawing every random choice
// from src.
func (g *Generator) Generate(role catalog.Role, src dice.Source) (*Story, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, role)
	}

	scn, err := g.pickScenario(role, src)
	if err != nil {
		return nil, err
	}

	thread := g.catalog.ThreadFor(role)
	st := &Story{
		Scenario:   *scn,
		Role:       role,
		Goal:       scn.ObjectiveFor(role),
		Antagonist: thread.Antagonist,
		KeyItem:    thread.KeyItem,
	}

	narrative := state.NewNarrative(scn.Start())
	count := dice.Between(src, g.cfg.MinStages, g.cfg.MaxStages)
	used := make(map[string]bool)
	var previous *catalog.Event

	for i := 0; i < count; i++ {
		location := scn.Start()
		if i > 0 {
			location = g.nextLocation(scn, narrative.CurrentLocation, src)
		}
		narrative.CurrentLocation = location

		phase := catalog.PhaseFor(i, count)
		event, eventTier := g.pickEvent(role, phase, narrative, used, src)
		used[event.Text] = true

		options, optionTier := g.buildOptions(role, phase, event, location)

		narrative = narrative.Apply(event.Effect)

		st.Stages = append(st.Stages, Stage{
			Index:       i,
			Phase:       phase,
			Location:    location,
			Event:       event,
			EventTier:   eventTier,
			Description: describe(i, location, event, previous, narrative, st.Goal),
			Options:     options,
			OptionTier:  optionTier,
			Snapshot:    narrative,
			Results:     []Result{},
		})
		previous = &event
	}
	st.Narrative = narrative

	g.logger.Debug("Generated story",
		"role", role,
		"scenario", scn.ID,
		"stages", count)

	return st, nil
}

func (g *Generator) pickScenario(role catalog.Role, src dice.Source) (*catalog.Scenario, error) {
	scenarios := g.catalog.ScenariosFor(role)
	switch len(scenarios) {
	case 0:
		if len(g.catalog.Scenarios) == 0 {
			return nil, errors.New("catalog has no scenarios")
		}
		g.logger.Warn("Content gap: no scenario serves role, using any scenario", "role", role)
		return &g.catalog.Scenarios[src.IntN(len(g.catalog.Scenarios))], nil
	case 1:
		return scenarios[0], nil
	default:
		return dice.Pick(src, scenarios), nil
	}
}

// nextLocation walks the scenario graph from current.
func (g *Generator) nextLocation(scn *catalog.Scenario, current string, src dice.Source) string {
	loc, ok := scn.Location(current)
	if !ok {
		g.logger.Warn("Invalid location reference, using scenario start",
			"scenario", scn.ID,
			"location", current)
		return scn.Start()
	}
	if len(loc.Connections) == 0 {
		return dice.Pick(src, scn.LocationNames())
	}
	if dice.Chance(src, connectionBias) {
		return dice.Pick(src, loc.Connections)
	}
	return dice.Pick(src, scn.LocationNames())
}
