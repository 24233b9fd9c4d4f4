package story

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// criticalTags earn a bonus when shared between an event and an option.
var criticalTags = []string{"phishing", "ransomware", "exfiltration", "credentials", "malware"}

// relevance scores how well an option fits an event.
func relevance(opt catalog.Option, eventTags []string) int {
	common := 0
	critical := false
	for _, t := range eventTags {
		if !slices.Contains(opt.Tags, t) {
			continue
		}
		common++
		if slices.Contains(criticalTags, t) {
			critical = true
		}
	}
	score := common * 10
	if critical {
		score += 20
	}
	return score
}

// ranked returns the options sharing at least one tag with the event,
// best first. Ties keep catalog order.
func ranked(opts []catalog.Option, eventTags []string) []catalog.Option {
	type scored struct {
		opt   catalog.Option
		score int
	}
	var list []scored
	for _, o := range opts {
		if s := relevance(o, eventTags); s > 0 {
			list = append(list, scored{o, s})
		}
	}
	slices.SortStableFunc(list, func(a, b scored) int {
		return b.score - a.score
	})

	out := make([]catalog.Option, len(list))
	for i, s := range list {
		out[i] = s.opt
	}
	return out
}

type optionSet struct {
	opts []catalog.Option
}

func (s *optionSet) full() bool {
	return len(s.opts) >= optionsPerStage
}

func (s *optionSet) has(text string) bool {
	return slices.ContainsFunc(s.opts, func(o catalog.Option) bool { return o.Text == text })
}

// add appends o, suffixing its text until it is unique.
func (s *optionSet) add(o catalog.Option) {
	base := o.Text
	for n := len(s.opts) + 1; s.has(o.Text); n++ {
		o.Text = fmt.Sprintf("%s (option %d)", base, n)
	}
	o.Tags = slices.Clone(o.Tags)
	s.opts = append(s.opts, o)
}

// addNew appends o unless an option with the same text is already present.
func (s *optionSet) addNew(o catalog.Option) {
	if !s.has(o.Text) {
		s.add(o)
	}
}

// buildOptions returns exactly three options with distinct text and the
// tier that completed the set.
func (g *Generator) buildOptions(role catalog.Role, phase catalog.Phase, event catalog.Event, location string) ([]catalog.Option, OptionTier) {
	set := &optionSet{}
	tier := TierExactMatch

	for _, o := range ranked(g.catalog.OptionsFor(role, phase), event.Tags) {
		if set.full() {
			break
		}
		set.addNew(o)
	}

	if !set.full() {
		tier = TierCrossPhase
		for _, p := range catalog.Phases() {
			if p == phase || set.full() {
				continue
			}
			for _, o := range ranked(g.catalog.OptionsFor(role, p), event.Tags) {
				if set.full() {
					break
				}
				set.addNew(o)
			}
		}
	}

	if !set.full() {
		generics := g.synthesize(role, event, location)
		if len(generics) > 0 {
			tier = TierSynthesized
			for i := 0; !set.full(); i++ {
				set.add(generics[i%len(generics)])
			}
		}
	}

	if !set.full() {
		tier = TierLastResort
		g.logger.Warn("Content gap: no options or templates for stage, using last resort",
			"role", role,
			"phase", phase,
			"location", location)
		for !set.full() {
			set.add(lastResort(location, len(set.opts)+1))
		}
	}

	return set.opts, tier
}

// synthesize renders every template family that shares a tag with the
// event. When none does, the first family that renders for role stands in.
func (g *Generator) synthesize(role catalog.Role, event catalog.Event, location string) []catalog.Option {
	var out []catalog.Option
	for _, gen := range g.catalog.Generics {
		if !gen.Matches(event.Tags) {
			continue
		}
		text, ok := gen.Render(role, location)
		if !ok {
			continue
		}
		out = append(out, genericOption(text, event.Tags))
	}
	if len(out) > 0 {
		return out
	}
	for _, gen := range g.catalog.Generics {
		if text, ok := gen.Render(role, location); ok {
			g.logger.Debug("No template family matches event, using default",
				"family", gen.Family,
				"tags", event.Tags)
			return []catalog.Option{genericOption(text, event.Tags)}
		}
	}
	return nil
}

func genericOption(text string, tags []string) catalog.Option {
	return catalog.Option{
		Text:      text,
		Tags:      slices.Clone(tags),
		Risk:      catalog.RiskMedium,
		Time:      1,
		Success:   70,
		OnSuccess: state.Delta{Clues: 1},
		OnFailure: state.Delta{AlertLevel: 1},
		Outcome: catalog.Outcome{
			Success: "Your action contained the situation.",
			Failure: "Your response was too little, too late.",
		},
	}
}

func lastResort(location string, n int) catalog.Option {
	return catalog.Option{
		Text:      fmt.Sprintf("Carefully assess the situation from %s (alternative %d)", location, n),
		Tags:      []string{"general"},
		Risk:      catalog.RiskMedium,
		Time:      1,
		Success:   60,
		OnFailure: state.Delta{AlertLevel: 1},
		Outcome: catalog.Outcome{
			Success: "You took a moment to think before acting.",
			Failure: "You lost valuable time weighing the situation.",
		},
	}
}
