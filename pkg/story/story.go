package story

import (
	"math"
	"slices"

	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

// EventTier records how a stage's event was found.
type EventTier string

const (
	EventFresh      EventTier = "fresh"       // unused, role-tagged
	EventRepeat     EventTier = "repeat"      // every role event was already used
	EventContentGap EventTier = "content_gap" // no role events at all
)

// OptionTier records how a stage's options were assembled.
type OptionTier string

const (
	TierExactMatch  OptionTier = "exact_match"
	TierCrossPhase  OptionTier = "cross_phase"
	TierSynthesized OptionTier = "synthesized"
	TierLastResort  OptionTier = "last_resort"
)

// Result is one resolved choice.
type Result struct {
	Choice  string `json:"choice"`
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// Stage is one precomputed step of a story. Snapshot is the narrative right
// after the event's effect; After is the narrative once the stage's choice
// resolved.
type Stage struct {
	Index       int              `json:"index"`
	Phase       catalog.Phase    `json:"phase"`
	Location    string           `json:"location"`
	Event       catalog.Event    `json:"event"`
	EventTier   EventTier        `json:"event_tier"`
	Description string           `json:"description"`
	Options     []catalog.Option `json:"options"`
	OptionTier  OptionTier       `json:"option_tier"`
	Snapshot    state.Narrative  `json:"snapshot"`
	After       *state.Narrative `json:"after,omitempty"`
	Results     []Result         `json:"results"`
}

// Option returns the stage option with the given text.
func (s Stage) Option(text string) (catalog.Option, bool) {
	for _, o := range s.Options {
		if o.Text == text {
			return o, true
		}
	}
	return catalog.Option{}, false
}

func (s Stage) clone() Stage {
	s.Options = slices.Clone(s.Options)
	s.Results = slices.Clone(s.Results)
	if s.After != nil {
		after := *s.After
		s.After = &after
	}
	return s
}

// Story is a fully generated narrative for one role. Stages are built up
// front; Cursor points at the stage awaiting a choice.
type Story struct {
	Scenario   catalog.Scenario `json:"scenario"`
	Role       catalog.Role     `json:"role"`
	Goal       string           `json:"goal"`
	Antagonist string           `json:"antagonist"`
	KeyItem    string           `json:"key_item"`
	Stages     []Stage          `json:"stages"`
	Narrative  state.Narrative  `json:"narrative"`
	Cursor     int              `json:"cursor"`
}

// Outcome is the result of resolving one option.
type Outcome struct {
	Success   bool            `json:"success"`
	Narrative state.Narrative `json:"narrative"`
	Text      string          `json:"text"`
	Roll      int             `json:"roll"`
	Chance    int             `json:"chance"`
	Exhausted bool            `json:"exhausted"`
	Next      *Stage          `json:"next,omitempty"`
}

func (s *Story) Len() int {
	return len(s.Stages)
}

// Stage returns a read-only copy of stage i.
func (s *Story) Stage(i int) (Stage, bool) {
	if i < 0 || i >= len(s.Stages) {
		return Stage{}, false
	}
	return s.Stages[i].clone(), true
}

// Current returns a copy of the stage awaiting a choice.
func (s *Story) Current() (Stage, bool) {
	return s.Stage(s.Cursor)
}

// Exhausted reports whether every stage has been played.
func (s *Story) Exhausted() bool {
	return s.Cursor >= len(s.Stages)
}

// Resolve rolls opt against its success chance plus any adjustments,
// applies the matching delta, records the result on the current stage and
// advances the cursor.
func (s *Story) Resolve(opt catalog.Option, src dice.Source, adjustments ...int) Outcome {
	chance := opt.Success
	for _, adj := range adjustments {
		chance += adj
	}
	chance = state.Clamp(chance, 0, 100)

	roll := dice.Percent(src)
	success := roll <= chance
	text := opt.OutcomeFor(success)

	s.Narrative = s.Narrative.Apply(opt.DeltaFor(success))

	if s.Cursor < len(s.Stages) {
		st := &s.Stages[s.Cursor]
		after := s.Narrative
		st.After = &after
		st.Results = append(st.Results, Result{Choice: opt.Text, Success: success, Text: text})
	}
	s.Cursor++

	out := Outcome{
		Success:   success,
		Narrative: s.Narrative,
		Text:      text,
		Roll:      roll,
		Chance:    chance,
		Exhausted: s.Exhausted(),
	}
	if next, ok := s.Current(); ok {
		out.Next = &next
	}
	return out
}

// Summary is the end-of-story recap.
type Summary struct {
	Role              catalog.Role `json:"role"`
	Objective         string       `json:"objective"`
	Stages            int          `json:"stages"`
	TotalChoices      int          `json:"total_choices"`
	SuccessfulChoices int          `json:"successful_choices"`
	SuccessRate       float64      `json:"success_rate"`
	FinalAlertLevel   int          `json:"final_alert_level"`
	Clues             int          `json:"clues"`
	CompromisedHosts  int          `json:"compromised_hosts"`
	Outcome           string       `json:"outcome"`
}

func (s *Story) Summary() Summary {
	sum := Summary{
		Role:             s.Role,
		Objective:        s.Goal,
		Stages:           len(s.Stages),
		FinalAlertLevel:  s.Narrative.AlertLevel,
		Clues:            s.Narrative.Clues,
		CompromisedHosts: s.Narrative.CompromisedHosts,
	}
	for _, st := range s.Stages {
		for _, r := range st.Results {
			sum.TotalChoices++
			if r.Success {
				sum.SuccessfulChoices++
			}
		}
	}
	if sum.TotalChoices > 0 {
		rate := float64(sum.SuccessfulChoices) / float64(sum.TotalChoices) * 100
		sum.SuccessRate = math.Round(rate*10) / 10
	}

	switch alert := s.Narrative.AlertLevel; {
	case alert >= 3:
		sum.Outcome = "Critical: a major security incident"
	case alert == 2:
		sum.Outcome = "High risk: contained, but with damage"
	case alert == 1:
		sum.Outcome = "Moderate: threats detected and mitigated"
	default:
		sum.Outcome = "Secure: defenses held"
	}
	return sum
}
