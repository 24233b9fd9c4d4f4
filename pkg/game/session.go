package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/pkg/actor"
	"github.com/jwebster45206/cyber-quest/pkg/ai"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dialogue"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

// Opponent is one computer-controlled actor.
type Opponent struct {
	Name       string          `json:"name"`
	Role       catalog.Role    `json:"role"`
	Difficulty ai.Difficulty   `json:"difficulty"`
	Run        *state.RunState `json:"run"`
}

// Session owns all mutable state of one game. It is not safe for
// concurrent use; callers serialize turns.
type Session struct {
	ID         uuid.UUID
	PlayerName string
	Role       catalog.Role
	Story      *story.Story
	Human      *state.RunState
	Opponents  []*Opponent
	Effects    []Effect
	Loadout    actor.Loadout
	Status     Status
	Outcome    OutcomeKind
	Winner     string
	Turn       int
	Seed       uint64
	StartedAt  time.Time
	EndedAt    time.Time

	kit    *actor.Kit
	pcg    *rand.PCG
	src    dice.Source
	engine *Engine
}

// Start moves a new session to Active.
func (s *Session) Start() error {
	if s.Status != StatusNotStarted {
		return fmt.Errorf("session %s is %s", s.ID, s.Status)
	}
	s.Status = StatusActive
	s.StartedAt = s.engine.now()
	return nil
}

// CurrentStage is a copy of the stage awaiting the human's choice.
func (s *Session) CurrentStage() (story.Stage, bool) {
	return s.Story.Current()
}

// Modifiers are the human's loadout modifiers.
func (s *Session) Modifiers() actor.Modifiers {
	return s.kit.Modifiers()
}

// OpponentAction is what one AI did during a turn.
type OpponentAction struct {
	Name      string         `json:"name"`
	Role      catalog.Role   `json:"role"`
	Skipped   bool           `json:"skipped,omitempty"`
	Choice    string         `json:"choice,omitempty"`
	Risk      catalog.Risk   `json:"risk,omitempty"`
	Success   bool           `json:"success"`
	Roll      int            `json:"roll,omitempty"`
	Chance    int            `json:"chance,omitempty"`
	Gain      int            `json:"gain"`
	Run       state.RunState `json:"run"`
	Completed bool           `json:"completed"`
}

// TurnResult is everything one call to ProcessTurn changed.
type TurnResult struct {
	Turn         int              `json:"turn"`
	Stage        int              `json:"stage"`
	Choice       string           `json:"choice"`
	Success      bool             `json:"success"`
	Roll         int              `json:"roll"`
	Chance       int              `json:"chance"`
	Text         string           `json:"text"`
	Gain         int              `json:"gain"`
	Narrative    state.Narrative  `json:"narrative"`
	Human        state.RunState   `json:"human"`
	EffectsAdded []Effect         `json:"effects_added,omitempty"`
	Effects      []Effect         `json:"effects"`
	GlobalEvent  *GlobalEvent     `json:"global_event,omitempty"`
	Opponents    []OpponentAction `json:"opponents"`
	Terminal     bool             `json:"terminal"`
	Outcome      OutcomeKind      `json:"outcome,omitempty"`
	Winner       string           `json:"winner,omitempty"`
	Message      string           `json:"message,omitempty"`
	Line         string           `json:"line,omitempty"`
	ReportErr    error            `json:"-"`
}

// Choose resolves the option at index on the current stage.
func (s *Session) Choose(ctx context.Context, index int) (*TurnResult, error) {
	stage, ok := s.CurrentStage()
	if !ok || index < 0 || index >= len(stage.Options) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownOption, index)
	}
	return s.ProcessTurn(ctx, stage.Options[index])
}

// ProcessTurn resolves the human's option, then every AI, then the end
// conditions. The order of steps is fixed: the random draws happen in the
// same order every turn so a seeded session replays exactly.
func (s *Session) ProcessTurn(ctx context.Context, opt catalog.Option) (*TurnResult, error) {
	if s.Status != StatusActive {
		return nil, ErrNotActive
	}
	stage, ok := s.CurrentStage()
	if !ok {
		return nil, ErrNotActive
	}
	chosen, ok := stage.Option(opt.Text)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, opt.Text)
	}

	s.Turn++
	mods := s.kit.Modifiers()
	res := &TurnResult{Turn: s.Turn, Stage: stage.Index, Choice: chosen.Text}

	chance := EffectiveChance(chosen.Success, s.Effects, s.Human, 0)
	out := s.Story.Resolve(chosen, s.src, chance-chosen.Success)
	res.Success, res.Roll, res.Chance, res.Text = out.Success, out.Roll, out.Chance, out.Text
	res.Narrative = out.Narrative

	res.Gain = s.humanProgress(out.Success, mods)
	s.Human.Adjust(vitalsFor(chosen, out.Success, mods, s.src))

	s.Effects = tickEffects(s.Effects)
	if kind, ok := rollEffect(chosen, out.Success, s.src); ok {
		e := NewEffect(kind)
		s.Effects = append(s.Effects, e)
		res.EffectsAdded = append(res.EffectsAdded, e)
	}

	if ev := s.rollGlobalEvent(out.Success); ev != nil {
		res.GlobalEvent = ev
		if ev.Kind == GlobalThreatIntelShared {
			e := NewEffect(EffectThreatIntel)
			s.Effects = append(s.Effects, e)
			res.EffectsAdded = append(res.EffectsAdded, e)
		}
	}

	for _, o := range s.Opponents {
		res.Opponents = append(res.Opponents, s.opponentTurn(o, stage.Options, mods))
	}

	s.evaluate()

	res.Human = *s.Human
	res.Effects = append([]Effect(nil), s.Effects...)
	res.Terminal = s.Status == StatusEnded
	res.Outcome = s.Outcome
	res.Winner = s.Winner
	res.Message = s.Outcome.Message(s.Winner)
	res.Line = s.line(ctx, res)

	s.engine.logger.DebugContext(ctx, "turn resolved",
		"session_id", s.ID.String(),
		"turn", s.Turn,
		"success", res.Success,
		"roll", res.Roll,
		"chance", res.Chance,
		"progress", s.Human.Progress)

	if res.Terminal {
		res.ReportErr = s.report(ctx)
	}
	return res, nil
}

const (
	humanSuccessMin = 18
	humanSuccessMax = 28
	humanFailureMin = 3
	humanFailureMax = 8
)

func (s *Session) humanProgress(success bool, mods actor.Modifiers) int {
	if success {
		return s.Human.AddProgress(dice.Between(s.src, humanSuccessMin, humanSuccessMax) + mods.ProgressBonus)
	}
	s.Human.RecordError()
	return s.Human.AddProgress(dice.Between(s.src, humanFailureMin, humanFailureMax))
}

// Indexed by Risk.Tier(): low, medium, high, critical.
var (
	riskDetection     = [4]int{0, 3, 8, 12}
	riskHealthPenalty = [4]int{0, 10, 20, 25}
)

// vitalsFor is the run-state change of one resolved action.
func vitalsFor(opt catalog.Option, success bool, mods actor.Modifiers, src dice.Source) state.Vitals {
	var v state.Vitals
	if success {
		v.Resources = dice.Between(src, 5, 12) + mods.ResourceGain
		v.Detection = -dice.Between(src, 3, 8)
	} else {
		v.Resources = -dice.Between(src, 5, 10)
		v.Detection = dice.Between(src, 5, 12)
	}

	tier := opt.Risk.Tier()
	v.Detection += max(0, riskDetection[tier]+mods.DetectionGain)
	if !success {
		v.Health = -max(0, riskHealthPenalty[tier]+mods.HealthPenalty)
	}
	return v
}

func (s *Session) rollGlobalEvent(success bool) *GlobalEvent {
	p := globalChanceAfterSuccess
	if !success {
		p = globalChanceAfterFailure
	}
	if !dice.Chance(s.src, p) {
		return nil
	}
	kind := dice.Pick(s.src, globalEventKinds)
	s.applyGlobal(kind)
	return newGlobalEvent(kind)
}

func (s *Session) applyGlobal(kind GlobalEventKind) {
	kind.Apply(s.Human)
	for _, o := range s.Opponents {
		kind.Apply(o.Run)
	}
}

func (s *Session) opponentTurn(o *Opponent, options []catalog.Option, mods actor.Modifiers) OpponentAction {
	act := OpponentAction{Name: o.Name, Role: o.Role}
	if o.Run.Completed {
		act.Skipped = true
		act.Run = *o.Run
		act.Completed = true
		return act
	}

	choice, err := ai.Decide(options, o.Difficulty, o.Role, o.Run, s.src)
	if err != nil {
		s.engine.logger.Warn("Opponent skipped its turn",
			"session_id", s.ID.String(),
			"opponent", o.Name,
			"role", o.Role,
			"error", err)
		act.Skipped = true
		act.Run = *o.Run
		return act
	}

	act.Choice, act.Risk = choice.Text, choice.Risk
	act.Chance = EffectiveChance(choice.Success, nil, o.Run, mods.OpponentChance)
	act.Roll = dice.Percent(s.src)
	act.Success = act.Roll <= act.Chance

	act.Gain, _ = ai.UpdateProgress(o.Run, act.Success, o.Difficulty, s.src)
	o.Run.Adjust(vitalsFor(choice, act.Success, actor.Modifiers{}, s.src))

	act.Run = *o.Run
	act.Completed = o.Run.Completed
	return act
}

// evaluate applies the end conditions in precedence order.
func (s *Session) evaluate() {
	switch {
	case s.Human.Completed:
		s.end(OutcomeVictory, "")
	case s.aiWinner() != "":
		s.end(OutcomeAIVictory, s.aiWinner())
	case s.Human.Health <= 0:
		s.end(OutcomeHealthDepleted, "")
	case s.Human.Detection >= state.MaxStat:
		s.end(OutcomeDetected, "")
	case s.Story.Exhausted():
		s.end(OutcomeTimeOut, "")
	}
}

func (s *Session) aiWinner() string {
	for _, o := range s.Opponents {
		if o.Run.Completed {
			return o.Name
		}
	}
	return ""
}

func (s *Session) end(kind OutcomeKind, winner string) {
	s.Status = StatusEnded
	s.Outcome = kind
	s.Winner = winner
	s.EndedAt = s.engine.now()
}

// Elapsed is the wall-clock time played so far, or in total once ended.
func (s *Session) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.Status == StatusEnded {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return s.engine.now().Sub(s.StartedAt)
}

func (s *Session) report(ctx context.Context) error {
	e := s.engine
	if e.reporter == nil {
		return nil
	}
	err := e.reporter.RecordResult(ctx, s.PlayerName, s.Role, s.Elapsed(), s.Human.Errors, s.Human.Completed)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to report result",
			"session_id", s.ID.String(),
			"error", err)
		return fmt.Errorf("failed to report result: %w", err)
	}
	return nil
}

func (s *Session) line(ctx context.Context, res *TurnResult) string {
	p := s.engine.dialogue
	if p == nil {
		return ""
	}
	emotion := dialogue.Neutral
	switch {
	case res.Outcome.Won():
		emotion = dialogue.Victory
	case !res.Success || res.Terminal:
		emotion = dialogue.Stressed
	}
	situation := "turn"
	if tags := s.stageTags(res.Stage); len(tags) > 0 {
		situation = tags[0]
	}
	line, err := p.Line(ctx, s.Role, situation, emotion)
	if err != nil {
		s.engine.logger.DebugContext(ctx, "no dialogue line", "error", err)
		return ""
	}
	return line
}

func (s *Session) stageTags(i int) []string {
	st, ok := s.Story.Stage(i)
	if !ok {
		return nil
	}
	return st.Event.Tags
}
