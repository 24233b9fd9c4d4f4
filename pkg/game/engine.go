// Package game runs a cyber-quest session: one human against one or two
// AI opponents over a pre-generated story, resolved one turn at a time.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

var (
	ErrNotActive     = errors.New("session is not active")
	ErrUnknownOption = errors.New("option is not offered on the current stage")
	ErrInvalidSetup  = errors.New("invalid session setup")
)

const (
	MinOpponents     = 1
	MaxOpponents     = 2
	DefaultOpponents = 2
	DefaultPlayer    = "Anonymous"
)

// Reporter receives the result of every finished session.
type Reporter interface {
	RecordResult(ctx context.Context, name string, role catalog.Role, elapsed time.Duration, errors int, completed bool) error
}

// Engine creates and resumes sessions. It holds no per-session state and
// is safe to share.
type Engine struct {
	generator *story.Generator
	reporter  Reporter
	dialogue  dialogue.Provider
	logger    *slog.Logger
	now       func() time.Time
	opponents int
}

type Option func(*Engine)

// WithClock overrides the wall clock used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDialogue attaches a flavor-line provider to turn results.
func WithDialogue(p dialogue.Provider) Option {
	return func(e *Engine) { e.dialogue = p }
}

// WithOpponents sets how many AI opponents a session gets by default.
func WithOpponents(n int) Option {
	return func(e *Engine) { e.opponents = state.Clamp(n, MinOpponents, MaxOpponents) }
}

// NewEngine returns an engine. reporter may be nil.
func NewEngine(gen *story.Generator, reporter Reporter, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		generator: gen,
		reporter:  reporter,
		logger:    logger,
		now:       time.Now,
		opponents: DefaultOpponents,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpponentSetup requests one AI opponent.
type OpponentSetup struct {
	Role       catalog.Role  `json:"role"`
	Difficulty ai.Difficulty `json:"difficulty,omitempty"`
}

// Setup describes a new session.
type Setup struct {
	PlayerName  string          `json:"player_name"`
	Role        catalog.Role    `json:"role"`
	Opponents   []OpponentSetup `json:"opponents,omitempty"`
	Seed        *uint64         `json:"seed,omitempty"`
	Accessories []string        `json:"accessories,omitempty"`
}

// NewSession generates the story and actors for setup. The session is
// returned NotStarted.
func (e *Engine) NewSession(ctx context.Context, setup Setup) (*Session, error) {
	if !setup.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", story.ErrInvalidCharacter, setup.Role)
	}

	seed := rand.Uint64()
	if setup.Seed != nil {
		seed = *setup.Seed
	}
	pcg := dice.NewPCG(seed)
	src := rand.New(pcg)

	st, err := e.generator.Generate(setup.Role, src)
	if err != nil {
		return nil, err
	}

	loadout := actor.Loadout{Role: setup.Role, Accessories: setup.Accessories}
	if err := loadout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
	}
	kit, err := loadout.Build(string(setup.Role))
	if err != nil {
		return nil, err
	}

	opponents, err := e.opponentsFor(setup)
	if err != nil {
		return nil, err
	}

	name := setup.PlayerName
	if name == "" {
		name = DefaultPlayer
	}

	s := &Session{
		ID:         uuid.New(),
		PlayerName: name,
		Role:       setup.Role,
		Story:      st,
		Human:      state.NewRunState(),
		Opponents:  opponents,
		Loadout:    loadout,
		Status:     StatusNotStarted,
		Seed:       seed,
		kit:        kit,
		pcg:        pcg,
		src:        src,
		engine:     e,
	}

	e.logger.InfoContext(ctx, "session created",
		"session_id", s.ID.String(),
		"role", s.Role,
		"scenario", st.Scenario.ID,
		"stages", st.Len(),
		"opponents", len(opponents))
	return s, nil
}

func (e *Engine) opponentsFor(setup Setup) ([]*Opponent, error) {
	reqs := setup.Opponents
	if len(reqs) == 0 {
		for _, r := range catalog.Roles() {
			if r != setup.Role && len(reqs) < e.opponents {
				reqs = append(reqs, OpponentSetup{Role: r})
			}
		}
	}
	if len(reqs) < MinOpponents || len(reqs) > MaxOpponents {
		return nil, fmt.Errorf("%w: need %d to %d opponents, got %d", ErrInvalidSetup, MinOpponents, MaxOpponents, len(reqs))
	}

	out := make([]*Opponent, 0, len(reqs))
	for _, req := range reqs {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("%w: opponent %q", story.ErrInvalidCharacter, req.Role)
		}
		d := req.Difficulty
		if d == "" {
			d = ai.DefaultDifficulty(req.Role)
		} else if _, err := ai.ParseDifficulty(string(d)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
		}
		out = append(out, &Opponent{
			Name:       fmt.Sprintf("%s AI", req.Role.Title()),
			Role:       req.Role,
			Difficulty: d,
			Run:        state.NewRunState(),
		})
	}
	return out, nil
}
