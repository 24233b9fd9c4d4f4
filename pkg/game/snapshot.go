package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/pkg/actor"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

// Snapshot is the serializable form of a session, including the random
// source position so a resumed session continues the same sequence.
type Snapshot struct {
	ID         uuid.UUID      `json:"id"`
	PlayerName string         `json:"player_name"`
	Role       catalog.Role   `json:"role"`
	Story      *story.Story   `json:"story"`
	Human      state.RunState `json:"human"`
	Opponents  []Opponent     `json:"opponents"`
	Effects    []Effect       `json:"effects"`
	Loadout    actor.Loadout  `json:"loadout"`
	Status     Status         `json:"status"`
	Outcome    OutcomeKind    `json:"outcome,omitempty"`
	Winner     string         `json:"winner,omitempty"`
	Turn       int            `json:"turn"`
	Seed       uint64         `json:"seed"`
	RNG        []byte         `json:"rng,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
}

// Snapshot captures the session. The snapshot shares no memory with it.
func (s *Session) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		ID:         s.ID,
		PlayerName: s.PlayerName,
		Role:       s.Role,
		Story:      cloneStory(s.Story),
		Human:      *s.Human,
		Effects:    append([]Effect(nil), s.Effects...),
		Loadout:    s.Loadout,
		Status:     s.Status,
		Outcome:    s.Outcome,
		Winner:     s.Winner,
		Turn:       s.Turn,
		Seed:       s.Seed,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
	}
	snap.Loadout.Accessories = append([]string(nil), s.Loadout.Accessories...)
	for _, o := range s.Opponents {
		c := *o
		c.Run = o.Run.Clone()
		snap.Opponents = append(snap.Opponents, c)
	}
	if s.pcg != nil {
		rng, err := s.pcg.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to save random source: %w", err)
		}
		snap.RNG = rng
	}
	return snap, nil
}

// Resume rebuilds a session from a snapshot.
func (e *Engine) Resume(snap *Snapshot) (*Session, error) {
	if snap == nil || snap.Story == nil {
		return nil, fmt.Errorf("snapshot has no story")
	}
	kit, err := snap.Loadout.Build(string(snap.Role))
	if err != nil {
		return nil, err
	}

	pcg := dice.NewPCG(snap.Seed ^ uint64(snap.Turn))
	if len(snap.RNG) > 0 {
		pcg = &rand.PCG{}
		if err := pcg.UnmarshalBinary(snap.RNG); err != nil {
			return nil, fmt.Errorf("failed to restore random source: %w", err)
		}
	}

	human := snap.Human
	s := &Session{
		ID:         snap.ID,
		PlayerName: snap.PlayerName,
		Role:       snap.Role,
		Story:      cloneStory(snap.Story),
		Human:      &human,
		Effects:    append([]Effect(nil), snap.Effects...),
		Loadout:    snap.Loadout,
		Status:     snap.Status,
		Outcome:    snap.Outcome,
		Winner:     snap.Winner,
		Turn:       snap.Turn,
		Seed:       snap.Seed,
		StartedAt:  snap.StartedAt,
		EndedAt:    snap.EndedAt,
		kit:        kit,
		pcg:        pcg,
		src:        rand.New(pcg),
		engine:     e,
	}
	for _, o := range snap.Opponents {
		c := o
		if c.Run == nil {
			c.Run = state.NewRunState()
		} else {
			c.Run = o.Run.Clone()
		}
		s.Opponents = append(s.Opponents, &c)
	}
	return s, nil
}

func cloneStory(st *story.Story) *story.Story {
	if st == nil {
		return nil
	}
	c := *st
	c.Stages = make([]story.Stage, 0, len(st.Stages))
	for i := range st.Stages {
		stage, _ := st.Stage(i)
		c.Stages = append(c.Stages, stage)
	}
	return &c
}
