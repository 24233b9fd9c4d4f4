package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/pkg/actor"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/game"
)

// Storage persists game sessions between requests and the accessory
// loadouts players pick per role. Loads return nil, nil when nothing is
// stored under the key.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session snapshots
	SaveSession(ctx context.Context, snap *game.Snapshot) error
	LoadSession(ctx context.Context, id uuid.UUID) (*game.Snapshot, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Loadouts, keyed by player and role
	SaveLoadout(ctx context.Context, player string, l actor.Loadout) error
	LoadLoadout(ctx context.Context, player string, role catalog.Role) (*actor.Loadout, error)
}
