package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/alert-engine/internal/model"
)

// Store is the key-value persistence boundary. Values are JSON-serialized.
// All errors are recoverable: callers log and continue with in-memory
// state; the next successful write re-syncs.
type Store interface {
	SaveSettings(ctx context.Context, s model.QuietHoursSettings) error
	LoadSettings(ctx context.Context) (model.QuietHoursSettings, bool, error)

	SaveInteractions(ctx context.Context, records []model.Interaction) error
	LoadInteractions(ctx context.Context) ([]model.Interaction, error)

	// Rolling diagnostic counters (self-tests, deliveries).
	IncrCounter(ctx context.Context, name string, delta int64) (int64, error)
	Counters(ctx context.Context) (map[string]int64, error)
}

// InteractionArchive is the optional durable archive backing export for
// ranges beyond the in-memory retention window.
type InteractionArchive interface {
	Insert(ctx context.Context, rec model.Interaction) error
	ListSince(ctx context.Context, since time.Time) ([]model.Interaction, error)
}
