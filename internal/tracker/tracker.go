// Package tracker records the notification interaction lifecycle and
// enforces the retention and privacy boundaries of the log.
package tracker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/repository"
	"github.com/jwalitptl/alert-engine/pkg/metrics"
)

// DefaultMaxRecords bounds the in-memory log. Eviction is strict FIFO.
const DefaultMaxRecords = 1000

type Options struct {
	MaxRecords int
	Store      repository.Store              // optional; log persisted asynchronously
	Archive    repository.InteractionArchive // optional; append-only durable copy
	Metrics    *metrics.Metrics              // optional
	Logger     zerolog.Logger
	Clock      func() time.Time
}

// Tracker is the only writer to the interaction log.
type Tracker struct {
	mu      sync.Mutex
	records []model.Interaction

	max       int
	store     repository.Store
	archive   repository.InteractionArchive
	metrics   *metrics.Metrics
	sanitizer *Sanitizer
	logger    zerolog.Logger
	clock     func() time.Time
}

func New(opts Options) *Tracker {
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Tracker{
		max:       opts.MaxRecords,
		store:     opts.Store,
		archive:   opts.Archive,
		metrics:   opts.Metrics,
		sanitizer: NewSanitizer(),
		logger:    opts.Logger.With().Str("component", "tracker").Logger(),
		clock:     opts.Clock,
	}
}

// Load restores the persisted log, typically once at startup. Store errors
// degrade to an empty in-memory log.
func (t *Tracker) Load(ctx context.Context) {
	if t.store == nil {
		return
	}
	records, err := t.store.LoadInteractions(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to load interaction log, starting empty")
		return
	}
	t.mu.Lock()
	t.records = records
	t.trimLocked()
	t.mu.Unlock()
}

// Record appends one lifecycle event. Missing ID, timestamp and session
// snapshot are filled in; free-text fields are sanitized. For an opened
// event with a prior received record for the same notification, the
// response time is computed and stored.
func (t *Tracker) Record(rec model.Interaction) model.Interaction {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = t.clock()
	}
	if rec.Session.TimeOfDay == "" {
		rec.Session.TimeOfDay = model.BucketForHour(rec.Timestamp.Hour())
	}
	rec.Session.AppState = t.sanitizer.Redact(rec.Session.AppState)
	rec.Session.DeviceState = t.sanitizer.Redact(rec.Session.DeviceState)
	rec.TargetScreen = t.sanitizer.Redact(rec.TargetScreen)
	rec.DeliveryError = t.sanitizer.Redact(rec.DeliveryError)

	t.mu.Lock()
	if prior, ok := t.lookupLocked(rec.NotificationID, model.InteractionReceived); ok {
		// Backfill the alert kind/priority so later events stay attributable.
		if rec.AlertKind == "" {
			rec.AlertKind = prior.AlertKind
		}
		if rec.Kind == model.InteractionOpened && rec.ResponseTimeMs == nil {
			ms := rec.Timestamp.Sub(prior.Timestamp).Milliseconds()
			rec.ResponseTimeMs = &ms
		}
	}
	t.records = append(t.records, rec)
	t.trimLocked()
	snapshot := append([]model.Interaction(nil), t.records...)
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.InteractionsRecorded.WithLabelValues(string(rec.Kind)).Inc()
	}

	// Persistence happens off the hot path; failures leave the in-memory
	// log authoritative until the next successful write.
	go t.persist(snapshot, rec)

	return rec
}

func (t *Tracker) persist(snapshot []model.Interaction, rec model.Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if t.store != nil {
		if err := t.store.SaveInteractions(ctx, snapshot); err != nil {
			t.logger.Error().Err(err).Msg("failed to persist interaction log")
		}
	}
	if t.archive != nil {
		if err := t.archive.Insert(ctx, rec); err != nil {
			t.logger.Error().Err(err).Str("interaction_id", rec.ID).Msg("failed to archive interaction")
		}
	}
}

// lookupLocked finds the most recent record of the given kind for a
// notification. Caller holds t.mu.
func (t *Tracker) lookupLocked(notificationID string, kind model.InteractionKind) (model.Interaction, bool) {
	if notificationID == "" {
		return model.Interaction{}, false
	}
	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].NotificationID == notificationID && t.records[i].Kind == kind {
			return t.records[i], true
		}
	}
	return model.Interaction{}, false
}

func (t *Tracker) trimLocked() {
	if over := len(t.records) - t.max; over > 0 {
		t.records = append([]model.Interaction(nil), t.records[over:]...)
		if t.metrics != nil {
			t.metrics.InteractionsEvicted.Add(float64(over))
		}
	}
}

// Snapshot returns a copy of records with Timestamp >= since. The zero
// time returns everything.
func (t *Tracker) Snapshot(since time.Time) []model.Interaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Interaction, 0, len(t.records))
	for _, rec := range t.records {
		if since.IsZero() || !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the current log length.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// ExportJSON serializes the records in the range for diagnostics.
func (t *Tracker) ExportJSON(since time.Time) ([]byte, error) {
	return json.MarshalIndent(t.Snapshot(since), "", "  ")
}
