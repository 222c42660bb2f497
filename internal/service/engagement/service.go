// Package engagement orchestrates the notification governance core:
// evaluators classify facts into alerts, the dispatch queue decides and
// serializes presentation, the tracker records the lifecycle and the
// aggregator derives metrics.
package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/alert-engine/internal/analytics"
	"github.com/jwalitptl/alert-engine/internal/dispatch"
	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/quiethours"
	"github.com/jwalitptl/alert-engine/internal/repository"
	"github.com/jwalitptl/alert-engine/internal/tracker"
	"github.com/jwalitptl/alert-engine/internal/trigger"
	apperrors "github.com/jwalitptl/alert-engine/pkg/errors"
)

// Counter names for the diagnostic self-test harness.
const (
	counterSelfTests  = "self_tests"
	counterDeliveries = "deliveries"
	counterSuppressed = "suppressed"
)

type Options struct {
	Store     repository.Store
	Archive   repository.InteractionArchive
	Queue     *dispatch.Queue
	Tracker   *tracker.Tracker
	Analytics *analytics.Aggregator
	Evaluator *trigger.Evaluator
	Logger    zerolog.Logger
	Clock     func() time.Time
}

// Service is the inbound surface of the core. It is the only mutator of
// the quiet-hours settings.
type Service struct {
	mu       sync.Mutex
	settings model.QuietHoursSettings
	// version guards against interleaved updates across the persistence
	// suspension point: state is re-validated after every store write.
	version uint64

	store     repository.Store
	archive   repository.InteractionArchive
	queue     *dispatch.Queue
	tracker   *tracker.Tracker
	analytics *analytics.Aggregator
	evaluator *trigger.Evaluator
	logger    zerolog.Logger
	clock     func() time.Time
}

// NewService loads persisted settings (falling back to validated defaults
// on any configuration or store error) and wires the components together.
func NewService(ctx context.Context, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	s := &Service{
		settings:  model.DefaultQuietHours(),
		store:     opts.Store,
		archive:   opts.Archive,
		queue:     opts.Queue,
		tracker:   opts.Tracker,
		analytics: opts.Analytics,
		evaluator: opts.Evaluator,
		logger:    opts.Logger.With().Str("component", "engagement").Logger(),
		clock:     opts.Clock,
	}

	if s.store != nil {
		stored, found, err := s.store.LoadSettings(ctx)
		switch {
		case err != nil:
			s.logger.Error().Err(err).Msg("failed to load quiet-hours settings, using defaults")
		case found:
			s.settings = stored.Normalize()
		}
	}
	return s
}

// QuietHours returns the current settings. Used by the dispatch queue as
// its settings provider.
func (s *Service) QuietHours() model.QuietHoursSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateQuietHours applies a partial update, persists it and returns the
// effective settings. The in-memory copy is authoritative; a failed write
// is logged and re-synced by the next successful one.
func (s *Service) UpdateQuietHours(ctx context.Context, patch model.QuietHoursPatch) model.QuietHoursSettings {
	s.mu.Lock()
	updated := patch.Apply(s.settings)
	updated.UpdatedAt = s.clock()
	s.settings = updated
	s.version++
	version := s.version
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveSettings(ctx, updated); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist quiet-hours settings")
		}
		// Re-validate after the suspension point: another update may have
		// run while the write was in flight. The newer version wins and
		// its own write will re-sync the store.
		s.mu.Lock()
		if s.version != version {
			updated = s.settings
		}
		s.mu.Unlock()
	}

	s.logger.Info().
		Bool("enabled", updated.Enabled).
		Int("start_hour", updated.StartHour).
		Int("end_hour", updated.EndHour).
		Msg("quiet-hours settings updated")
	return updated
}

// NextQuietTransition exposes the next window boundary for scheduling.
func (s *Service) NextQuietTransition() (quiethours.Transition, bool) {
	return quiethours.NextTransition(s.QuietHours(), s.clock())
}

// SubmitUtilization classifies a credit-utilization reading and dispatches
// the resulting alert.
func (s *Service) SubmitUtilization(ctx context.Context, in trigger.UtilizationInput) (*model.Alert, dispatch.Status) {
	alert := s.evaluator.EvaluateUtilization(in)
	return alert, s.dispatchAlert(ctx, alert)
}

// SubmitPayment classifies a payment-due reading and dispatches the
// resulting alert.
func (s *Service) SubmitPayment(ctx context.Context, in trigger.PaymentInput) (*model.Alert, dispatch.Status) {
	alert := s.evaluator.EvaluatePayment(in)
	return alert, s.dispatchAlert(ctx, alert)
}

// SubmitGeneric dispatches a caller-classified alert. Achievement and
// education nudges are forced to low priority.
func (s *Service) SubmitGeneric(ctx context.Context, kind model.AlertKind, priority model.Priority, title, message string) (*model.Alert, dispatch.Status, error) {
	if !kind.Valid() {
		return nil, "", apperrors.BadRequest(fmt.Sprintf("unknown alert kind %q", kind), nil)
	}
	if title == "" {
		return nil, "", apperrors.BadRequest("title is required", nil)
	}

	var alert *model.Alert
	switch kind {
	case model.AlertKindAchievement, model.AlertKindEducation:
		alert = s.evaluator.EvaluateEngagement(kind, title, message)
	default:
		alert = model.NewAlert(kind, priority, title, message)
	}
	return alert, s.dispatchAlert(ctx, alert), nil
}

func (s *Service) dispatchAlert(ctx context.Context, alert *model.Alert) dispatch.Status {
	status := s.queue.Submit(ctx, alert)
	switch status {
	case dispatch.StatusPresented:
		s.bumpCounter(counterDeliveries)
	case dispatch.StatusSuppressed:
		s.bumpCounter(counterSuppressed)
	}
	return status
}

func (s *Service) bumpCounter(name string) {
	if s.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.store.IncrCounter(ctx, name, 1); err != nil {
			s.logger.Error().Err(err).Str("counter", name).Msg("failed to bump diagnostic counter")
		}
	}()
}

// Current returns the presented alert, or nil.
func (s *Service) Current() *model.Alert {
	return s.queue.Current()
}

// Dismiss clears the presented alert on behalf of the user.
func (s *Service) Dismiss() bool {
	return s.queue.Dismiss("user")
}

// ClearAll empties the presented slot and the backlog.
func (s *Service) ClearAll() {
	s.queue.ClearAll()
}

// Subscribe registers a presentation callback; the returned function
// unsubscribes.
func (s *Service) Subscribe(fn dispatch.Subscriber) func() {
	return s.queue.Subscribe(fn)
}

// RecordOpened marks an alert as opened by the user. Response time is
// derived from the matching received record, when present.
func (s *Service) RecordOpened(notificationID string) model.Interaction {
	return s.tracker.Record(model.Interaction{
		NotificationID: notificationID,
		Kind:           model.InteractionOpened,
	})
}

// RecordDismissed marks an alert dismissed outside the presentation slot,
// e.g. swiped away in the OS notification shade.
func (s *Service) RecordDismissed(notificationID, source string) model.Interaction {
	return s.tracker.Record(model.Interaction{
		NotificationID: notificationID,
		Kind:           model.InteractionDismissed,
		DismissSource:  source,
	})
}

// RecordActionClicked marks the alert's action callback as invoked.
func (s *Service) RecordActionClicked(notificationID string) model.Interaction {
	return s.tracker.Record(model.Interaction{
		NotificationID: notificationID,
		Kind:           model.InteractionActionClicked,
	})
}

// RecordDeepLinkFollow marks a deep-link navigation from an alert.
func (s *Service) RecordDeepLinkFollow(notificationID, targetScreen string) model.Interaction {
	return s.tracker.Record(model.Interaction{
		NotificationID: notificationID,
		Kind:           model.InteractionDeepLinkFollowed,
		TargetScreen:   targetScreen,
	})
}

// Metrics returns the engagement snapshot for the range.
func (s *Service) Metrics(r model.TimeRange) model.MetricsSnapshot {
	return s.analytics.Metrics(r)
}

// ExportInteractions serializes interactions in the range. The durable
// archive is preferred when available; otherwise the in-memory log serves.
func (s *Service) ExportInteractions(ctx context.Context, r model.TimeRange) ([]byte, error) {
	since := r.Cutoff(s.clock())
	if s.archive != nil {
		records, err := s.archive.ListSince(ctx, since)
		if err == nil {
			return exportJSON(records)
		}
		s.logger.Error().Err(err).Msg("archive export failed, falling back to in-memory log")
	}
	return s.tracker.ExportJSON(since)
}

func exportJSON(records []model.Interaction) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

// SelfTest submits a system-test alert through the full pipeline and bumps
// the rolling diagnostic counters.
func (s *Service) SelfTest(ctx context.Context) (dispatch.Status, map[string]int64) {
	alert := model.NewAlert(model.AlertKindSystemTest, model.PriorityLow,
		"Notification self-test", "Diagnostic notification from the alert engine.")
	status := s.dispatchAlert(ctx, alert)
	s.bumpCounter(counterSelfTests)
	s.analytics.Invalidate()

	var counters map[string]int64
	if s.store != nil {
		if c, err := s.store.Counters(ctx); err == nil {
			counters = c
		}
	}
	return status, counters
}
