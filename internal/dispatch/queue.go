// Package dispatch serializes alert presentation through a single display
// slot with a FIFO backlog. Admission is decided against the quiet-hours
// policy at present time, and re-decided when a queued alert is drained.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/quiethours"
	"github.com/jwalitptl/alert-engine/pkg/delivery"
	"github.com/jwalitptl/alert-engine/pkg/metrics"
)

// Status is the outcome of submitting an alert.
type Status string

const (
	StatusPresented  Status = "presented"
	StatusQueued     Status = "queued"
	StatusSuppressed Status = "suppressed"
)

// DefaultSettleDelay is the pause between a dismissal and presenting the
// next queued alert.
const DefaultSettleDelay = 250 * time.Millisecond

// Recorder receives lifecycle events. Satisfied by tracker.Tracker.
type Recorder interface {
	Record(rec model.Interaction) model.Interaction
}

// Subscriber is invoked with the currently presented alert, or nil when
// the slot clears.
type Subscriber func(*model.Alert)

type Options struct {
	Settings    func() model.QuietHoursSettings
	Recorder    Recorder
	Notifier    delivery.Notifier
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	Clock       func() time.Time
	SettleDelay time.Duration
}

// Queue is the single-slot dispatch queue. It is the only mutator of
// dispatch state; all transitions happen under q.mu.
//
// Backlog order is arrival order. A critical alert submitted while a low
// alert is presented waits its turn: there is no priority preemption.
type Queue struct {
	mu      sync.Mutex
	current *model.Alert
	backlog []*model.Alert

	dismissTimer *time.Timer
	settleTimer  *time.Timer

	subs      map[int]Subscriber
	nextSubID int

	settings    func() model.QuietHoursSettings
	recorder    Recorder
	notifier    delivery.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	clock       func() time.Time
	settleDelay time.Duration
}

func NewQueue(opts Options) *Queue {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Settings == nil {
		opts.Settings = model.DefaultQuietHours
	}
	return &Queue{
		subs:        make(map[int]Subscriber),
		settings:    opts.Settings,
		recorder:    opts.Recorder,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		logger:      opts.Logger.With().Str("component", "dispatch").Logger(),
		clock:       opts.Clock,
		settleDelay: opts.SettleDelay,
	}
}

// Submit runs an alert through admission: suppressed by quiet hours,
// presented immediately, or appended to the backlog.
func (q *Queue) Submit(ctx context.Context, alert *model.Alert) Status {
	if q.metrics != nil {
		q.metrics.AlertsSubmitted.WithLabelValues(string(alert.Kind), alert.Priority.String()).Inc()
	}
	return q.admit(ctx, alert)
}

func (q *Queue) admit(ctx context.Context, alert *model.Alert) Status {
	now := q.clock()
	if !quiethours.ShouldDeliver(q.settings(), alert.Priority, now.Hour()) {
		q.logger.Debug().
			Str("alert_id", alert.ID).
			Str("priority", alert.Priority.String()).
			Int("hour", now.Hour()).
			Msg("alert suppressed by quiet hours")
		if q.metrics != nil {
			q.metrics.AlertsSuppressed.Inc()
		}
		// Recorded as not delivered for analytics parity.
		q.record(model.Interaction{
			NotificationID: alert.ID,
			Kind:           model.InteractionReceived,
			AlertKind:      alert.Kind,
			Priority:       alert.Priority,
			Delivered:      false,
		})
		return StatusSuppressed
	}

	q.mu.Lock()
	if q.current != nil {
		q.backlog = append(q.backlog, alert)
		depth := len(q.backlog)
		q.mu.Unlock()
		if q.metrics != nil {
			q.metrics.QueueDepth.Set(float64(depth))
		}
		q.logger.Debug().Str("alert_id", alert.ID).Int("depth", depth).Msg("alert queued behind current")
		return StatusQueued
	}

	q.current = alert
	q.armDismissTimerLocked(alert)
	subs := q.subscribersLocked()
	q.mu.Unlock()

	notify(subs, alert)

	rec := model.Interaction{
		NotificationID: alert.ID,
		Kind:           model.InteractionReceived,
		AlertKind:      alert.Kind,
		Priority:       alert.Priority,
		Delivered:      true,
	}
	if q.notifier != nil {
		if err := q.notifier.Deliver(ctx, delivery.Payload{Alert: *alert, TriggerAt: now}); err != nil {
			// Delivery failure is per-alert: record it and keep going.
			q.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("delivery capability failed")
			if q.metrics != nil {
				q.metrics.DeliveryFailures.Inc()
			}
			rec.Delivered = false
			rec.DeliveryError = err.Error()
		}
	}
	q.record(rec)

	if q.metrics != nil {
		q.metrics.AlertsPresented.Inc()
	}
	q.logger.Info().
		Str("alert_id", alert.ID).
		Str("kind", string(alert.Kind)).
		Str("priority", alert.Priority.String()).
		Msg("alert presented")
	return StatusPresented
}

// armDismissTimerLocked starts the auto-dismiss countdown. The alert ID
// guard keeps a stale timer from dismissing a successor.
func (q *Queue) armDismissTimerLocked(alert *model.Alert) {
	if q.dismissTimer != nil {
		q.dismissTimer.Stop()
	}
	id := alert.ID
	q.dismissTimer = time.AfterFunc(alert.AutoDismissAfter(), func() {
		q.dismissIfCurrent(id, "timer")
	})
}

func (q *Queue) dismissIfCurrent(alertID, source string) {
	q.mu.Lock()
	stale := q.current == nil || q.current.ID != alertID
	q.mu.Unlock()
	if stale {
		return
	}
	q.Dismiss(source)
}

// Dismiss clears the presented slot, records the dismissal and schedules a
// drain of the backlog after the settle delay. Source is "user" or "timer".
func (q *Queue) Dismiss(source string) bool {
	q.mu.Lock()
	if q.current == nil {
		q.mu.Unlock()
		return false
	}
	alert := q.current
	q.current = nil
	if q.dismissTimer != nil {
		q.dismissTimer.Stop()
		q.dismissTimer = nil
	}
	if q.settleTimer != nil {
		q.settleTimer.Stop()
	}
	// Quiet hours may change between enqueue and dequeue, so the drain
	// re-runs admission instead of trusting the earlier decision.
	q.settleTimer = time.AfterFunc(q.settleDelay, q.drain)
	subs := q.subscribersLocked()
	q.mu.Unlock()

	notify(subs, nil)

	q.record(model.Interaction{
		NotificationID: alert.ID,
		Kind:           model.InteractionDismissed,
		AlertKind:      alert.Kind,
		Priority:       alert.Priority,
		DismissSource:  source,
	})
	if q.metrics != nil {
		q.metrics.AlertsDismissed.WithLabelValues(source).Inc()
	}
	q.logger.Debug().Str("alert_id", alert.ID).Str("source", source).Msg("alert dismissed")
	return true
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.current != nil || len(q.backlog) == 0 {
			q.mu.Unlock()
			return
		}
		head := q.backlog[0]
		q.backlog = q.backlog[1:]
		depth := len(q.backlog)
		q.mu.Unlock()

		if q.metrics != nil {
			q.metrics.QueueDepth.Set(float64(depth))
		}
		if q.admit(context.Background(), head) != StatusSuppressed {
			return
		}
		// Head was suppressed at dequeue time; later entries may still be
		// admissible (different priority), keep popping.
	}
}

// ClearAll empties the slot and the backlog. Queued alerts were never
// presented, so no dismissal is recorded for them; the presented one gets
// a dismissal with source "clear". Pending timers are cancelled.
func (q *Queue) ClearAll() {
	q.mu.Lock()
	if q.dismissTimer != nil {
		q.dismissTimer.Stop()
		q.dismissTimer = nil
	}
	if q.settleTimer != nil {
		q.settleTimer.Stop()
		q.settleTimer = nil
	}
	alert := q.current
	q.current = nil
	q.backlog = nil
	subs := q.subscribersLocked()
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueueDepth.Set(0)
	}
	if alert != nil {
		q.record(model.Interaction{
			NotificationID: alert.ID,
			Kind:           model.InteractionDismissed,
			AlertKind:      alert.Kind,
			Priority:       alert.Priority,
			DismissSource:  "clear",
		})
		if q.metrics != nil {
			q.metrics.AlertsDismissed.WithLabelValues("clear").Inc()
		}
	}
	notify(subs, nil)
	q.logger.Debug().Msg("dispatch state cleared")
}

// Subscribe registers a callback fired on every change of the presented
// slot. The returned function unsubscribes.
func (q *Queue) Subscribe(fn Subscriber) func() {
	q.mu.Lock()
	id := q.nextSubID
	q.nextSubID++
	q.subs[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

// Current returns the presented alert, or nil.
func (q *Queue) Current() *model.Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// BacklogLen returns the number of queued alerts.
func (q *Queue) BacklogLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

func (q *Queue) subscribersLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (q *Queue) record(rec model.Interaction) {
	if q.recorder != nil {
		q.recorder.Record(rec)
	}
}

func notify(subs []Subscriber, alert *model.Alert) {
	for _, fn := range subs {
		fn(alert)
	}
}
