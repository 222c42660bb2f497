package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/pkg/delivery"
	"github.com/jwalitptl/alert-engine/pkg/logger"
)

type fakeRecorder struct {
	mu   sync.Mutex
	recs []model.Interaction
}

func (r *fakeRecorder) Record(rec model.Interaction) model.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return rec
}

func (r *fakeRecorder) byKind(kind model.InteractionKind) []model.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Interaction
	for _, rec := range r.recs {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

type failingNotifier struct{ err error }

func (n *failingNotifier) Deliver(context.Context, delivery.Payload) error { return n.err }

type testEnv struct {
	queue    *Queue
	recorder *fakeRecorder

	mu       sync.Mutex
	settings model.QuietHoursSettings
	hour     int
}

func (e *testEnv) setSettings(s model.QuietHoursSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

func (e *testEnv) setHour(h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hour = h
}

func newTestEnv(t *testing.T, notifier delivery.Notifier) *testEnv {
	t.Helper()
	env := &testEnv{
		recorder: &fakeRecorder{},
		settings: model.DefaultQuietHours(),
		hour:     12,
	}
	env.queue = NewQueue(Options{
		Settings: func() model.QuietHoursSettings {
			env.mu.Lock()
			defer env.mu.Unlock()
			return env.settings
		},
		Clock: func() time.Time {
			env.mu.Lock()
			defer env.mu.Unlock()
			return time.Date(2026, 8, 25, env.hour, 30, 0, 0, time.UTC)
		},
		Recorder:    env.recorder,
		Notifier:    notifier,
		Logger:      logger.Nop(),
		SettleDelay: 30 * time.Millisecond,
	})
	t.Cleanup(env.queue.ClearAll)
	return env
}

func alertWith(priority model.Priority) *model.Alert {
	a := model.NewAlert(model.AlertKindUtilization, priority, "test", "test message")
	a.AutoDismissMs = (10 * time.Second).Milliseconds()
	return a
}

func quietAllNight() model.QuietHoursSettings {
	return model.QuietHoursSettings{Enabled: true, StartHour: 22, EndHour: 7}
}

func TestSubmitPresentsWhenSlotEmpty(t *testing.T) {
	env := newTestEnv(t, nil)

	a := alertWith(model.PriorityMedium)
	status := env.queue.Submit(context.Background(), a)

	assert.Equal(t, StatusPresented, status)
	require.NotNil(t, env.queue.Current())
	assert.Equal(t, a.ID, env.queue.Current().ID)

	received := env.recorder.byKind(model.InteractionReceived)
	require.Len(t, received, 1)
	assert.True(t, received[0].Delivered)
	assert.Equal(t, a.ID, received[0].NotificationID)
}

func TestFIFOBacklogNoPriorityPreemption(t *testing.T) {
	env := newTestEnv(t, nil)

	low := alertWith(model.PriorityLow)
	medium := alertWith(model.PriorityMedium)
	high := alertWith(model.PriorityHigh)

	assert.Equal(t, StatusPresented, env.queue.Submit(context.Background(), low))
	assert.Equal(t, StatusQueued, env.queue.Submit(context.Background(), medium))
	assert.Equal(t, StatusQueued, env.queue.Submit(context.Background(), high))

	// The high alert does not preempt; the low one stays presented.
	assert.Equal(t, low.ID, env.queue.Current().ID)
	assert.Equal(t, 2, env.queue.BacklogLen())

	// Draining follows arrival order, not priority order.
	env.queue.Dismiss("user")
	require.Eventually(t, func() bool {
		cur := env.queue.Current()
		return cur != nil && cur.ID == medium.ID
	}, 2*time.Second, 5*time.Millisecond)
}

func TestOnlyOnePresentedUnderConcurrentSubmissions(t *testing.T) {
	env := newTestEnv(t, nil)

	const n = 10
	statuses := make([]Status, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = env.queue.Submit(context.Background(), alertWith(model.PriorityMedium))
		}(i)
	}
	wg.Wait()

	presented := 0
	for _, s := range statuses {
		if s == StatusPresented {
			presented++
		}
	}
	assert.Equal(t, 1, presented)
	assert.Equal(t, n-1, env.queue.BacklogLen())
	assert.NotNil(t, env.queue.Current())
}

func TestQuietHoursSuppression(t *testing.T) {
	env := newTestEnv(t, nil)
	env.setSettings(quietAllNight())
	env.setHour(23)

	a := alertWith(model.PriorityHigh) // no high override configured
	status := env.queue.Submit(context.Background(), a)

	assert.Equal(t, StatusSuppressed, status)
	assert.Nil(t, env.queue.Current())

	received := env.recorder.byKind(model.InteractionReceived)
	require.Len(t, received, 1)
	assert.False(t, received[0].Delivered)
}

func TestCriticalOverrideDeliversDuringQuietHours(t *testing.T) {
	env := newTestEnv(t, nil)
	s := quietAllNight()
	s.AllowCriticalOverride = true
	env.setSettings(s)
	env.setHour(23)

	status := env.queue.Submit(context.Background(), alertWith(model.PriorityCritical))
	assert.Equal(t, StatusPresented, status)
}

func TestAutoDismissTimer(t *testing.T) {
	env := newTestEnv(t, nil)

	a := alertWith(model.PriorityLow)
	a.AutoDismissMs = 20
	env.queue.Submit(context.Background(), a)

	require.Eventually(t, func() bool {
		return env.queue.Current() == nil
	}, 2*time.Second, 5*time.Millisecond)

	dismissed := env.recorder.byKind(model.InteractionDismissed)
	require.Len(t, dismissed, 1)
	assert.Equal(t, "timer", dismissed[0].DismissSource)
}

func TestUserDismissCancelsAutoDismissTimer(t *testing.T) {
	env := newTestEnv(t, nil)

	a := alertWith(model.PriorityLow)
	a.AutoDismissMs = 50
	env.queue.Submit(context.Background(), a)
	env.queue.Dismiss("user")

	time.Sleep(100 * time.Millisecond)
	dismissed := env.recorder.byKind(model.InteractionDismissed)
	require.Len(t, dismissed, 1)
	assert.Equal(t, "user", dismissed[0].DismissSource)
}

func TestDrainReevaluatesAdmission(t *testing.T) {
	env := newTestEnv(t, nil)

	first := alertWith(model.PriorityMedium)
	second := alertWith(model.PriorityMedium)
	env.queue.Submit(context.Background(), first)
	env.queue.Submit(context.Background(), second)

	// Quiet hours begin between enqueue and dequeue.
	env.setSettings(quietAllNight())
	env.setHour(23)
	env.queue.Dismiss("user")

	// One received for the presented alert, then a suppressed (not
	// delivered) one for the drained head.
	require.Eventually(t, func() bool {
		return len(env.recorder.byKind(model.InteractionReceived)) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Nil(t, env.queue.Current())
	received := env.recorder.byKind(model.InteractionReceived)
	last := received[len(received)-1]
	assert.Equal(t, second.ID, last.NotificationID)
	assert.False(t, last.Delivered)
}

func TestDrainSkipsSuppressedHeadAndPresentsAdmissible(t *testing.T) {
	env := newTestEnv(t, nil)

	first := alertWith(model.PriorityLow)
	medium := alertWith(model.PriorityMedium)
	critical := alertWith(model.PriorityCritical)
	env.queue.Submit(context.Background(), first)
	env.queue.Submit(context.Background(), medium)
	env.queue.Submit(context.Background(), critical)

	s := quietAllNight()
	s.AllowCriticalOverride = true
	env.setSettings(s)
	env.setHour(23)
	env.queue.Dismiss("user")

	require.Eventually(t, func() bool {
		cur := env.queue.Current()
		return cur != nil && cur.ID == critical.ID
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, env.queue.BacklogLen())
}

func TestClearAllCancelsSettleDrain(t *testing.T) {
	env := newTestEnv(t, nil)

	env.queue.Submit(context.Background(), alertWith(model.PriorityMedium))
	queued := alertWith(model.PriorityMedium)
	env.queue.Submit(context.Background(), queued)

	env.queue.Dismiss("user")
	env.queue.ClearAll() // within the settle window

	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, env.queue.Current())
	assert.Equal(t, 0, env.queue.BacklogLen())

	// The queued alert was never presented: exactly one received record.
	assert.Len(t, env.recorder.byKind(model.InteractionReceived), 1)
}

func TestClearAllDoesNotRecordDismissalForQueuedAlerts(t *testing.T) {
	env := newTestEnv(t, nil)

	env.queue.Submit(context.Background(), alertWith(model.PriorityMedium))
	env.queue.Submit(context.Background(), alertWith(model.PriorityMedium))
	env.queue.ClearAll()

	// One dismissal for the presented alert, none for the queued one.
	assert.Len(t, env.recorder.byKind(model.InteractionDismissed), 1)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	env := newTestEnv(t, nil)

	var mu sync.Mutex
	var seen []*model.Alert
	unsubscribe := env.queue.Subscribe(func(a *model.Alert) {
		mu.Lock()
		seen = append(seen, a)
		mu.Unlock()
	})

	a := alertWith(model.PriorityMedium)
	env.queue.Submit(context.Background(), a)
	env.queue.Dismiss("user")

	mu.Lock()
	require.Len(t, seen, 2)
	assert.Equal(t, a.ID, seen[0].ID)
	assert.Nil(t, seen[1])
	mu.Unlock()

	unsubscribe()
	env.queue.Submit(context.Background(), alertWith(model.PriorityMedium))
	mu.Lock()
	assert.Len(t, seen, 2)
	mu.Unlock()
}

func TestDeliveryFailureRecordedPerAlert(t *testing.T) {
	env := newTestEnv(t, &failingNotifier{err: errors.New("apns unreachable")})

	status := env.queue.Submit(context.Background(), alertWith(model.PriorityMedium))

	// Presentation proceeds; the failure is captured on the record.
	assert.Equal(t, StatusPresented, status)
	received := env.recorder.byKind(model.InteractionReceived)
	require.Len(t, received, 1)
	assert.False(t, received[0].Delivered)
	assert.Contains(t, received[0].DeliveryError, "apns unreachable")
}
