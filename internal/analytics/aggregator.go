// Package analytics derives engagement metrics from the interaction log.
// All ratios use distinct-notification counting so repeated events for the
// same alert are not double counted.
package analytics

import (
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/alert-engine/internal/model"
)

const (
	snapshotTTL     = time.Minute
	cleanupInterval = 5 * time.Minute
	trendDays       = 7
	bestSlotCount   = 3
)

// Source provides the interactions to aggregate. Satisfied by
// tracker.Tracker.
type Source interface {
	Snapshot(since time.Time) []model.Interaction
}

// Aggregator computes metrics snapshots on demand, with a short-lived
// cache since snapshots are derived-only and never authoritative.
type Aggregator struct {
	source Source
	cache  *gocache.Cache
	clock  func() time.Time
}

func NewAggregator(source Source, clock func() time.Time) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{
		source: source,
		cache:  gocache.New(snapshotTTL, cleanupInterval),
		clock:  clock,
	}
}

// Metrics returns the snapshot for the range, cached for up to a minute.
func (a *Aggregator) Metrics(r model.TimeRange) model.MetricsSnapshot {
	key := string(r)
	if cached, found := a.cache.Get(key); found {
		return cached.(model.MetricsSnapshot)
	}
	now := a.clock()
	snapshot := Compute(a.source.Snapshot(r.Cutoff(now)), r, now)
	a.cache.Set(key, snapshot, gocache.DefaultExpiration)
	return snapshot
}

// Invalidate drops cached snapshots, e.g. after a diagnostic self-test.
func (a *Aggregator) Invalidate() {
	a.cache.Flush()
}

// Compute aggregates the given interactions. It is pure: callers supply
// the records (already range-filtered) and the reference time.
func Compute(records []model.Interaction, r model.TimeRange, now time.Time) model.MetricsSnapshot {
	snapshot := model.MetricsSnapshot{
		Range:       r,
		GeneratedAt: now,
		PerKind:     make(map[model.AlertKind]model.KindStats),
	}

	delivered := make(map[string]bool)
	opened := make(map[string]bool)
	actioned := make(map[string]bool)
	kindOf := make(map[string]model.AlertKind)

	var responseSum float64
	var responseCount int

	var hourReceived, hourOpened [24]int

	for _, rec := range records {
		id := rec.NotificationID
		switch rec.Kind {
		case model.InteractionReceived:
			if rec.AlertKind != "" {
				kindOf[id] = rec.AlertKind
			}
			hourReceived[rec.Timestamp.Hour()]++
			if rec.Delivered {
				delivered[id] = true
			}
		case model.InteractionOpened:
			opened[id] = true
			hourOpened[rec.Timestamp.Hour()]++
			if rec.ResponseTimeMs != nil {
				responseSum += float64(*rec.ResponseTimeMs)
				responseCount++
			}
		case model.InteractionActionClicked:
			actioned[id] = true
		}
	}

	snapshot.TotalDelivered = len(delivered)
	snapshot.OpenRate = ratio(len(opened), len(delivered))
	snapshot.ActionRate = ratio(len(actioned), len(opened))
	if responseCount > 0 {
		snapshot.AverageResponseTimeMs = responseSum / float64(responseCount)
	}
	snapshot.BestTimeSlots = bestSlots(hourReceived, hourOpened)
	snapshot.PerKind = perKind(delivered, opened, actioned, kindOf)
	snapshot.Trend = trend(records, now)
	return snapshot
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// bestSlots ranks hour buckets by opened/received ratio, descending, ties
// broken by the earlier hour.
func bestSlots(received, opened [24]int) []model.TimeSlot {
	var slots []model.TimeSlot
	for hour := 0; hour < 24; hour++ {
		if received[hour] == 0 {
			continue
		}
		slots = append(slots, model.TimeSlot{
			Hour:      hour,
			Received:  received[hour],
			Opened:    opened[hour],
			OpenRatio: float64(opened[hour]) / float64(received[hour]),
		})
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].OpenRatio != slots[j].OpenRatio {
			return slots[i].OpenRatio > slots[j].OpenRatio
		}
		return slots[i].Hour < slots[j].Hour
	})
	if len(slots) > bestSlotCount {
		slots = slots[:bestSlotCount]
	}
	return slots
}

func perKind(delivered, opened, actioned map[string]bool, kindOf map[string]model.AlertKind) map[model.AlertKind]model.KindStats {
	out := make(map[model.AlertKind]model.KindStats)
	counts := func(ids map[string]bool, kind model.AlertKind) int {
		n := 0
		for id := range ids {
			if kindOf[id] == kind {
				n++
			}
		}
		return n
	}

	kinds := make(map[model.AlertKind]bool)
	for _, k := range kindOf {
		kinds[k] = true
	}
	for kind := range kinds {
		d := counts(delivered, kind)
		o := counts(opened, kind)
		act := counts(actioned, kind)
		out[kind] = model.KindStats{
			Delivered:  d,
			Opened:     o,
			Actioned:   act,
			OpenRate:   ratio(o, d),
			ActionRate: ratio(act, o),
		}
	}
	return out
}

// trend computes per-day rates for the last 7 calendar days, each day from
// that day's interactions only.
func trend(records []model.Interaction, now time.Time) []model.TrendPoint {
	type daily struct {
		delivered map[string]bool
		opened    map[string]bool
		actioned  map[string]bool
	}

	days := make(map[string]*daily, trendDays)
	order := make([]string, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		days[date] = &daily{
			delivered: make(map[string]bool),
			opened:    make(map[string]bool),
			actioned:  make(map[string]bool),
		}
		order = append(order, date)
	}

	for _, rec := range records {
		day, ok := days[rec.Timestamp.Format("2006-01-02")]
		if !ok {
			continue
		}
		switch rec.Kind {
		case model.InteractionReceived:
			if rec.Delivered {
				day.delivered[rec.NotificationID] = true
			}
		case model.InteractionOpened:
			day.opened[rec.NotificationID] = true
		case model.InteractionActionClicked:
			day.actioned[rec.NotificationID] = true
		}
	}

	points := make([]model.TrendPoint, 0, trendDays)
	for _, date := range order {
		day := days[date]
		points = append(points, model.TrendPoint{
			Date:       date,
			Delivered:  len(day.delivered),
			OpenRate:   ratio(len(day.opened), len(day.delivered)),
			ActionRate: ratio(len(day.actioned), len(day.opened)),
		})
	}
	return points
}
