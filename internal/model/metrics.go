package model

import (
	"fmt"
	"time"
)

// TimeRange selects how far back metrics aggregation looks.
type TimeRange string

const (
	RangeWeek    TimeRange = "week"
	RangeMonth   TimeRange = "month"
	RangeQuarter TimeRange = "quarter"
	RangeAll     TimeRange = "all"
)

func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case RangeWeek, RangeMonth, RangeQuarter, RangeAll:
		return TimeRange(s), nil
	case "":
		return RangeWeek, nil
	}
	return "", fmt.Errorf("unknown time range: %q", s)
}

// Cutoff returns the inclusive lower timestamp bound for the range.
// The zero time means no bound (all-time).
func (r TimeRange) Cutoff(now time.Time) time.Time {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, 0, -30)
	case RangeQuarter:
		return now.AddDate(0, 0, -90)
	}
	return time.Time{}
}

// TimeSlot is one hour-of-day bucket ranked by open ratio.
type TimeSlot struct {
	Hour      int     `json:"hour"`
	Received  int     `json:"received"`
	Opened    int     `json:"opened"`
	OpenRatio float64 `json:"open_ratio"`
}

// KindStats holds per-alert-kind engagement ratios.
type KindStats struct {
	Delivered  int     `json:"delivered"`
	Opened     int     `json:"opened"`
	Actioned   int     `json:"actioned"`
	OpenRate   float64 `json:"open_rate"`
	ActionRate float64 `json:"action_rate"`
}

// TrendPoint is one calendar day of the 7-day engagement trend.
type TrendPoint struct {
	Date       string  `json:"date"`
	Delivered  int     `json:"delivered"`
	OpenRate   float64 `json:"open_rate"`
	ActionRate float64 `json:"action_rate"`
}

// MetricsSnapshot is derived on demand from the interaction log. It is a
// cache-only value, never persisted authoritatively.
type MetricsSnapshot struct {
	Range                 TimeRange               `json:"range"`
	GeneratedAt           time.Time               `json:"generated_at"`
	TotalDelivered        int                     `json:"total_delivered"`
	OpenRate              float64                 `json:"open_rate"`
	ActionRate            float64                 `json:"action_rate"`
	AverageResponseTimeMs float64                 `json:"average_response_time_ms"`
	BestTimeSlots         []TimeSlot              `json:"best_time_slots"`
	PerKind               map[AlertKind]KindStats `json:"per_kind"`
	Trend                 []TrendPoint            `json:"trend"`
}
