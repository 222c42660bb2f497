// Package quiethours decides whether alerts may be delivered at a given
// hour under the configured do-not-disturb window.
package quiethours

import (
	"time"

	"github.com/jwalitptl/alert-engine/internal/model"
)

// IsQuiet reports whether the given clock hour falls inside the quiet
// window. A window with equal bounds is zero-length and never quiet.
func IsQuiet(s model.QuietHoursSettings, hour int) bool {
	if !s.Enabled {
		return false
	}
	s = s.Normalize()
	if s.StartHour == s.EndHour {
		return false
	}
	if s.StartHour < s.EndHour {
		return hour >= s.StartHour && hour < s.EndHour
	}
	// Window wraps midnight.
	return hour >= s.StartHour || hour < s.EndHour
}

// ShouldDeliver reports whether an alert of the given priority may be
// delivered at the given hour. Outside quiet hours everything delivers;
// inside, only critical/high with the matching override flag.
func ShouldDeliver(s model.QuietHoursSettings, p model.Priority, hour int) bool {
	if !IsQuiet(s, hour) {
		return true
	}
	switch p {
	case model.PriorityCritical:
		return s.AllowCriticalOverride
	case model.PriorityHigh:
		return s.AllowHighOverride
	}
	return false
}

// TransitionKind names which window boundary a transition crosses.
type TransitionKind string

const (
	TransitionStart TransitionKind = "start"
	TransitionEnd   TransitionKind = "end"
)

// Transition is the next quiet-window boundary crossing.
type Transition struct {
	Kind TransitionKind `json:"kind"`
	At   time.Time      `json:"at"`
}

// NextTransition computes the next boundary crossing after now. Boundaries
// that already passed today roll to tomorrow. Returns false when the window
// is disabled or zero-length.
func NextTransition(s model.QuietHoursSettings, now time.Time) (Transition, bool) {
	s = s.Normalize()
	if !s.Enabled || s.StartHour == s.EndHour {
		return Transition{}, false
	}

	next := func(hour int) time.Time {
		at := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at
	}

	start := next(s.StartHour)
	end := next(s.EndHour)
	if start.Before(end) {
		return Transition{Kind: TransitionStart, At: start}, true
	}
	return Transition{Kind: TransitionEnd, At: end}, true
}
