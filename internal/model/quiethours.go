package model

import "time"

const (
	defaultQuietStartHour = 22
	defaultQuietEndHour   = 7
)

// QuietHoursSettings is the persisted do-not-disturb configuration. The
// window may wrap midnight (StartHour > EndHour). Equal bounds describe a
// zero-length window and are treated as quiet hours disabled.
type QuietHoursSettings struct {
	Enabled               bool      `json:"enabled"`
	StartHour             int       `json:"start_hour"`
	EndHour               int       `json:"end_hour"`
	AllowCriticalOverride bool      `json:"allow_critical_override"`
	AllowHighOverride     bool      `json:"allow_high_override"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DefaultQuietHours returns the settings used when nothing is stored or the
// stored record fails validation.
func DefaultQuietHours() QuietHoursSettings {
	return QuietHoursSettings{
		Enabled:               false,
		StartHour:             defaultQuietStartHour,
		EndHour:               defaultQuietEndHour,
		AllowCriticalOverride: true,
		AllowHighOverride:     false,
	}
}

// Normalize repairs out-of-range hours by falling back to defaults.
// Configuration errors are recovered locally, never surfaced.
func (s QuietHoursSettings) Normalize() QuietHoursSettings {
	if s.StartHour < 0 || s.StartHour > 23 {
		s.StartHour = defaultQuietStartHour
	}
	if s.EndHour < 0 || s.EndHour > 23 {
		s.EndHour = defaultQuietEndHour
	}
	return s
}

// QuietHoursPatch is a partial settings update. Nil fields are left
// untouched.
type QuietHoursPatch struct {
	Enabled               *bool `json:"enabled,omitempty"`
	StartHour             *int  `json:"start_hour,omitempty"`
	EndHour               *int  `json:"end_hour,omitempty"`
	AllowCriticalOverride *bool `json:"allow_critical_override,omitempty"`
	AllowHighOverride     *bool `json:"allow_high_override,omitempty"`
}

// Apply merges the patch into a copy of s and normalizes the result.
func (p QuietHoursPatch) Apply(s QuietHoursSettings) QuietHoursSettings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.StartHour != nil {
		s.StartHour = *p.StartHour
	}
	if p.EndHour != nil {
		s.EndHour = *p.EndHour
	}
	if p.AllowCriticalOverride != nil {
		s.AllowCriticalOverride = *p.AllowCriticalOverride
	}
	if p.AllowHighOverride != nil {
		s.AllowHighOverride = *p.AllowHighOverride
	}
	return s.Normalize()
}
