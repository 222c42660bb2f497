package model

import "time"

// InteractionKind is a notification lifecycle event type.
type InteractionKind string

const (
	InteractionReceived         InteractionKind = "received"
	InteractionOpened           InteractionKind = "opened"
	InteractionDismissed        InteractionKind = "dismissed"
	InteractionActionClicked    InteractionKind = "action_clicked"
	InteractionDeepLinkFollowed InteractionKind = "deep_link_followed"
)

// TimeBucket is a coarse time-of-day slot for engagement analysis.
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"
	BucketAfternoon TimeBucket = "afternoon"
	BucketEvening   TimeBucket = "evening"
	BucketNight     TimeBucket = "night"
)

// BucketForHour maps a clock hour to its time-of-day bucket.
// Morning 5-11, afternoon 12-16, evening 17-21, night otherwise.
func BucketForHour(hour int) TimeBucket {
	switch {
	case hour >= 5 && hour <= 11:
		return BucketMorning
	case hour >= 12 && hour <= 16:
		return BucketAfternoon
	case hour >= 17 && hour <= 21:
		return BucketEvening
	default:
		return BucketNight
	}
}

// SessionContext is a snapshot of the app/device environment at event time.
// Free-text fields are sanitized before recording.
type SessionContext struct {
	TimeOfDay   TimeBucket `json:"time_of_day"`
	AppState    string     `json:"app_state,omitempty"`
	DeviceState string     `json:"device_state,omitempty"`
}

// Interaction is an immutable lifecycle event record for one alert.
// NotificationID is a weak back-reference: lookups only, no ownership.
type Interaction struct {
	ID             string          `json:"id"`
	NotificationID string          `json:"notification_id"`
	Kind           InteractionKind `json:"kind"`
	AlertKind      AlertKind       `json:"alert_kind,omitempty"`
	Priority       Priority        `json:"priority"`
	Delivered      bool            `json:"delivered"`
	DeliveryError  string          `json:"delivery_error,omitempty"`
	ResponseTimeMs *int64          `json:"response_time_ms,omitempty"`
	DismissSource  string          `json:"dismiss_source,omitempty"`
	TargetScreen   string          `json:"target_screen,omitempty"`
	Session        SessionContext  `json:"session"`
	Timestamp      time.Time       `json:"timestamp"`
}
