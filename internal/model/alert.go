package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertKind categorizes what an alert is about.
type AlertKind string

const (
	AlertKindUtilization AlertKind = "utilization"
	AlertKindPayment     AlertKind = "payment"
	AlertKindAchievement AlertKind = "achievement"
	AlertKindEducation   AlertKind = "education"
	AlertKindSystemTest  AlertKind = "system_test"
)

func (k AlertKind) Valid() bool {
	switch k {
	case AlertKindUtilization, AlertKindPayment, AlertKindAchievement, AlertKindEducation, AlertKindSystemTest:
		return true
	}
	return false
}

// Priority orders alerts by severity. Higher values are more severe.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func ParsePriority(s string) (Priority, error) {
	switch s {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return PriorityLow, fmt.Errorf("unknown priority: %q", s)
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Auto-dismiss durations per priority. Higher priority stays on screen longer.
var autoDismiss = map[Priority]time.Duration{
	PriorityLow:      5 * time.Second,
	PriorityMedium:   7 * time.Second,
	PriorityHigh:     10 * time.Second,
	PriorityCritical: 15 * time.Second,
}

// Alert is a single notification candidate. Immutable after it enters the
// dispatch queue.
type Alert struct {
	ID            string    `json:"id"`
	Kind          AlertKind `json:"kind"`
	Priority      Priority  `json:"priority"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	SubjectRef    string    `json:"subject_ref,omitempty"`
	ActionLabel   string    `json:"action_label,omitempty"`
	ActionRef     string    `json:"action_ref,omitempty"`
	AutoDismissMs int64     `json:"auto_dismiss_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewAlert creates an alert with a fresh ID and the default auto-dismiss
// duration for its priority.
func NewAlert(kind AlertKind, priority Priority, title, message string) *Alert {
	return &Alert{
		ID:            uuid.New().String(),
		Kind:          kind,
		Priority:      priority,
		Title:         title,
		Message:       message,
		AutoDismissMs: autoDismiss[priority].Milliseconds(),
		CreatedAt:     time.Now(),
	}
}

// AutoDismissAfter returns the display duration as a time.Duration.
func (a *Alert) AutoDismissAfter() time.Duration {
	return time.Duration(a.AutoDismissMs) * time.Millisecond
}
