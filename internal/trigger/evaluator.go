// Package trigger turns domain facts (utilization ratio, days until due)
// into classified alerts. Evaluators are pure: no clock, no I/O.
package trigger

import (
	"fmt"

	"github.com/jwalitptl/alert-engine/internal/model"
)

// Thresholds holds the classification bands. Extracted so callers can tune
// them; defaults preserve the 60/80/90 utilization and 0/3-day payment bands.
type Thresholds struct {
	UtilizationMedium   float64 `mapstructure:"utilization_medium"`
	UtilizationHigh     float64 `mapstructure:"utilization_high"`
	UtilizationCritical float64 `mapstructure:"utilization_critical"`
	PaymentCriticalDays int     `mapstructure:"payment_critical_days"`
	PaymentHighDays     int     `mapstructure:"payment_high_days"`
	TargetUtilization   float64 `mapstructure:"target_utilization"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		UtilizationMedium:   60,
		UtilizationHigh:     80,
		UtilizationCritical: 90,
		PaymentCriticalDays: 0,
		PaymentHighDays:     3,
		TargetUtilization:   30,
	}
}

// Evaluator classifies domain facts into alerts.
type Evaluator struct {
	t Thresholds
}

func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{t: t}
}

// UtilizationPriority maps a utilization percentage to its priority band.
func (e *Evaluator) UtilizationPriority(pct float64) model.Priority {
	switch {
	case pct >= e.t.UtilizationCritical:
		return model.PriorityCritical
	case pct >= e.t.UtilizationHigh:
		return model.PriorityHigh
	case pct >= e.t.UtilizationMedium:
		return model.PriorityMedium
	}
	return model.PriorityLow
}

// SuggestedPayment returns the amount needed to bring the balance down to
// the target utilization. Zero when already at or below target, or when no
// credit limit is known.
func (e *Evaluator) SuggestedPayment(balance, limit, targetPct float64) float64 {
	if limit <= 0 {
		return 0
	}
	if targetPct <= 0 {
		targetPct = e.t.TargetUtilization
	}
	suggested := balance - limit*targetPct/100
	if suggested < 0 {
		return 0
	}
	return suggested
}

// UtilizationInput carries the facts for a credit-utilization alert.
// Balance and Limit are optional; without them no payment suggestion is made.
type UtilizationInput struct {
	CardRef   string
	Percent   float64
	TargetPct float64
	Balance   float64
	Limit     float64
}

// EvaluateUtilization builds a utilization alert for the given card.
func (e *Evaluator) EvaluateUtilization(in UtilizationInput) *model.Alert {
	priority := e.UtilizationPriority(in.Percent)

	var title string
	switch priority {
	case model.PriorityCritical:
		title = "Critical credit utilization"
	case model.PriorityHigh:
		title = "High credit utilization"
	case model.PriorityMedium:
		title = "Credit utilization rising"
	default:
		title = "Credit utilization update"
	}

	msg := fmt.Sprintf("Your card is at %.0f%% utilization.", in.Percent)
	if suggested := e.SuggestedPayment(in.Balance, in.Limit, in.TargetPct); suggested > 0 {
		target := in.TargetPct
		if target <= 0 {
			target = e.t.TargetUtilization
		}
		msg = fmt.Sprintf("%s Paying $%.2f would bring it down to %.0f%%.", msg, suggested, target)
	}

	alert := model.NewAlert(model.AlertKindUtilization, priority, title, msg)
	alert.SubjectRef = in.CardRef
	alert.ActionLabel = "View card"
	alert.ActionRef = "card_detail"
	return alert
}

// PaymentInput carries the facts for a payment-due alert. DaysUntilDue may
// be negative for overdue payments.
type PaymentInput struct {
	CardRef        string
	DaysUntilDue   int
	MinimumPayment float64
}

// PaymentPriority maps days-until-due to its priority band.
func (e *Evaluator) PaymentPriority(daysUntilDue int) model.Priority {
	switch {
	case daysUntilDue <= e.t.PaymentCriticalDays:
		return model.PriorityCritical
	case daysUntilDue <= e.t.PaymentHighDays:
		return model.PriorityHigh
	}
	return model.PriorityMedium
}

// EvaluatePayment builds a payment-due alert for the given card.
func (e *Evaluator) EvaluatePayment(in PaymentInput) *model.Alert {
	priority := e.PaymentPriority(in.DaysUntilDue)

	var title, msg string
	switch {
	case in.DaysUntilDue < 0:
		title = "Payment overdue"
		msg = fmt.Sprintf("Your payment is %d day(s) overdue.", -in.DaysUntilDue)
	case in.DaysUntilDue == 0:
		title = "Payment due today"
		msg = "Your payment is due today."
	default:
		title = "Payment due soon"
		msg = fmt.Sprintf("Your payment is due in %d day(s).", in.DaysUntilDue)
	}
	if in.MinimumPayment > 0 {
		msg = fmt.Sprintf("%s Minimum payment: $%.2f.", msg, in.MinimumPayment)
	}

	alert := model.NewAlert(model.AlertKindPayment, priority, title, msg)
	alert.SubjectRef = in.CardRef
	alert.ActionLabel = "Pay now"
	alert.ActionRef = "payment_entry"
	return alert
}

// EvaluateEngagement builds an achievement or education nudge. These are
// always low priority.
func (e *Evaluator) EvaluateEngagement(kind model.AlertKind, title, message string) *model.Alert {
	return model.NewAlert(kind, model.PriorityLow, title, message)
}
