package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/alert-engine/internal/model"
)

func TestUtilizationPriorityBands(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	tests := []struct {
		pct  float64
		want model.Priority
	}{
		{0, model.PriorityLow},
		{45, model.PriorityLow},
		{59.9, model.PriorityLow},
		{60, model.PriorityMedium},
		{79, model.PriorityMedium},
		{80, model.PriorityHigh},
		{89, model.PriorityHigh},
		{90, model.PriorityCritical},
		{95, model.PriorityCritical},
		{120, model.PriorityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.UtilizationPriority(tt.pct), "pct=%v", tt.pct)
	}
}

func TestPaymentPriorityBands(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	tests := []struct {
		days int
		want model.Priority
	}{
		{-5, model.PriorityCritical},
		{0, model.PriorityCritical},
		{1, model.PriorityHigh},
		{3, model.PriorityHigh},
		{4, model.PriorityMedium},
		{30, model.PriorityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.PaymentPriority(tt.days), "days=%v", tt.days)
	}
}

func TestSuggestedPayment(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	// 87% of 10k with a 30% target: pay down to 3000.
	assert.InDelta(t, 5700, e.SuggestedPayment(8700, 10000, 0), 0.001)
	// Caller-supplied target.
	assert.InDelta(t, 6700, e.SuggestedPayment(8700, 10000, 20), 0.001)
	// Already below target.
	assert.Equal(t, 0.0, e.SuggestedPayment(2000, 10000, 30))
	// Unknown limit: no suggestion.
	assert.Equal(t, 0.0, e.SuggestedPayment(8700, 0, 30))
}

func TestEvaluateUtilization(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	alert := e.EvaluateUtilization(UtilizationInput{
		CardRef: "card-1",
		Percent: 95,
		Balance: 9500,
		Limit:   10000,
	})
	assert.Equal(t, model.AlertKindUtilization, alert.Kind)
	assert.Equal(t, model.PriorityCritical, alert.Priority)
	assert.Equal(t, "card-1", alert.SubjectRef)
	assert.Contains(t, alert.Message, "95%")
	assert.Contains(t, alert.Message, "$6500.00")
	assert.NotEmpty(t, alert.ID)
	assert.Greater(t, alert.AutoDismissMs, int64(0))
}

func TestEvaluateUtilizationWithoutBalance(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	alert := e.EvaluateUtilization(UtilizationInput{CardRef: "card-1", Percent: 65})
	assert.Equal(t, model.PriorityMedium, alert.Priority)
	assert.NotContains(t, alert.Message, "$")
}

func TestEvaluatePayment(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	t.Run("overdue", func(t *testing.T) {
		alert := e.EvaluatePayment(PaymentInput{CardRef: "card-2", DaysUntilDue: -2, MinimumPayment: 35})
		assert.Equal(t, model.PriorityCritical, alert.Priority)
		assert.Contains(t, alert.Message, "2 day(s) overdue")
		assert.Contains(t, alert.Message, "$35.00")
	})

	t.Run("due today", func(t *testing.T) {
		alert := e.EvaluatePayment(PaymentInput{CardRef: "card-2", DaysUntilDue: 0})
		assert.Equal(t, model.PriorityCritical, alert.Priority)
		assert.Equal(t, "Payment due today", alert.Title)
	})

	t.Run("due soon", func(t *testing.T) {
		alert := e.EvaluatePayment(PaymentInput{CardRef: "card-2", DaysUntilDue: 2})
		assert.Equal(t, model.PriorityHigh, alert.Priority)
	})
}

func TestEvaluateEngagementAlwaysLow(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	a := e.EvaluateEngagement(model.AlertKindAchievement, "Streak!", "7 days of on-time payments.")
	assert.Equal(t, model.PriorityLow, a.Priority)
	b := e.EvaluateEngagement(model.AlertKindEducation, "Tip", "Utilization under 30% helps your score.")
	assert.Equal(t, model.PriorityLow, b.Priority)
}

func TestCustomThresholds(t *testing.T) {
	tt := DefaultThresholds()
	tt.UtilizationCritical = 95
	e := NewEvaluator(tt)
	assert.Equal(t, model.PriorityHigh, e.UtilizationPriority(92))
	assert.Equal(t, model.PriorityCritical, e.UtilizationPriority(96))
}
