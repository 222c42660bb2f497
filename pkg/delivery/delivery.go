// Package delivery is the boundary to the external OS-level notification
// capability. The core hands over a content payload and a trigger time; how
// it reaches the device is not this module's concern.
package delivery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/alert-engine/internal/model"
)

// Payload is what gets handed to the external capability.
type Payload struct {
	Alert     model.Alert `json:"alert"`
	TriggerAt time.Time   `json:"trigger_at"`
}

// Notifier delivers a payload. Implementations live outside this core;
// errors are caught per-alert and never abort queue draining.
type Notifier interface {
	Deliver(ctx context.Context, p Payload) error
}

// LogNotifier is the default stand-in: it logs the payload and succeeds.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(l zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With().Str("component", "delivery").Logger()}
}

func (n *LogNotifier) Deliver(_ context.Context, p Payload) error {
	n.logger.Info().
		Str("alert_id", p.Alert.ID).
		Str("kind", string(p.Alert.Kind)).
		Str("priority", p.Alert.Priority.String()).
		Time("trigger_at", p.TriggerAt).
		Msg("delivering notification payload")
	return nil
}
