package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/repository"
)

// interactionRow maps one archived interaction. The archive is append-only
// and outlives the in-memory retention window.
type interactionRow struct {
	ID             string    `db:"id"`
	NotificationID string    `db:"notification_id"`
	Kind           string    `db:"kind"`
	AlertKind      string    `db:"alert_kind"`
	Priority       string    `db:"priority"`
	Delivered      bool      `db:"delivered"`
	DeliveryError  string    `db:"delivery_error"`
	ResponseTimeMs *int64    `db:"response_time_ms"`
	DismissSource  string    `db:"dismiss_source"`
	TargetScreen   string    `db:"target_screen"`
	TimeOfDay      string    `db:"time_of_day"`
	AppState       string    `db:"app_state"`
	DeviceState    string    `db:"device_state"`
	CreatedAt      time.Time `db:"created_at"`
}

type interactionRepository struct {
	db *sqlx.DB
}

func NewInteractionRepository(db *sqlx.DB) repository.InteractionArchive {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Insert(ctx context.Context, rec model.Interaction) error {
	query := `
		INSERT INTO interactions (
			id, notification_id, kind, alert_kind, priority, delivered,
			delivery_error, response_time_ms, dismiss_source, target_screen,
			time_of_day, app_state, device_state, created_at
		) VALUES (
			:id, :notification_id, :kind, :alert_kind, :priority, :delivered,
			:delivery_error, :response_time_ms, :dismiss_source, :target_screen,
			:time_of_day, :app_state, :device_state, :created_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, rowFromModel(rec))
	return err
}

func (r *interactionRepository) ListSince(ctx context.Context, since time.Time) ([]model.Interaction, error) {
	query := `
		SELECT id, notification_id, kind, alert_kind, priority, delivered,
		       delivery_error, response_time_ms, dismiss_source, target_screen,
		       time_of_day, app_state, device_state, created_at
		FROM interactions
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`
	var rows []interactionRow
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, err
	}

	records := make([]model.Interaction, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

func rowFromModel(rec model.Interaction) interactionRow {
	return interactionRow{
		ID:             rec.ID,
		NotificationID: rec.NotificationID,
		Kind:           string(rec.Kind),
		AlertKind:      string(rec.AlertKind),
		Priority:       rec.Priority.String(),
		Delivered:      rec.Delivered,
		DeliveryError:  rec.DeliveryError,
		ResponseTimeMs: rec.ResponseTimeMs,
		DismissSource:  rec.DismissSource,
		TargetScreen:   rec.TargetScreen,
		TimeOfDay:      string(rec.Session.TimeOfDay),
		AppState:       rec.Session.AppState,
		DeviceState:    rec.Session.DeviceState,
		CreatedAt:      rec.Timestamp,
	}
}

func (row interactionRow) toModel() model.Interaction {
	priority, err := model.ParsePriority(row.Priority)
	if err != nil {
		priority = model.PriorityLow
	}
	return model.Interaction{
		ID:             row.ID,
		NotificationID: row.NotificationID,
		Kind:           model.InteractionKind(row.Kind),
		AlertKind:      model.AlertKind(row.AlertKind),
		Priority:       priority,
		Delivered:      row.Delivered,
		DeliveryError:  row.DeliveryError,
		ResponseTimeMs: row.ResponseTimeMs,
		DismissSource:  row.DismissSource,
		TargetScreen:   row.TargetScreen,
		Session: model.SessionContext{
			TimeOfDay:   model.TimeBucket(row.TimeOfDay),
			AppState:    row.AppState,
			DeviceState: row.DeviceState,
		},
		Timestamp: row.CreatedAt,
	}
}
