// Package events publishes inscription lifecycle events for downstream consumers
// (notifications, analytics). Delivery is best-effort.
package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	TypeInscriptionCreated       = "inscription.created"
	TypeInscriptionStatusChanged = "inscription.status_changed"
)

// InscriptionEvent is the payload written for every ledger change.
type InscriptionEvent struct {
	Type          string    `json:"type"`
	InscriptionID string    `json:"inscription_id"`
	UserID        string    `json:"user_id"`
	ActivityRef   string    `json:"activity_ref"`
	FromStatus    string    `json:"from_status,omitempty"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt InscriptionEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, InscriptionEvent) error { return nil }

// Logger writes events to a structured log; used when no broker is configured.
type Logger struct {
	Log *slog.Logger
}

func (l Logger) Publish(ctx context.Context, evt InscriptionEvent) error {
	l.Log.InfoContext(ctx, "inscription event",
		"type", evt.Type,
		"inscription_id", evt.InscriptionID,
		"activity_ref", evt.ActivityRef,
		"status", evt.Status,
	)
	return nil
}
