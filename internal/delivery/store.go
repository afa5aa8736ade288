package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
)

// MessageStore is the persistence contract of the sweep.
//
// FindDue returns every message with is_delivered = false and
// delivery_date <= now, in no particular order. MarkDelivered sets
// is_delivered = true and must succeed when the flag is already set.
type MessageStore interface {
	FindDue(ctx context.Context, now time.Time) ([]*model.Message, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}
