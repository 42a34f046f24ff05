package tracker

import (
	"context"

	"github.com/rpggio/haulboard/internal/domain/activity"
)

// Mirror is the durable slot holding a tenant's rows between restarts.
// Load returns repository.ErrNotFound for an empty slot and an error
// wrapping ErrMalformedInput when the slot content cannot be decoded.
type Mirror interface {
	Load(ctx context.Context, tenantID string) ([]TrackingRow, error)
	Save(ctx context.Context, tenantID string, rows []TrackingRow) error
}

// ActivityRepository logs board outcomes.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}
