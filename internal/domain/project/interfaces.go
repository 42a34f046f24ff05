package project

import (
	"context"

	"github.com/rpggio/haulboard/internal/domain/activity"
)

// Repository provides persistence for projects and their trips.
type Repository interface {
	Create(ctx context.Context, tenantID string, proj *Project) error
	Get(ctx context.Context, tenantID, id string) (*Project, error)
	List(ctx context.Context, tenantID string) ([]ProjectSummary, error)
	Update(ctx context.Context, tenantID string, proj *Project) error
	Delete(ctx context.Context, tenantID, id string) error
}

// ActivityRepository records project outcomes.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}
