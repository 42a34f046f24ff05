package session

import (
	"context"

	"github.com/rpggio/haulboard/internal/domain/project"
)

// SessionRepository provides persistence for sessions.
type SessionRepository interface {
	Create(ctx context.Context, tenantID string, sess *Session) error
	Get(ctx context.Context, tenantID, id string) (*Session, error)
	Update(ctx context.Context, tenantID string, sess *Session) error
	Close(ctx context.Context, tenantID, id string) error
}

// ProjectRepository resolves navigation targets.
type ProjectRepository interface {
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
}
