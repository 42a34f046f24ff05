package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/haulboard/internal/domain/session"
	"github.com/rpggio/haulboard/internal/domain/view"
	"github.com/rpggio/haulboard/internal/repository"
)

// SessionRepository implements session.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, tenant_id, status, view_mode, view_project_id,
			created_at, last_activity, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		tenantID,
		sess.Status,
		sess.View.Mode,
		sess.View.ProjectID,
		sess.CreatedAt,
		sess.LastActivity,
		sess.ClosedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.Session, error) {
	query := `
		SELECT
			id, tenant_id, status, view_mode, view_project_id,
			created_at, last_activity, closed_at
		FROM sessions
		WHERE id = ? AND tenant_id = ?
	`

	var sess session.Session
	var mode string
	var closedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&sess.ID,
		&sess.TenantID,
		&sess.Status,
		&mode,
		&sess.View.ProjectID,
		&sess.CreatedAt,
		&sess.LastActivity,
		&closedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.View.Mode = view.Mode(mode)
	if closedAt.Valid {
		sess.ClosedAt = &closedAt.Time
	}

	return &sess, nil
}

// Update updates a session
func (r *SessionRepository) Update(ctx context.Context, tenantID string, sess *session.Session) error {
	query := `
		UPDATE sessions
		SET status = ?, view_mode = ?, view_project_id = ?,
		    last_activity = ?, closed_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		sess.Status,
		sess.View.Mode,
		sess.View.ProjectID,
		sess.LastActivity,
		sess.ClosedAt,
		sess.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Close marks a session as closed
func (r *SessionRepository) Close(ctx context.Context, tenantID, id string) error {
	now := time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = ?, closed_at = ?, last_activity = ?
		WHERE id = ? AND tenant_id = ?
	`, session.StatusClosed, now, now, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
