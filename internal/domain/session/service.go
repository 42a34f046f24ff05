package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/haulboard/internal/domain/view"
	"github.com/rpggio/haulboard/internal/repository"
	"github.com/rpggio/haulboard/internal/store"
)

// Service handles session operations.
type Service struct {
	sessions SessionRepository
	projects ProjectRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new session service.
func NewService(sessions SessionRepository, projects ProjectRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		sessions: sessions,
		projects: projects,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the session with id. Unknown ids yield a fresh, unsaved
// session on the listing screen.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	sess, _, err := s.load(ctx, tenantID, id)
	return sess, err
}

// Navigate applies ev to the session's view and persists the result. An
// empty id starts a new session.
func (s *Service) Navigate(ctx context.Context, tenantID, id string, ev view.Event) (*Session, error) {
	if id == "" {
		id = store.NewID()
	}

	sess, existing, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusClosed {
		return nil, ErrSessionClosed
	}

	next, err := view.Transition(sess.View, ev)
	if err != nil {
		return nil, err
	}
	if next.HasTarget() {
		if _, err := s.projects.Get(ctx, tenantID, next.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("loading project: %w", err)
		}
	}

	sess.View = next
	sess.LastActivity = s.now()
	if existing {
		err = s.sessions.Update(ctx, tenantID, sess)
	} else {
		err = s.sessions.Create(ctx, tenantID, sess)
	}
	if err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.logger.Debug("session navigated", "session_id", sess.ID, "event", ev.Kind, "view", next.String())
	return sess, nil
}

// Close ends a session.
func (s *Service) Close(ctx context.Context, tenantID, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.Close(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("closing session: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, tenantID, id string) (*Session, bool, error) {
	sess, err := s.sessions.Get(ctx, tenantID, id)
	if err == nil {
		return sess, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("loading session: %w", err)
	}

	now := s.now()
	return &Session{
		ID:           id,
		TenantID:     tenantID,
		Status:       StatusActive,
		View:         view.Listing(),
		CreatedAt:    now,
		LastActivity: now,
	}, false, nil
}
