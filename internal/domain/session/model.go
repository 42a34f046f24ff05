package session

import (
	"time"

	"github.com/rpggio/haulboard/internal/domain/view"
)

// SessionStatus represents the lifecycle status of a session
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusClosed SessionStatus = "closed"
)

// Session is one client's position in the dashboard.
type Session struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenant_id"`
	Status       SessionStatus `json:"status"`
	View         view.State    `json:"view"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
	ClosedAt     *time.Time    `json:"closed_at,omitempty"`
}
