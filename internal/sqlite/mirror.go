package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/repository"
)

// MirrorRepository keeps the tracker's rows as one JSON payload per tenant,
// under the tracker slot name.
type MirrorRepository struct {
	db   *DB
	slot string
}

// NewMirrorRepository creates a new MirrorRepository
func NewMirrorRepository(db *DB) *MirrorRepository {
	return &MirrorRepository{db: db, slot: tracker.SlotName}
}

// Load returns the mirrored rows. A missing slot is repository.ErrNotFound
// and an undecodable one is tracker.ErrMalformedInput.
func (r *MirrorRepository) Load(ctx context.Context, tenantID string) ([]tracker.TrackingRow, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM mirror_slots WHERE tenant_id = ? AND slot = ?`,
		tenantID, r.slot,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mirror slot: %w", err)
	}

	var rows []tracker.TrackingRow
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode mirror slot: %w: %v", tracker.ErrMalformedInput, err)
	}
	return rows, nil
}

// Save replaces the slot contents
func (r *MirrorRepository) Save(ctx context.Context, tenantID string, rows []tracker.TrackingRow) error {
	if rows == nil {
		rows = []tracker.TrackingRow{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode mirror slot: %w", err)
	}

	query := `
		INSERT INTO mirror_slots (tenant_id, slot, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, slot) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, tenantID, r.slot, string(payload), time.Now()); err != nil {
		return fmt.Errorf("failed to save mirror slot: %w", err)
	}
	return nil
}
