package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/repository"
	"github.com/rpggio/haulboard/internal/store"
)

const minRows = 1

// Service owns the tracking boards. Rows are rehydrated from the mirror on
// first use and written back to it after every change.
type Service struct {
	mirror     Mirror
	activities ActivityRepository
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	boards map[string]*board
}

type board struct {
	mu     sync.Mutex
	loaded bool
	rows   []TrackingRow
}

// NewService creates a new tracker service.
func NewService(mirror Mirror, activities ActivityRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		mirror:     mirror,
		activities: activities,
		logger:     logger,
		now:        time.Now,
		boards:     make(map[string]*board),
	}
}

// Rows returns the current rows in display order.
func (s *Service) Rows(ctx context.Context, tenantID string) ([]TrackingRow, error) {
	var out []TrackingRow
	err := s.withBoard(ctx, tenantID, func(b *board) error {
		out = append([]TrackingRow(nil), b.rows...)
		return nil
	})
	return out, err
}

// AddRow appends an empty row.
func (s *Service) AddRow(ctx context.Context, tenantID string) (TrackingRow, error) {
	var added TrackingRow
	err := s.withBoard(ctx, tenantID, func(b *board) error {
		next := store.Append(b.rows, TrackingRow{})
		if err := s.commit(ctx, tenantID, b, next); err != nil {
			return err
		}
		added = next[len(next)-1]
		return nil
	})
	if err != nil {
		return TrackingRow{}, err
	}

	s.record(ctx, tenantID, activity.TypeRowAdded, &added.ID, "added row to the tracking table", "")
	return added, nil
}

// UpdateCell sets a single cell.
func (s *Service) UpdateCell(ctx context.Context, tenantID, rowID, key, value string) (TrackingRow, error) {
	return s.UpdateCells(ctx, tenantID, rowID, map[string]string{key: value})
}

// UpdateCells sets several cells of one row. Unknown keys reject the whole
// update.
func (s *Service) UpdateCells(ctx context.Context, tenantID, rowID string, cells map[string]string) (TrackingRow, error) {
	for key := range cells {
		if !HasColumn(key) {
			return TrackingRow{}, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
		}
	}

	var updated TrackingRow
	err := s.withBoard(ctx, tenantID, func(b *board) error {
		next, err := store.UpdateByID(b.rows, rowID, func(r TrackingRow) (TrackingRow, error) {
			for key, value := range cells {
				var err error
				if r, err = r.With(key, value); err != nil {
					return r, err
				}
			}
			return r, nil
		})
		if errors.Is(err, store.ErrNotFound) {
			return ErrRowNotFound
		}
		if err != nil {
			return err
		}
		if err := s.commit(ctx, tenantID, b, next); err != nil {
			return err
		}
		updated, _ = store.Find(next, rowID)
		return nil
	})
	return updated, err
}

// DeleteRow removes a row. The last remaining row cannot be deleted.
func (s *Service) DeleteRow(ctx context.Context, tenantID, rowID string) error {
	err := s.withBoard(ctx, tenantID, func(b *board) error {
		next, err := store.RemoveByID(b.rows, rowID, minRows)
		switch {
		case errors.Is(err, store.ErrMinimumSize):
			return ErrMinimumRows
		case errors.Is(err, store.ErrNotFound):
			return ErrRowNotFound
		case err != nil:
			return err
		}
		return s.commit(ctx, tenantID, b, next)
	})

	switch {
	case errors.Is(err, ErrMinimumRows):
		s.record(ctx, tenantID, activity.TypeRowDeleteBlocked, &rowID, "cannot delete: table must have at least one row", "")
	case err == nil:
		s.record(ctx, tenantID, activity.TypeRowDeleted, &rowID, "removed row from the tracking table", "")
	}
	return err
}

// Save writes the current rows to the mirror.
func (s *Service) Save(ctx context.Context, tenantID string) error {
	err := s.withBoard(ctx, tenantID, func(b *board) error {
		if err := s.mirror.Save(ctx, tenantID, b.rows); err != nil {
			return fmt.Errorf("saving tracker rows: %w", err)
		}
		return nil
	})
	if err == nil {
		s.record(ctx, tenantID, activity.TypeTrackerSaved, nil, "tracking data saved", "")
	}
	return err
}

// Search returns the rows where any cell contains query, ignoring case.
func (s *Service) Search(ctx context.Context, tenantID, query string) ([]TrackingRow, error) {
	rows, err := s.Rows(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return store.Filter(rows, query, TrackingRow.Fields), nil
}

// Stats counts rows, site arrivals and damage reports.
func (s *Service) Stats(ctx context.Context, tenantID string) (Stats, error) {
	rows, err := s.Rows(ctx, tenantID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(rows)}
	for _, row := range rows {
		if row.Arrived() {
			stats.Arrived++
		}
		if row.Damaged() {
			stats.Damaged++
		}
	}
	return stats, nil
}

// Export renders the rows as a CSV download.
func (s *Service) Export(ctx context.Context, tenantID string) (Export, error) {
	rows, err := s.Rows(ctx, tenantID)
	if err != nil {
		return Export{}, err
	}

	encoded := make([]codec.Row, 0, len(rows))
	for _, row := range rows {
		encoded = append(encoded, row.toCodecRow())
	}

	exp := Export{
		FileName:    ExportFileName(s.now()),
		ContentType: "text/csv",
		Content:     codec.Encode(encoded, Columns()),
		Rows:        len(rows),
	}
	s.record(ctx, tenantID, activity.TypeTrackerExported, nil, "tracking data exported to CSV file", exp.FileName)
	return exp, nil
}

// Import replaces every row with the rows decoded from r. Malformed input
// leaves the current rows untouched.
func (s *Service) Import(ctx context.Context, tenantID string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading import: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	decoded, err := codec.Decode(text, Columns())
	if err != nil {
		s.record(ctx, tenantID, activity.TypeTrackerImportFailed, nil, "could not parse the CSV file", err.Error())
		return 0, fmt.Errorf("importing tracker rows: %w", err)
	}

	var imported []TrackingRow
	for _, row := range decoded {
		imported = store.Append(imported, fromCodecRow(row))
	}
	if len(imported) == 0 {
		imported = store.Append(nil, TrackingRow{})
	}

	err = s.withBoard(ctx, tenantID, func(b *board) error {
		return s.commit(ctx, tenantID, b, imported)
	})
	if err != nil {
		return 0, err
	}

	s.record(ctx, tenantID, activity.TypeTrackerImported, nil, fmt.Sprintf("imported %d rows from CSV file", len(decoded)), "")
	return len(decoded), nil
}

func (s *Service) withBoard(ctx context.Context, tenantID string, fn func(*board) error) error {
	s.mu.Lock()
	b, ok := s.boards[tenantID]
	if !ok {
		b = &board{}
		s.boards[tenantID] = b
	}
	s.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded {
		if err := s.rehydrate(ctx, tenantID, b); err != nil {
			return err
		}
	}
	return fn(b)
}

func (s *Service) rehydrate(ctx context.Context, tenantID string, b *board) error {
	rows, err := s.mirror.Load(ctx, tenantID)
	switch {
	case err == nil && len(rows) > 0:
		b.rows = rows
		b.loaded = true
		return nil
	case err == nil, errors.Is(err, repository.ErrNotFound):
	case errors.Is(err, ErrMalformedInput):
		s.logger.Warn("tracker mirror slot unreadable, starting over", "tenant_id", tenantID, "error", err)
	default:
		return fmt.Errorf("loading tracker rows: %w", err)
	}

	return s.commit(ctx, tenantID, b, store.Append(nil, TrackingRow{}))
}

func (s *Service) commit(ctx context.Context, tenantID string, b *board, rows []TrackingRow) error {
	if err := s.mirror.Save(ctx, tenantID, rows); err != nil {
		return fmt.Errorf("saving tracker rows: %w", err)
	}
	b.rows = rows
	b.loaded = true
	return nil
}

func (s *Service) record(ctx context.Context, tenantID string, typ activity.ActivityType, recordID *string, summary, details string) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
		Scope:        activity.ScopeTracker,
		RecordID:     recordID,
		ActivityType: typ,
		Summary:      summary,
		Details:      details,
		CreatedAt:    s.now(),
	}); err != nil {
		s.logger.Warn("failed to log tracker activity", "type", typ, "error", err)
	}
}
