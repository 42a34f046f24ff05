// Package backup writes periodic CSV exports of the tracking board to disk.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rpggio/haulboard/internal/domain/tracker"
)

// Exporter renders a tenant's board as CSV.
type Exporter interface {
	Export(ctx context.Context, tenantID string) (tracker.Export, error)
}

// Scheduler runs exports on a standard cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	exporter Exporter
	tenantID string
	dir      string
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// New validates the schedule and returns a stopped scheduler.
func New(schedule, dir, tenantID string, exporter Exporter, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	if dir == "" {
		return nil, fmt.Errorf("backup dir is required")
	}

	return &Scheduler{
		cron:     cron.New(),
		schedule: parsed,
		exporter: exporter,
		tenantID: tenantID,
		dir:      dir,
		logger:   logger,
	}, nil
}

// Start begins running backups in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		path, err := s.RunOnce(context.Background())
		if err != nil {
			s.logger.Error("tracker backup failed", "error", err)
			return
		}
		s.logger.Info("tracker backup written", "path", path)
	}))
	s.cron.Start()
	s.started = true
}

// Stop stops scheduling and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
}

// RunOnce exports the board and writes it under the backup dir. Runs on
// the same day replace each other. It returns the written path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	exp, err := s.exporter.Export(ctx, s.tenantID)
	if err != nil {
		return "", fmt.Errorf("exporting tracker: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	path := filepath.Join(s.dir, exp.FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(exp.Content), 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replacing backup: %w", err)
	}
	return path, nil
}
