package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/haulboard/internal/config"
	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/domain/session"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/filemirror"
	"github.com/rpggio/haulboard/internal/mcp"
	"github.com/rpggio/haulboard/internal/sqlite"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	apiKeys  *sqlite.APIKeyRepository
	tracker  *tracker.Service
	services mcp.Services
	logFile  io.Closer
}

// newApp loads configuration, opens and migrates the database and builds
// the domain services. Only an HTTP server logs to stdout; stdio mode and
// the operator commands keep stdout for their own output.
func newApp(cfgPath string, serving bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	a := &app{cfg: cfg}
	logWriter := io.Writer(os.Stderr)
	if serving && cfg.Transport.Mode == "http" {
		logWriter = os.Stdout
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			a.logFile = file
			logWriter = fileWriter
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		a.Close()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db

	if err := db.RunMigrations(); err != nil {
		a.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	mirror, err := a.trackerMirror()
	if err != nil {
		a.Close()
		return nil, err
	}

	projectRepo := sqlite.NewProjectRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	a.apiKeys = sqlite.NewAPIKeyRepository(db)

	a.tracker = tracker.NewService(mirror, activityRepo, a.logger)
	a.services = mcp.Services{
		Projects: project.NewService(projectRepo, activityRepo, a.logger),
		Tracker:  a.tracker,
		Sessions: session.NewService(sessionRepo, projectRepo, a.logger),
		Activity: activity.NewService(activityRepo, a.logger),
	}
	return a, nil
}

func (a *app) trackerMirror() (tracker.Mirror, error) {
	if a.cfg.Tracker.Mirror == "file" {
		m, err := filemirror.New(a.cfg.Tracker.MirrorDir)
		if err != nil {
			return nil, fmt.Errorf("open file mirror: %w", err)
		}
		return m, nil
	}
	return sqlite.NewMirrorRepository(a.db), nil
}

func (a *app) mcpServer(version string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services:      a.services,
		Resolver:      a.apiKeys,
		AuthEnabled:   a.cfg.Auth.Enabled,
		DefaultTenant: a.cfg.Tracker.Tenant,
		TransportMode: a.cfg.Transport.Mode,
		Version:       version,
		Logger:        a.logger,
	})
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
