package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/haulboard/internal/backup"
	"github.com/rpggio/haulboard/internal/inbox"
	"github.com/rpggio/haulboard/internal/mcp"
	"github.com/rpggio/haulboard/internal/transport"
	"github.com/spf13/cobra"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP and HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	a, err := newApp(cfgPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopJobs, err := startJobs(ctx, a)
	if err != nil {
		return err
	}
	defer stopJobs()

	mcpServer := a.mcpServer(version)
	if a.cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, a.logger, mcpServer)
	}
	return runHTTPMode(ctx, a, mcpServer)
}

// startJobs launches the backup scheduler and inbox watcher when they are
// configured. The returned func stops whatever was started.
func startJobs(ctx context.Context, a *app) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	tc := a.cfg.Tracker
	if tc.BackupSchedule != "" {
		sched, err := backup.New(tc.BackupSchedule, tc.BackupDir, tc.Tenant, a.tracker, a.logger)
		if err != nil {
			return nil, err
		}
		sched.Start()
		stops = append(stops, sched.Stop)
		a.logger.Info("backup scheduler started", "schedule", tc.BackupSchedule, "dir", tc.BackupDir)
	}

	if tc.InboxDir != "" {
		w, err := inbox.New(tc.InboxDir, tc.Tenant, a.tracker, a.logger)
		if err != nil {
			stopAll()
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			w.Stop()
			stopAll()
			return nil, fmt.Errorf("start inbox watcher: %w", err)
		}
		stops = append(stops, w.Stop)
		a.logger.Info("inbox watcher started", "dir", tc.InboxDir)
	}

	return stopAll, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, a *app, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	authMiddleware := transport.TenantMiddleware(a.cfg.Tracker.Tenant)
	if a.cfg.Auth.Enabled {
		authMiddleware = transport.AuthMiddleware(a.apiKeys)
	}

	router := transport.NewServer(mcp.NewHandler(a.services), a.tracker, authMiddleware, a.logger)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr, "auth", a.cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown(a.logger, httpServer)
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
