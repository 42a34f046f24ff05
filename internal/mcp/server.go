package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/domain/session"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/domain/view"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context, tenantID string) ([]project.ProjectSummary, error)
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
	Search(ctx context.Context, tenantID, query string) ([]project.ProjectSummary, error)
	Update(ctx context.Context, tenantID, id string, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, tenantID, id string) error
	AddTrip(ctx context.Context, tenantID, projectID string, in project.TripInput) (project.Trip, error)
	UpdateTrip(ctx context.Context, tenantID, projectID, tripID string, patch project.TripPatch) (project.Trip, error)
	RemoveTrip(ctx context.Context, tenantID, projectID, tripID string) error
	SaveTrips(ctx context.Context, tenantID, projectID string, inputs []project.TripInput) (*project.Project, error)
	Progress(ctx context.Context, tenantID, id string) (project.Progress, error)
	ExportTrips(ctx context.Context, tenantID, id string) (project.Export, error)
}

// TrackerService defines tracking board operations needed by MCP.
type TrackerService interface {
	Rows(ctx context.Context, tenantID string) ([]tracker.TrackingRow, error)
	AddRow(ctx context.Context, tenantID string) (tracker.TrackingRow, error)
	UpdateCells(ctx context.Context, tenantID, rowID string, cells map[string]string) (tracker.TrackingRow, error)
	DeleteRow(ctx context.Context, tenantID, rowID string) error
	Save(ctx context.Context, tenantID string) error
	Search(ctx context.Context, tenantID, query string) ([]tracker.TrackingRow, error)
	Stats(ctx context.Context, tenantID string) (tracker.Stats, error)
	Export(ctx context.Context, tenantID string) (tracker.Export, error)
	Import(ctx context.Context, tenantID string, r io.Reader) (int, error)
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Get(ctx context.Context, tenantID, id string) (*session.Session, error)
	Navigate(ctx context.Context, tenantID, id string, ev view.Event) (*session.Session, error)
	Close(ctx context.Context, tenantID, id string) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Tracker  TrackerService
	Sessions SessionService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	DefaultTenant string
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.DefaultTenant == "" {
		cfg.DefaultTenant = "default"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "haulboard",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only, so it never authenticates.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(fixedTenantMiddleware(cfg.DefaultTenant))
	}
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services), cfg.Logger)

	return server
}
