// Package testserver assembles the full haulboard stack over an in-memory
// database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/domain/session"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/mcp"
	"github.com/rpggio/haulboard/internal/sqlite"
	"github.com/rpggio/haulboard/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	APIKeys  *sqlite.APIKeyRepository
	Services mcp.Services
	Tracker  *tracker.Service
	Token    string
	TenantID string
}

func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	projectRepo := sqlite.NewProjectRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	mirror := sqlite.NewMirrorRepository(db)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	trackerSvc := tracker.NewService(mirror, activityRepo, nil)
	services := mcp.Services{
		Projects: project.NewService(projectRepo, activityRepo, nil),
		Tracker:  trackerSvc,
		Sessions: session.NewService(sessionRepo, projectRepo, nil),
		Activity: activity.NewService(activityRepo, nil),
	}

	handler := mcp.NewHandler(services)
	server := httptest.NewServer(transport.NewServer(handler, trackerSvc, transport.AuthMiddleware(apiKeys), nil))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		APIKeys:  apiKeys,
		Services: services,
		Tracker:  trackerSvc,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.APIKeys.Add(context.Background(), tenantID, token, "test key")
}

// ConnectMCP starts an MCP server over the same services and returns a
// client session connected to it in memory. Requests run as TenantID.
func (ts *TestServer) ConnectMCP(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(mcp.Config{
		Services:      ts.Services,
		DefaultTenant: ts.TenantID,
		TransportMode: "stdio",
	})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})
	return clientSession
}
