package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrUnauthorized is returned for requests without a valid bearer token.
var ErrUnauthorized = errors.New("unauthorized")

type contextKey int

const (
	tenantIDKey contextKey = iota
	sessionIDKey
)

func getTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// TenantResolver maps an API key to the tenant whose projects and board it
// may touch.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

func bearerToken(h http.Header) string {
	return strings.TrimSpace(strings.TrimPrefix(h.Get("Authorization"), "Bearer "))
}

// handshakeMethod reports methods a client sends before any tool call.
func handshakeMethod(method string) bool {
	return method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/")
}

// authMiddleware resolves the tenant from the request's API key.
func authMiddleware(resolver TenantResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if handshakeMethod(method) {
				return next(ctx, method, req)
			}
			tenantID, err := resolveTenant(ctx, resolver, req.GetExtra())
			if err != nil {
				return nil, err
			}
			return next(context.WithValue(ctx, tenantIDKey, tenantID), method, req)
		}
	}
}

func resolveTenant(ctx context.Context, resolver TenantResolver, extra *sdkmcp.RequestExtra) (string, error) {
	if extra == nil || extra.Header == nil {
		return "", fmt.Errorf("%w: missing headers", ErrUnauthorized)
	}
	token := bearerToken(extra.Header)
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	tenantID, err := resolver.ResolveTenant(ctx, token)
	switch {
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case tenantID == "":
		return "", fmt.Errorf("%w: invalid bearer token", ErrUnauthorized)
	}
	return tenantID, nil
}

// fixedTenantMiddleware runs every request as tenantID. Used for stdio and
// for HTTP with auth disabled.
func fixedTenantMiddleware(tenantID string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(context.WithValue(ctx, tenantIDKey, tenantID), method, req)
		}
	}
}

// sessionMiddleware attaches the navigation session id, if the client sent
// one, so get_view and navigate can default to it.
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if id := requestSessionID(req); id != "" {
				ctx = context.WithValue(ctx, sessionIDKey, id)
			}
			return next(ctx, method, req)
		}
	}
}

// requestSessionID prefers the Mcp-Session-Id header (HTTP) and falls back
// to _meta.session_id (stdio).
func requestSessionID(req sdkmcp.Request) string {
	if extra := req.GetExtra(); extra != nil && extra.Header != nil {
		if id := extra.Header.Get("Mcp-Session-Id"); id != "" {
			return id
		}
	}
	return metaSessionID(req.GetParams())
}

func metaSessionID(params sdkmcp.Params) (id string) {
	if params == nil {
		return ""
	}
	// GetMeta panics on a typed nil, which notifications like "initialized" carry.
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	id, _ = params.GetMeta()["session_id"].(string)
	return id
}
