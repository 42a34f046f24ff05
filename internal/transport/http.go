package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/mcp"
)

// maxImportBytes caps uploaded CSV files.
var maxImportBytes int64 = 32 << 20

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error)
}

// TrackerService is the part of the tracking board served as file downloads
// and uploads.
type TrackerService interface {
	Export(ctx context.Context, tenantID string) (tracker.Export, error)
	Import(ctx context.Context, tenantID string, r io.Reader) (int, error)
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	tracker TrackerService
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware. authMiddleware
// must put a tenant in the request context; pass TenantMiddleware when auth
// is disabled. /health is always public.
func NewServer(handler MCPHandler, trackerSvc TrackerService, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{handler: handler, tracker: trackerSvc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(SessionMiddleware)

		r.Post("/rpc", srv.handleRPC)
		r.Get("/tracker/export", srv.handleTrackerExport)
		r.Post("/tracker/import", srv.handleTrackerImport)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		if errors.Is(err, errInvalidRequest) {
			WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
			return
		}
		WriteError(w, nil, ErrParseCode, "parse error", nil)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), tenantID, sessionID, req.Method, req.Params)
	if err != nil {
		var coded CodedError
		switch {
		case errors.Is(err, ErrUnauthorized):
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		case errors.Is(err, mcp.ErrUnknownMethod):
			WriteError(w, req.ID, ErrMethodNotFound, err.Error(), nil)
		case errors.As(err, &coded):
			WriteCodedError(w, req.ID, coded)
		default:
			s.logger.Error("rpc failed", "method", req.Method, "tenant_id", tenantID, "error", err)
			WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		}
		return
	}

	WriteResult(w, req.ID, result)
}

func (s *Server) handleTrackerExport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	export, err := s.tracker.Export(r.Context(), tenantID)
	if err != nil {
		s.logger.Error("tracker export failed", "tenant_id", tenantID, "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL", "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, export.Content)
}

func (s *Server) handleTrackerImport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	body, err := importBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, "INVALID_INPUT", "file too large")
			return
		}
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	defer body.Close()

	n, err := s.tracker.Import(r.Context(), tenantID, body)
	if err != nil {
		if errors.Is(err, codec.ErrMalformedInput) {
			writeErrorJSON(w, http.StatusUnprocessableEntity, "MALFORMED_INPUT", err.Error())
			return
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, "INVALID_INPUT", "file too large")
			return
		}
		s.logger.Error("tracker import failed", "tenant_id", tenantID, "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL", "import failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]int{"imported": n})
}

// importBody returns the multipart "file" field, or the raw body for any
// other content type.
func importBody(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, nil
	}
	file, _, err := r.FormFile("file")
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, err
	case err != nil:
		return nil, errors.New("multipart upload requires a \"file\" field")
	}
	return file, nil
}

func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
