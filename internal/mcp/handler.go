package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/domain/session"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/domain/view"
)

// ErrUnknownMethod is returned for a method that names no tool.
var ErrUnknownMethod = errors.New("unknown method")

// Handler dispatches MCP commands.
type Handler struct {
	projects ProjectService
	tracker  TrackerService
	sessions SessionService
	activity ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{
		projects: svc.Projects,
		tracker:  svc.Tracker,
		sessions: svc.Sessions,
		activity: svc.Activity,
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, tenantID, sessionID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	switch method {
	// Projects
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.Create(ctx, tenantID, project.CreateRequest{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			Priority:    req.Priority,
			Location:    req.Location,
			Trips:       req.Trips,
		})
	case "list_projects":
		return h.projects.List(ctx, tenantID)
	case "get_project":
		var req GetProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.Get(ctx, tenantID, req.ID)
		if err != nil {
			return nil, err
		}
		return ProjectDetailResponse{
			Project:      proj,
			CreatedLabel: proj.CreatedLabel(),
			Progress:     project.ComputeProgress(proj.Trips),
		}, nil
	case "update_project":
		var req UpdateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.Update(ctx, tenantID, req.ID, project.UpdateRequest{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			Priority:    req.Priority,
			Location:    req.Location,
		})
	case "delete_project":
		var req DeleteProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.projects.Delete(ctx, tenantID, req.ID); err != nil {
			return nil, err
		}
		return StatusResponse{Status: "deleted"}, nil
	case "search_projects":
		var req SearchParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.Search(ctx, tenantID, req.Query)
	case "get_project_progress":
		var req GetProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.Progress(ctx, tenantID, req.ID)

	// Trips
	case "add_trip":
		var req AddTripParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.AddTrip(ctx, tenantID, req.ProjectID, req.Trip)
	case "update_trip":
		var req UpdateTripParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.UpdateTrip(ctx, tenantID, req.ProjectID, req.TripID, req.Patch)
	case "remove_trip":
		var req RemoveTripParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.projects.RemoveTrip(ctx, tenantID, req.ProjectID, req.TripID); err != nil {
			return nil, err
		}
		return StatusResponse{Status: "removed"}, nil
	case "save_trips":
		var req SaveTripsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.SaveTrips(ctx, tenantID, req.ProjectID, req.Trips)
	case "export_trips_csv":
		var req GetProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.ExportTrips(ctx, tenantID, req.ID)

	// Tracking board
	case "tracker_list_rows":
		rows, err := h.tracker.Rows(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return TrackerRowsResponse{Rows: rows, Count: len(rows)}, nil
	case "tracker_add_row":
		return h.tracker.AddRow(ctx, tenantID)
	case "tracker_update_cell":
		var req UpdateCellParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		cells := make(map[string]string, len(req.Cells)+1)
		for k, v := range req.Cells {
			cells[k] = v
		}
		if req.Key != "" {
			cells[req.Key] = req.Value
		}
		if len(cells) == 0 {
			return nil, &APIError{Code: "INVALID_INPUT", Message: "key or cells is required"}
		}
		return h.tracker.UpdateCells(ctx, tenantID, req.RowID, cells)
	case "tracker_delete_row":
		var req DeleteRowParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.tracker.DeleteRow(ctx, tenantID, req.RowID); err != nil {
			return nil, err
		}
		return StatusResponse{Status: "deleted"}, nil
	case "tracker_save":
		if err := h.tracker.Save(ctx, tenantID); err != nil {
			return nil, err
		}
		return StatusResponse{Status: "saved"}, nil
	case "tracker_search":
		var req SearchParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rows, err := h.tracker.Search(ctx, tenantID, req.Query)
		if err != nil {
			return nil, err
		}
		return TrackerRowsResponse{Rows: rows, Count: len(rows)}, nil
	case "tracker_stats":
		return h.tracker.Stats(ctx, tenantID)
	case "tracker_export_csv":
		return h.tracker.Export(ctx, tenantID)
	case "tracker_import_csv":
		var req ImportCSVParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		n, err := h.tracker.Import(ctx, tenantID, strings.NewReader(req.Content))
		if err != nil {
			return nil, err
		}
		return ImportResponse{Imported: n}, nil
	case "tracker_columns":
		return tracker.Columns(), nil

	// Navigation
	case "get_view":
		var req GetViewParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.Get(ctx, tenantID, firstNonEmpty(sessionID, req.SessionID))
		if err != nil {
			return nil, err
		}
		return viewResponse(sess), nil
	case "navigate":
		var req NavigateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ev, err := view.ParseEvent(req.Event, req.ProjectID)
		if err != nil {
			return nil, err
		}
		sess, err := h.sessions.Navigate(ctx, tenantID, firstNonEmpty(sessionID, req.SessionID), ev)
		if err != nil {
			return nil, err
		}
		return viewResponse(sess), nil
	case "close_session":
		var req CloseSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.sessions.Close(ctx, tenantID, firstNonEmpty(sessionID, req.SessionID)); err != nil {
			return nil, err
		}
		return StatusResponse{Status: "closed"}, nil

	// Activity
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.activity.GetRecentActivity(ctx, tenantID, activity.ListActivityOptions{
			Scope:        req.Scope,
			RecordID:     req.RecordID,
			ActivityType: req.Type,
			Limit:        req.Limit,
			Offset:       req.Offset,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

func viewResponse(sess *session.Session) ViewResponse {
	return ViewResponse{
		SessionID:    sess.ID,
		View:         sess.View,
		Screen:       sess.View.String(),
		LastActivity: sess.LastActivity,
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
