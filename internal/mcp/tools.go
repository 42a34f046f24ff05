package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

var tripInputSchema = objectSchema(map[string]any{
	"id":               stringProp("ID of a current trip to keep (save_trips only; omit for a new trip)"),
	"trip_number":      stringProp("Trip number (defaults to T-001, T-002, ... by position)"),
	"destination":      stringProp("Destination"),
	"pieces":           integerProp("Number of pieces carried (non-negative)"),
	"piece_name":       stringProp("What the pieces are, e.g. blade, tower section"),
	"status":           enumProp("Trip status (default pending)", "pending", "in-transit", "delivered", "delayed"),
	"departure_date":   stringProp("Departure date"),
	"expected_arrival": stringProp("Expected arrival date"),
	"driver":           stringProp("Driver name"),
	"truck":            stringProp("Truck plate"),
	"trailer":          stringProp("Trailer plate"),
}, "destination")

var tripPatchSchema = objectSchema(map[string]any{
	"trip_number":      stringProp("Trip number"),
	"destination":      stringProp("Destination"),
	"pieces":           integerProp("Number of pieces carried (non-negative)"),
	"piece_name":       stringProp("What the pieces are"),
	"status":           enumProp("Trip status", "pending", "in-transit", "delivered", "delayed"),
	"departure_date":   stringProp("Departure date"),
	"expected_arrival": stringProp("Expected arrival date"),
	"driver":           stringProp("Driver name"),
	"truck":            stringProp("Truck plate"),
	"trailer":          stringProp("Trailer plate"),
})

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	projectID := stringProp("Project ID")
	return []ToolDefinition{
		// Projects
		{
			Name:        "create_project",
			Description: "Create a shipping project, optionally with its initial trips. New projects appear first in list_projects.",
			InputSchema: objectSchema(map[string]any{
				"name":        stringProp("Project display name"),
				"description": stringProp("Project description"),
				"status":      enumProp("Project status (default active)", "active", "pending", "completed", "on-hold"),
				"priority":    enumProp("Priority (default medium)", "urgent", "high", "medium", "low"),
				"location":    stringProp("Site or region"),
				"trips":       map[string]any{"type": "array", "description": "Initial trips", "items": tripInputSchema},
			}, "name"),
		},
		{
			Name:        "list_projects",
			Description: "List all projects for the current tenant, newest first",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "get_project",
			Description: "Get a project with its trips, progress and display date",
			InputSchema: objectSchema(map[string]any{"id": projectID}, "id"),
		},
		{
			Name:        "update_project",
			Description: "Update project fields; omitted fields are left unchanged",
			InputSchema: objectSchema(map[string]any{
				"id":          projectID,
				"name":        stringProp("Project display name"),
				"description": stringProp("Project description"),
				"status":      enumProp("Project status", "active", "pending", "completed", "on-hold"),
				"priority":    enumProp("Priority", "urgent", "high", "medium", "low"),
				"location":    stringProp("Site or region"),
			}, "id"),
		},
		{
			Name:        "delete_project",
			Description: "Delete a project and its trips",
			InputSchema: objectSchema(map[string]any{"id": projectID}, "id"),
		},
		{
			Name:        "search_projects",
			Description: "Case-insensitive substring search over project name and description",
			InputSchema: objectSchema(map[string]any{"query": stringProp("Search text; empty matches every project")}),
		},
		{
			Name:        "get_project_progress",
			Description: "Delivered and in-transit piece counts and completion percentage",
			InputSchema: objectSchema(map[string]any{"id": projectID}, "id"),
		},

		// Trips
		{
			Name:        "add_trip",
			Description: "Append a trip to a project",
			InputSchema: objectSchema(map[string]any{
				"project_id": projectID,
				"trip":       tripInputSchema,
			}, "project_id", "trip"),
		},
		{
			Name:        "update_trip",
			Description: "Patch one trip of a project",
			InputSchema: objectSchema(map[string]any{
				"project_id": projectID,
				"trip_id":    stringProp("Trip ID"),
				"patch":      tripPatchSchema,
			}, "project_id", "trip_id", "patch"),
		},
		{
			Name:        "remove_trip",
			Description: "Remove one trip from a project",
			InputSchema: objectSchema(map[string]any{
				"project_id": projectID,
				"trip_id":    stringProp("Trip ID"),
			}, "project_id", "trip_id"),
		},
		{
			Name:        "save_trips",
			Description: "Replace the whole trip list of a project and recompute its total pieces",
			InputSchema: objectSchema(map[string]any{
				"project_id": projectID,
				"trips":      map[string]any{"type": "array", "items": tripInputSchema},
			}, "project_id", "trips"),
		},
		{
			Name:        "export_trips_csv",
			Description: "Render a project's trips as CSV",
			InputSchema: objectSchema(map[string]any{"id": projectID}, "id"),
		},

		// Tracking board
		{
			Name:        "tracker_list_rows",
			Description: "List every row of the wind-turbine tracking board",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "tracker_add_row",
			Description: "Append an empty row to the tracking board",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "tracker_update_cell",
			Description: "Set one cell (key/value) or several cells (cells map) of a tracking row",
			InputSchema: objectSchema(map[string]any{
				"row_id": stringProp("Row ID"),
				"key":    stringProp("Column key, see tracker_columns"),
				"value":  stringProp("New cell value"),
				"cells": map[string]any{
					"type":                 "object",
					"description":          "Column key to value",
					"additionalProperties": map[string]any{"type": "string"},
				},
			}, "row_id"),
		},
		{
			Name:        "tracker_delete_row",
			Description: "Delete a tracking row; the last remaining row cannot be deleted",
			InputSchema: objectSchema(map[string]any{"row_id": stringProp("Row ID")}, "row_id"),
		},
		{
			Name:        "tracker_save",
			Description: "Persist the tracking board to its mirror slot",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "tracker_search",
			Description: "Case-insensitive substring search over every cell of the tracking board",
			InputSchema: objectSchema(map[string]any{"query": stringProp("Search text; empty matches every row")}),
		},
		{
			Name:        "tracker_stats",
			Description: "Row total, rows arrived at site, rows with damage reports",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "tracker_export_csv",
			Description: "Render the tracking board as CSV with bilingual column headers",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "tracker_import_csv",
			Description: "Replace the tracking board with rows parsed from CSV content",
			InputSchema: objectSchema(map[string]any{"content": stringProp("CSV text including the header line")}, "content"),
		},
		{
			Name:        "tracker_columns",
			Description: "List tracking board column keys and labels in display order",
			InputSchema: objectSchema(map[string]any{}),
		},

		// Navigation
		{
			Name:        "get_view",
			Description: "Get the current screen of a session",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Session ID (defaults to the transport session)"),
			}),
		},
		{
			Name:        "navigate",
			Description: "Apply a navigation event to a session's screen",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Session ID (defaults to the transport session; a new one is started if absent)"),
				"event":      enumProp("Navigation event", "browse", "create", "edit", "view", "track", "back", "saved"),
				"project_id": stringProp("Target project, required for edit and view"),
			}, "event"),
		},
		{
			Name:        "close_session",
			Description: "Close a session; it keeps its last screen but accepts no further navigation",
			InputSchema: objectSchema(map[string]any{
				"session_id": stringProp("Session ID (defaults to the transport session)"),
			}),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Recent activity entries, newest first",
			InputSchema: objectSchema(map[string]any{
				"scope":     stringProp("Project ID, or \"tracker\" for the tracking board"),
				"record_id": stringProp("Trip or row ID"),
				"type":      stringProp("Activity type, e.g. trip_added, row_deleted"),
				"limit":     integerProp("Maximum number of entries (default 50)"),
				"offset":    integerProp("Offset for pagination"),
			}),
		},
	}
}

func registerTools(server *sdkmcp.Server, handler *Handler, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, def := range buildToolCatalog() {
		def := def
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getTenantID(ctx), getSessionID(ctx), def.Name, args)
			if err != nil {
				logger.Debug("tool call failed", "tool", def.Name, "error", err)
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(err error) *sdkmcp.CallToolResult {
	payload := MapError(err)
	if payload == nil {
		payload = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
