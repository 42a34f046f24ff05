package mcp

import (
	"time"

	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/domain/view"
)

type CreateProjectParams struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Status      project.Status      `json:"status,omitempty"`
	Priority    project.Priority    `json:"priority,omitempty"`
	Location    string              `json:"location,omitempty"`
	Trips       []project.TripInput `json:"trips,omitempty"`
}

type GetProjectParams struct {
	ID string `json:"id"`
}

type UpdateProjectParams struct {
	ID          string            `json:"id"`
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      *project.Status   `json:"status,omitempty"`
	Priority    *project.Priority `json:"priority,omitempty"`
	Location    *string           `json:"location,omitempty"`
}

type DeleteProjectParams struct {
	ID string `json:"id"`
}

type SearchParams struct {
	Query string `json:"query"`
}

type AddTripParams struct {
	ProjectID string            `json:"project_id"`
	Trip      project.TripInput `json:"trip"`
}

type UpdateTripParams struct {
	ProjectID string            `json:"project_id"`
	TripID    string            `json:"trip_id"`
	Patch     project.TripPatch `json:"patch"`
}

type RemoveTripParams struct {
	ProjectID string `json:"project_id"`
	TripID    string `json:"trip_id"`
}

type SaveTripsParams struct {
	ProjectID string              `json:"project_id"`
	Trips     []project.TripInput `json:"trips"`
}

type UpdateCellParams struct {
	RowID string `json:"row_id"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	// Cells updates several cells at once; Key/Value are merged into it.
	Cells map[string]string `json:"cells,omitempty"`
}

type DeleteRowParams struct {
	RowID string `json:"row_id"`
}

type ImportCSVParams struct {
	Content string `json:"content"`
}

type CloseSessionParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type GetViewParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type NavigateParams struct {
	SessionID string `json:"session_id,omitempty"`
	Event     string `json:"event"`
	ProjectID string `json:"project_id,omitempty"`
}

type GetRecentActivityParams struct {
	Scope    string                 `json:"scope,omitempty"`
	RecordID *string                `json:"record_id,omitempty"`
	Type     *activity.ActivityType `json:"type,omitempty"`
	Limit    int                    `json:"limit,omitempty"`
	Offset   int                    `json:"offset,omitempty"`
}

// ProjectDetailResponse is a project with its derived progress and display date.
type ProjectDetailResponse struct {
	*project.Project
	CreatedLabel string           `json:"created_label"`
	Progress     project.Progress `json:"progress"`
}

type TrackerRowsResponse struct {
	Rows  []tracker.TrackingRow `json:"rows"`
	Count int                   `json:"count"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ViewResponse struct {
	SessionID    string     `json:"session_id"`
	View         view.State `json:"view"`
	Screen       string     `json:"screen"`
	LastActivity time.Time  `json:"last_activity"`
}
