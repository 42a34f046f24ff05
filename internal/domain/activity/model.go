package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated      ActivityType = "project_created"
	TypeProjectUpdated      ActivityType = "project_updated"
	TypeProjectDeleted      ActivityType = "project_deleted"
	TypeTripAdded           ActivityType = "trip_added"
	TypeTripUpdated         ActivityType = "trip_updated"
	TypeTripRemoved         ActivityType = "trip_removed"
	TypeTripsSaved          ActivityType = "trips_saved"
	TypeRowAdded            ActivityType = "row_added"
	TypeRowDeleted          ActivityType = "row_deleted"
	TypeRowDeleteBlocked    ActivityType = "row_delete_blocked"
	TypeTrackerSaved        ActivityType = "tracker_saved"
	TypeTrackerExported     ActivityType = "tracker_exported"
	TypeTrackerImported     ActivityType = "tracker_imported"
	TypeTrackerImportFailed ActivityType = "tracker_import_failed"
)

// ScopeTracker is the scope of entries about the tracking board.
const ScopeTracker = "tracker"

// ActivityEntry represents an event in the activity log. Scope is the
// owning project id, or ScopeTracker for board events.
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	Scope        string       `json:"scope"`
	RecordID     *string      `json:"record_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Failure reports whether the entry records a refused or failed action.
func (e ActivityEntry) Failure() bool {
	return e.ActivityType == TypeRowDeleteBlocked || e.ActivityType == TypeTrackerImportFailed
}
