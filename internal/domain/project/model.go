package project

import (
	"fmt"
	"time"
)

// CreatedAtLayout is the display form of a project's creation date.
const CreatedAtLayout = "Jan 2, 2006"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOnHold    Status = "on-hold"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Priority ranks a project.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TripStatus is the delivery state of a trip.
type TripStatus string

const (
	TripPending   TripStatus = "pending"
	TripInTransit TripStatus = "in-transit"
	TripDelivered TripStatus = "delivered"
	TripDelayed   TripStatus = "delayed"
)

// Valid reports whether s is a known trip status.
func (s TripStatus) Valid() bool {
	switch s {
	case TripPending, TripInTransit, TripDelivered, TripDelayed:
		return true
	}
	return false
}

// Project is a shipping project: a named batch of cargo moved in trips.
type Project struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Location    string    `json:"location,omitempty"`
	TotalPieces int64     `json:"total_pieces"`
	Trips       []Trip    `json:"trips"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreatedLabel returns the creation date in display form.
func (p *Project) CreatedLabel() string {
	return p.CreatedAt.Format(CreatedAtLayout)
}

// ProjectSummary is a lightweight representation for listing
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Location    string    `json:"location,omitempty"`
	TotalPieces int64     `json:"total_pieces"`
	TripCount   int       `json:"trip_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Trip is one truck run carrying pieces of a project to a destination.
type Trip struct {
	ID              string     `json:"id"`
	TripNumber      string     `json:"trip_number"`
	Destination     string     `json:"destination"`
	Pieces          int        `json:"pieces"`
	PieceName       string     `json:"piece_name,omitempty"`
	Status          TripStatus `json:"status"`
	DepartureDate   string     `json:"departure_date,omitempty"`
	ExpectedArrival string     `json:"expected_arrival,omitempty"`
	Driver          string     `json:"driver,omitempty"`
	Truck           string     `json:"truck,omitempty"`
	Trailer         string     `json:"trailer,omitempty"`
}

func (t Trip) RecordID() string { return t.ID }

func (t Trip) WithID(id string) Trip {
	t.ID = id
	return t
}

// TripNumber returns the default number of the trip at position i.
func TripNumber(i int) string {
	return fmt.Sprintf("T-%03d", i+1)
}

// Progress summarises how many pieces of a project have moved.
type Progress struct {
	TotalPieces     int64 `json:"total_pieces"`
	DeliveredPieces int64 `json:"delivered_pieces"`
	InTransitPieces int64 `json:"in_transit_pieces"`
	Percent         int   `json:"percent"`
}

// Export is a rendered CSV download of a project's trips.
type Export struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Rows        int    `json:"rows"`
}
