// Package view is the navigation state machine of the dashboard: which
// screen a client is on and which project it is focused on.
package view

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an event does not apply to the
	// current state.
	ErrInvalidTransition = errors.New("invalid view transition")
	// ErrMissingTarget is returned when an edit or view event names no
	// project.
	ErrMissingTarget = errors.New("view event requires a project id")
	// ErrUnknownEvent is returned when an event kind cannot be parsed.
	ErrUnknownEvent = errors.New("unknown view event")
)

// Mode names a screen.
type Mode string

const (
	ModeListing  Mode = "listing"
	ModeCreating Mode = "creating"
	ModeEditing  Mode = "editing"
	ModeViewing  Mode = "viewing"
	ModeTracking Mode = "tracking"
)

// State is the current screen. ProjectID is set only in editing and
// viewing.
type State struct {
	Mode      Mode   `json:"mode"`
	ProjectID string `json:"project_id,omitempty"`
}

// Listing is the initial state.
func Listing() State { return State{Mode: ModeListing} }

// Creating returns the project creation state.
func Creating() State { return State{Mode: ModeCreating} }

// Editing returns the edit state for a project.
func Editing(projectID string) State { return State{Mode: ModeEditing, ProjectID: projectID} }

// Viewing returns the detail state for a project.
func Viewing(projectID string) State { return State{Mode: ModeViewing, ProjectID: projectID} }

// Tracking returns the tracking board state.
func Tracking() State { return State{Mode: ModeTracking} }

// HasTarget reports whether the state is focused on a project.
func (s State) HasTarget() bool {
	return s.Mode == ModeEditing || s.Mode == ModeViewing
}

func (s State) String() string {
	if s.HasTarget() {
		return fmt.Sprintf("%s(%s)", s.Mode, s.ProjectID)
	}
	return string(s.Mode)
}

// EventKind names a navigation event.
type EventKind string

const (
	EventBrowse EventKind = "browse"
	EventCreate EventKind = "create"
	EventEdit   EventKind = "edit"
	EventView   EventKind = "view"
	EventTrack  EventKind = "track"
	EventBack   EventKind = "back"
	EventSaved  EventKind = "saved"
)

// Event is a navigation request. ProjectID is required for edit and view.
type Event struct {
	Kind      EventKind `json:"kind"`
	ProjectID string    `json:"project_id,omitempty"`
}

// ParseEvent builds an event from its wire form.
func ParseEvent(kind, projectID string) (Event, error) {
	ev := Event{Kind: EventKind(kind), ProjectID: projectID}
	switch ev.Kind {
	case EventBrowse, EventCreate, EventTrack, EventBack, EventSaved:
		ev.ProjectID = ""
	case EventEdit, EventView:
		if projectID == "" {
			return Event{}, ErrMissingTarget
		}
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	return ev, nil
}

// Transition applies ev to s.
func Transition(s State, ev Event) (State, error) {
	if (ev.Kind == EventEdit || ev.Kind == EventView) && ev.ProjectID == "" {
		return s, ErrMissingTarget
	}
	if ev.Kind == EventBrowse {
		return Listing(), nil
	}

	switch s.Mode {
	case ModeListing:
		switch ev.Kind {
		case EventCreate:
			return Creating(), nil
		case EventEdit:
			return Editing(ev.ProjectID), nil
		case EventView:
			return Viewing(ev.ProjectID), nil
		case EventTrack:
			return Tracking(), nil
		}
	case ModeCreating:
		switch ev.Kind {
		case EventBack, EventSaved:
			return Listing(), nil
		}
	case ModeEditing:
		switch ev.Kind {
		case EventBack, EventSaved:
			return Listing(), nil
		case EventView:
			return Viewing(ev.ProjectID), nil
		}
	case ModeViewing:
		switch ev.Kind {
		case EventBack:
			return Listing(), nil
		case EventEdit:
			return Editing(ev.ProjectID), nil
		}
	case ModeTracking:
		if ev.Kind == EventBack {
			return Listing(), nil
		}
	}

	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev.Kind, s)
}
