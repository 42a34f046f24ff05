package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/repository"
	"github.com/rpggio/haulboard/internal/store"
)

var tripColumns = []codec.Column{
	{Key: "tripNumber", Label: "Trip #"},
	{Key: "destination", Label: "Destination"},
	{Key: "pieces", Label: "Pieces"},
	{Key: "pieceName", Label: "Piece name"},
	{Key: "status", Label: "Status"},
	{Key: "departureDate", Label: "Departure"},
	{Key: "expectedArrival", Label: "Expected arrival"},
	{Key: "driver", Label: "Driver"},
	{Key: "truck", Label: "Truck"},
	{Key: "trailer", Label: "Trailer"},
}

// Service handles project operations. Writes to one project are
// serialised, since every write rewrites the whole trip list.
type Service struct {
	repo       Repository
	activities ActivityRepository
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new project service.
func NewService(repo Repository, activities ActivityRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, activities: activities, logger: logger, now: time.Now, locks: make(map[string]*sync.Mutex)}
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}

	trips, err := buildTrips(req.Trips, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	proj := &Project{
		ID:          store.NewID(),
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		Location:    req.Location,
		Trips:       trips,
		TotalPieces: TotalPieces(trips),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, tenantID, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.record(ctx, tenantID, proj.ID, activity.TypeProjectCreated, nil, fmt.Sprintf("created project %q", proj.Name))
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns project summaries, newest first.
func (s *Service) List(ctx context.Context, tenantID string) ([]ProjectSummary, error) {
	return s.repo.List(ctx, tenantID)
}

// Search returns the projects whose name or description contains query,
// ignoring case. An empty query returns every project.
func (s *Service) Search(ctx context.Context, tenantID, query string) ([]ProjectSummary, error) {
	list, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return store.Filter(list, query, func(p ProjectSummary) []string {
		return []string{p.Name, p.Description}
	}), nil
}

// Update patches project fields.
func (s *Service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Project, error) {
	var updated *Project
	err := s.mutate(ctx, tenantID, id, func(proj *Project) error {
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return fmt.Errorf("%w: name is required", ErrInvalidInput)
			}
			proj.Name = *req.Name
		}
		if req.Description != nil {
			proj.Description = *req.Description
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
			}
			proj.Status = *req.Status
		}
		if req.Priority != nil {
			if !req.Priority.Valid() {
				return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *req.Priority)
			}
			proj.Priority = *req.Priority
		}
		if req.Location != nil {
			proj.Location = *req.Location
		}
		updated = proj
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, tenantID, updated.ID, activity.TypeProjectUpdated, nil, fmt.Sprintf("updated project %q", updated.Name))
	return updated, nil
}

// Delete removes a project and its trips.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	unlock := s.lock(tenantID, id)
	defer unlock()

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.record(ctx, tenantID, id, activity.TypeProjectDeleted, nil, "deleted project")
	return nil
}

// AddTrip appends a trip to a project.
func (s *Service) AddTrip(ctx context.Context, tenantID, projectID string, in TripInput) (Trip, error) {
	var added Trip
	err := s.mutateTrips(ctx, tenantID, projectID, func(trips []Trip) ([]Trip, error) {
		trip, err := buildTrip(in, len(trips))
		if err != nil {
			return nil, err
		}
		next := store.Append(trips, trip)
		added = next[len(next)-1]
		return next, nil
	})
	if err != nil {
		return Trip{}, err
	}

	s.record(ctx, tenantID, projectID, activity.TypeTripAdded, &added.ID, fmt.Sprintf("added trip %s", added.TripNumber))
	return added, nil
}

// UpdateTrip patches a trip of a project.
func (s *Service) UpdateTrip(ctx context.Context, tenantID, projectID, tripID string, patch TripPatch) (Trip, error) {
	var updated Trip
	err := s.mutateTrips(ctx, tenantID, projectID, func(trips []Trip) ([]Trip, error) {
		next, err := store.UpdateByID(trips, tripID, patch.apply)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		if err != nil {
			return nil, err
		}
		updated, _ = store.Find(next, tripID)
		return next, nil
	})
	if err != nil {
		return Trip{}, err
	}

	s.record(ctx, tenantID, projectID, activity.TypeTripUpdated, &updated.ID, fmt.Sprintf("updated trip %s", updated.TripNumber))
	return updated, nil
}

// RemoveTrip drops a trip from a project. Projects may have no trips.
func (s *Service) RemoveTrip(ctx context.Context, tenantID, projectID, tripID string) error {
	err := s.mutateTrips(ctx, tenantID, projectID, func(trips []Trip) ([]Trip, error) {
		next, err := store.RemoveByID(trips, tripID, 0)
		// an empty trip list reports ErrMinimumSize
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMinimumSize) {
			return nil, ErrTripNotFound
		}
		return next, err
	})
	if err != nil {
		return err
	}

	s.record(ctx, tenantID, projectID, activity.TypeTripRemoved, &tripID, "removed trip")
	return nil
}

// SaveTrips replaces the whole trip list of a project. Inputs may keep the
// id of one of the project's current trips; the rest get fresh ids.
func (s *Service) SaveTrips(ctx context.Context, tenantID, projectID string, inputs []TripInput) (*Project, error) {
	var saved *Project
	err := s.mutate(ctx, tenantID, projectID, func(proj *Project) error {
		current := make(map[string]bool, len(proj.Trips))
		for _, t := range proj.Trips {
			current[t.ID] = true
		}
		trips, err := buildTrips(inputs, current)
		if err != nil {
			return err
		}
		proj.Trips = trips
		saved = proj
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, tenantID, projectID, activity.TypeTripsSaved, nil, fmt.Sprintf("saved %d trips", len(saved.Trips)))
	return saved, nil
}

// Progress reports delivered and in-transit pieces of a project.
func (s *Service) Progress(ctx context.Context, tenantID, id string) (Progress, error) {
	proj, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return Progress{}, err
	}
	return ComputeProgress(proj.Trips), nil
}

// ExportTrips renders a project's trips as CSV.
func (s *Service) ExportTrips(ctx context.Context, tenantID, id string) (Export, error) {
	proj, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return Export{}, err
	}

	rows := make([]codec.Row, 0, len(proj.Trips))
	for _, t := range proj.Trips {
		rows = append(rows, codec.Row{
			"tripNumber":      t.TripNumber,
			"destination":     t.Destination,
			"pieces":          strconv.Itoa(t.Pieces),
			"pieceName":       t.PieceName,
			"status":          string(t.Status),
			"departureDate":   t.DepartureDate,
			"expectedArrival": t.ExpectedArrival,
			"driver":          t.Driver,
			"truck":           t.Truck,
			"trailer":         t.Trailer,
		})
	}

	return Export{
		FileName:    "trips-" + proj.ID + ".csv",
		ContentType: "text/csv",
		Content:     codec.Encode(rows, tripColumns),
		Rows:        len(rows),
	}, nil
}

// TotalPieces sums the pieces of every trip.
func TotalPieces(trips []Trip) int64 {
	return store.Aggregate(trips, func(t Trip) any { return t.Pieces })
}

// ComputeProgress derives piece progress from trips. Percent is rounded and
// zero when there are no pieces.
func ComputeProgress(trips []Trip) Progress {
	withStatus := func(status TripStatus) func(Trip) any {
		return func(t Trip) any {
			if t.Status != status {
				return nil
			}
			return t.Pieces
		}
	}

	p := Progress{
		TotalPieces:     TotalPieces(trips),
		DeliveredPieces: store.Aggregate(trips, withStatus(TripDelivered)),
		InTransitPieces: store.Aggregate(trips, withStatus(TripInTransit)),
	}
	if p.TotalPieces > 0 {
		p.Percent = int(math.Round(float64(p.DeliveredPieces) / float64(p.TotalPieces) * 100))
	}
	return p
}

func (s *Service) mutateTrips(ctx context.Context, tenantID, projectID string, fn func([]Trip) ([]Trip, error)) error {
	return s.mutate(ctx, tenantID, projectID, func(proj *Project) error {
		trips, err := fn(proj.Trips)
		if err != nil {
			return err
		}
		proj.Trips = trips
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, tenantID, projectID string, fn func(*Project) error) error {
	unlock := s.lock(tenantID, projectID)
	defer unlock()

	proj, err := s.Get(ctx, tenantID, projectID)
	if err != nil {
		return err
	}
	if err := fn(proj); err != nil {
		return err
	}
	return s.save(ctx, tenantID, proj)
}

// lock holds the write lock of one project until the returned func runs.
func (s *Service) lock(tenantID, projectID string) func() {
	key := tenantID + "\x00" + projectID
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) save(ctx context.Context, tenantID string, proj *Project) error {
	proj.TotalPieces = TotalPieces(proj.Trips)
	proj.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, tenantID, proj); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, tenantID, projectID string, typ activity.ActivityType, recordID *string, summary string) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
		Scope:        projectID,
		RecordID:     recordID,
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    s.now(),
	}); err != nil {
		s.logger.Warn("failed to log project activity", "type", typ, "error", err)
	}
}

// buildTrips turns inputs into trips. An input id must name one of the
// current trips; new trips always get fresh ids.
func buildTrips(inputs []TripInput, current map[string]bool) ([]Trip, error) {
	trips := make([]Trip, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		if in.ID != "" {
			if !current[in.ID] {
				return nil, fmt.Errorf("%w: unknown trip id %s", ErrInvalidInput, in.ID)
			}
			if seen[in.ID] {
				return nil, fmt.Errorf("%w: duplicate trip id %s", ErrInvalidInput, in.ID)
			}
			seen[in.ID] = true
		}
		trip, err := buildTrip(in, i)
		if err != nil {
			return nil, err
		}
		if in.ID == "" {
			trips = store.Append(trips, trip)
		} else {
			trips = append(trips, trip.WithID(in.ID))
		}
	}
	return trips, nil
}

func buildTrip(in TripInput, position int) (Trip, error) {
	if in.Pieces < 0 {
		return Trip{}, fmt.Errorf("%w: pieces must not be negative", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = TripPending
	}
	if !status.Valid() {
		return Trip{}, fmt.Errorf("%w: unknown trip status %q", ErrInvalidInput, status)
	}
	number := in.TripNumber
	if strings.TrimSpace(number) == "" {
		number = TripNumber(position)
	}

	return Trip{
		TripNumber:      number,
		Destination:     in.Destination,
		Pieces:          in.Pieces,
		PieceName:       in.PieceName,
		Status:          status,
		DepartureDate:   in.DepartureDate,
		ExpectedArrival: in.ExpectedArrival,
		Driver:          in.Driver,
		Truck:           in.Truck,
		Trailer:         in.Trailer,
	}, nil
}

func (p TripPatch) apply(t Trip) (Trip, error) {
	if p.TripNumber != nil {
		t.TripNumber = *p.TripNumber
	}
	if p.Destination != nil {
		t.Destination = *p.Destination
	}
	if p.Pieces != nil {
		if *p.Pieces < 0 {
			return t, fmt.Errorf("%w: pieces must not be negative", ErrInvalidInput)
		}
		t.Pieces = *p.Pieces
	}
	if p.PieceName != nil {
		t.PieceName = *p.PieceName
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return t, fmt.Errorf("%w: unknown trip status %q", ErrInvalidInput, *p.Status)
		}
		t.Status = *p.Status
	}
	if p.DepartureDate != nil {
		t.DepartureDate = *p.DepartureDate
	}
	if p.ExpectedArrival != nil {
		t.ExpectedArrival = *p.ExpectedArrival
	}
	if p.Driver != nil {
		t.Driver = *p.Driver
	}
	if p.Truck != nil {
		t.Truck = *p.Truck
	}
	if p.Trailer != nil {
		t.Trailer = *p.Trailer
	}
	return t, nil
}
