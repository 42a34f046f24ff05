package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project together with its trips
func (r *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (
			id, tenant_id, name, description, status, priority,
			location, total_pieces, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		proj.ID,
		tenantID,
		proj.Name,
		proj.Description,
		proj.Status,
		proj.Priority,
		proj.Location,
		proj.TotalPieces,
		proj.CreatedAt,
		proj.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := insertTrips(ctx, tx, tenantID, proj.ID, proj.Trips); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a project and its trips by ID
func (r *ProjectRepository) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	query := `
		SELECT id, tenant_id, name, description, status, priority,
		       location, total_pieces, created_at, updated_at
		FROM projects
		WHERE id = ? AND tenant_id = ?
	`

	var proj project.Project
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&proj.ID,
		&proj.TenantID,
		&proj.Name,
		&proj.Description,
		&proj.Status,
		&proj.Priority,
		&proj.Location,
		&proj.TotalPieces,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	trips, err := r.listTrips(ctx, tenantID, proj.ID)
	if err != nil {
		return nil, err
	}
	proj.Trips = trips

	return &proj, nil
}

// List returns all projects for a tenant with summary information, newest
// first
func (r *ProjectRepository) List(ctx context.Context, tenantID string) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id,
			p.name,
			p.description,
			p.status,
			p.priority,
			p.location,
			p.total_pieces,
			p.created_at,
			COUNT(t.id) as trip_count
		FROM projects p
		LEFT JOIN trips t ON t.project_id = p.id AND t.tenant_id = p.tenant_id
		WHERE p.tenant_id = ?
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	summaries := []project.ProjectSummary{}
	for rows.Next() {
		var summary project.ProjectSummary
		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Description,
			&summary.Status,
			&summary.Priority,
			&summary.Location,
			&summary.TotalPieces,
			&summary.CreatedAt,
			&summary.TripCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// Update writes the project fields and replaces its trip list
func (r *ProjectRepository) Update(ctx context.Context, tenantID string, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE projects
		SET name = ?, description = ?, status = ?, priority = ?,
		    location = ?, total_pieces = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		proj.Name,
		proj.Description,
		proj.Status,
		proj.Priority,
		proj.Location,
		proj.TotalPieces,
		proj.UpdatedAt,
		proj.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trips WHERE project_id = ? AND tenant_id = ?`,
		proj.ID, tenantID,
	); err != nil {
		return fmt.Errorf("failed to clear trips: %w", err)
	}
	if err := insertTrips(ctx, tx, tenantID, proj.ID, proj.Trips); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a project; its trips go with it
func (r *ProjectRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) listTrips(ctx context.Context, tenantID, projectID string) ([]project.Trip, error) {
	query := `
		SELECT id, trip_number, destination, pieces, piece_name, status,
		       departure_date, expected_arrival, driver, truck, trailer
		FROM trips
		WHERE project_id = ? AND tenant_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []project.Trip{}
	for rows.Next() {
		var t project.Trip
		if err := rows.Scan(
			&t.ID,
			&t.TripNumber,
			&t.Destination,
			&t.Pieces,
			&t.PieceName,
			&t.Status,
			&t.DepartureDate,
			&t.ExpectedArrival,
			&t.Driver,
			&t.Truck,
			&t.Trailer,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}

	return trips, nil
}

func insertTrips(ctx context.Context, tx *sql.Tx, tenantID, projectID string, trips []project.Trip) error {
	query := `
		INSERT INTO trips (
			id, tenant_id, project_id, position, trip_number, destination,
			pieces, piece_name, status, departure_date, expected_arrival,
			driver, truck, trailer
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, t := range trips {
		_, err := tx.ExecContext(ctx, query,
			t.ID,
			tenantID,
			projectID,
			i,
			t.TripNumber,
			t.Destination,
			t.Pieces,
			t.PieceName,
			t.Status,
			t.DepartureDate,
			t.ExpectedArrival,
			t.Driver,
			t.Truck,
			t.Trailer,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("duplicate trip id %s: %w", t.ID, repository.ErrConflict)
			}
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to insert trip: %w", err)
		}
	}
	return nil
}
