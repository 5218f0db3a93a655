package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sla-calendar/backend/internal/storage/models"
)

// SLARepository provides data access for SLA policies.
type SLARepository struct {
	BaseRepository
}

// NewSLARepository creates a new SLA repository.
func NewSLARepository(db *DB) *SLARepository {
	return &SLARepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new SLA policy.
func (r *SLARepository) Create(ctx context.Context, sla *models.SLA) error {
	if sla.ID == "" {
		sla.ID = GenerateID()
	}
	sla.CreatedAt = r.Now()
	sla.UpdatedAt = sla.CreatedAt

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO slas (id, name, calendar_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sla.ID, sla.Name, nullableString(sla.CalendarID), sla.CreatedAt, sla.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting sla: %w", err)
	}

	return nil
}

// GetByID retrieves an SLA by its ID. Returns nil when not found.
func (r *SLARepository) GetByID(ctx context.Context, id string) (*models.SLA, error) {
	sla := &models.SLA{}
	var calendarID sql.NullString

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, name, calendar_id, created_at, updated_at FROM slas WHERE id = ?
	`, id).Scan(&sla.ID, &sla.Name, &calendarID, &sla.CreatedAt, &sla.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sla: %w", err)
	}

	sla.CalendarID = calendarID.String
	return sla, nil
}

// List retrieves all SLA policies ordered by name.
func (r *SLARepository) List(ctx context.Context) ([]models.SLA, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, calendar_id, created_at, updated_at FROM slas ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying slas: %w", err)
	}
	defer rows.Close()

	var slas []models.SLA
	for rows.Next() {
		var sla models.SLA
		var calendarID sql.NullString
		if err := rows.Scan(&sla.ID, &sla.Name, &calendarID, &sla.CreatedAt, &sla.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning sla: %w", err)
		}
		sla.CalendarID = calendarID.String
		slas = append(slas, sla)
	}

	return slas, rows.Err()
}

// Update persists the mutable fields of an existing SLA.
func (r *SLARepository) Update(ctx context.Context, sla *models.SLA) error {
	sla.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE slas SET name = ?, calendar_id = ?, updated_at = ? WHERE id = ?
	`, sla.Name, nullableString(sla.CalendarID), sla.UpdatedAt, sla.ID)
	if err != nil {
		return fmt.Errorf("updating sla: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("sla not found: %s", sla.ID)
	}

	return nil
}

// Delete removes an SLA by ID.
func (r *SLARepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM slas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sla: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("sla not found: %s", id)
	}

	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
