package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sla-calendar/backend/internal/storage/models"
)

// CalendarRepository provides data access for calendars.
type CalendarRepository struct {
	BaseRepository
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *DB) *CalendarRepository {
	return &CalendarRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const calendarColumns = `id, name, timezone, business_hours, public_holidays,
	ical_url, is_default, created_by, last_sync, last_log, created_at, updated_at`

// Create inserts a new calendar. The ID is assigned here if empty.
func (r *CalendarRepository) Create(ctx context.Context, cal *models.Calendar) error {
	if cal.ID == "" {
		cal.ID = GenerateID()
	}
	cal.CreatedAt = r.Now()
	cal.UpdatedAt = cal.CreatedAt

	holidays, err := marshalHolidays(cal.PublicHolidays)
	if err != nil {
		return err
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO calendars (
			id, name, timezone, business_hours, public_holidays,
			ical_url, is_default, created_by, last_sync, last_log, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cal.ID, cal.Name, cal.Timezone, nullableRaw(cal.BusinessHours), holidays,
		cal.IcalURL, cal.Default, cal.CreatedBy, cal.LastSync, cal.LastLog,
		cal.CreatedAt, cal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}

	return nil
}

// GetByID retrieves a calendar by its ID. Returns nil when not found.
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE id = ?`, id)
	return scanCalendar(row)
}

// GetByName retrieves a calendar by its unique name. Returns nil when not found.
func (r *CalendarRepository) GetByName(ctx context.Context, name string) (*models.Calendar, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE name = ?`, name)
	return scanCalendar(row)
}

// GetDefault retrieves the calendar currently marked default, or nil.
func (r *CalendarRepository) GetDefault(ctx context.Context) (*models.Calendar, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE is_default = 1 LIMIT 1`)
	return scanCalendar(row)
}

// GetBootstrapped retrieves the calendar created by the first-run
// bootstrapper, identified by the default flag plus the system ownership
// marker. Returns nil when none exists.
func (r *CalendarRepository) GetBootstrapped(ctx context.Context) (*models.Calendar, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE is_default = 1 AND created_by = ? LIMIT 1`,
		models.CreatedBySystem)
	return scanCalendar(row)
}

// FirstCreated retrieves the earliest-created calendar, ties broken by id.
// Returns nil when the collection is empty.
func (r *CalendarRepository) FirstCreated(ctx context.Context) (*models.Calendar, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars ORDER BY created_at ASC, id ASC LIMIT 1`)
	return scanCalendar(row)
}

// List retrieves all calendars ordered by name.
func (r *CalendarRepository) List(ctx context.Context) ([]models.Calendar, error) {
	rows, err := r.DB().QueryContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying calendars: %w", err)
	}
	defer rows.Close()

	var calendars []models.Calendar
	for rows.Next() {
		cal, err := scanCalendarRow(rows)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, *cal)
	}

	return calendars, rows.Err()
}

// Update persists all mutable fields of an existing calendar.
func (r *CalendarRepository) Update(ctx context.Context, cal *models.Calendar) error {
	cal.UpdatedAt = r.Now()

	holidays, err := marshalHolidays(cal.PublicHolidays)
	if err != nil {
		return err
	}

	result, err := r.DB().ExecContext(ctx, `
		UPDATE calendars SET
			name = ?, timezone = ?, business_hours = ?, public_holidays = ?,
			ical_url = ?, is_default = ?, created_by = ?, last_sync = ?, last_log = ?,
			updated_at = ?
		WHERE id = ?
	`,
		cal.Name, cal.Timezone, nullableRaw(cal.BusinessHours), holidays,
		cal.IcalURL, cal.Default, cal.CreatedBy, cal.LastSync, cal.LastLog,
		cal.UpdatedAt, cal.ID,
	)
	if err != nil {
		return fmt.Errorf("updating calendar: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar not found: %s", cal.ID)
	}

	return nil
}

// Delete removes a calendar by ID.
func (r *CalendarRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting calendar: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar not found: %s", id)
	}

	return nil
}

// Exists reports whether a calendar with the given id exists.
func (r *CalendarRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.DB().QueryRowContext(ctx,
		"SELECT 1 FROM calendars WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying calendar existence: %w", err)
	}
	return true, nil
}

// UniqueName returns candidate if no calendar uses it yet, otherwise the
// first "candidate (n)" variant that is free.
func (r *CalendarRepository) UniqueName(ctx context.Context, candidate string) (string, error) {
	name := candidate
	for n := 1; ; n++ {
		existing, err := r.GetByName(ctx, name)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return name, nil
		}
		name = fmt.Sprintf("%s (%d)", candidate, n)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalendar(row *sql.Row) (*models.Calendar, error) {
	cal, err := scanCalendarRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cal, err
}

func scanCalendarRow(row rowScanner) (*models.Calendar, error) {
	cal := &models.Calendar{}
	var businessHours, lastLog sql.NullString
	var lastSync sql.NullTime
	var holidays string

	err := row.Scan(
		&cal.ID, &cal.Name, &cal.Timezone, &businessHours, &holidays,
		&cal.IcalURL, &cal.Default, &cal.CreatedBy, &lastSync, &lastLog,
		&cal.CreatedAt, &cal.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning calendar: %w", err)
	}

	if businessHours.Valid && businessHours.String != "" {
		cal.BusinessHours = []byte(businessHours.String)
	}
	if lastSync.Valid {
		t := lastSync.Time
		cal.LastSync = &t
	}
	if lastLog.Valid {
		s := lastLog.String
		cal.LastLog = &s
	}
	if holidays != "" {
		if err := json.Unmarshal([]byte(holidays), &cal.PublicHolidays); err != nil {
			return nil, fmt.Errorf("decoding public holidays: %w", err)
		}
	}

	return cal, nil
}

func marshalHolidays(m models.HolidayMap) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding public holidays: %w", err)
	}
	return string(data), nil
}

func nullableRaw(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
