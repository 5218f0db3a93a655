package calendar

import (
	"context"
	"fmt"

	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
)

// Pipeline is the single entry point for calendar mutations. Every stage is
// explicit so ordering and failure propagation are visible and testable:
//
//	create: validate holidays -> in-memory sync -> persist -> enforce default
//	update: validate holidays -> in-memory sync -> persist -> enforce default
//	delete: destroy -> enforce default (a destroy never re-syncs)
//
// Sync runs in-memory here because the persist stage saves the calendar
// anyway; feed failures end up in last_log like any other sync attempt.
type Pipeline struct {
	calendars *storage.CalendarRepository
	sync      *SyncService
	enforcer  *DefaultEnforcer
}

// NewPipeline creates a calendar mutation pipeline.
func NewPipeline(calendars *storage.CalendarRepository, sync *SyncService, enforcer *DefaultEnforcer) *Pipeline {
	return &Pipeline{
		calendars: calendars,
		sync:      sync,
		enforcer:  enforcer,
	}
}

// Create validates, syncs, and persists a new calendar, then enforces the
// default invariant.
func (p *Pipeline) Create(ctx context.Context, cal *models.Calendar) error {
	validateHolidays(cal, nil)

	if _, err := p.sync.Sync(ctx, cal, false); err != nil {
		return err
	}

	if err := p.calendars.Create(ctx, cal); err != nil {
		return err
	}

	return p.enforcer.Enforce(ctx, cal)
}

// Update validates against the stored record (restoring feed provenance the
// client does not send back), syncs, persists, and enforces.
func (p *Pipeline) Update(ctx context.Context, cal *models.Calendar) error {
	before, err := p.calendars.GetByID(ctx, cal.ID)
	if err != nil {
		return err
	}
	if before == nil {
		return fmt.Errorf("calendar not found: %s", cal.ID)
	}

	validateHolidays(cal, before)

	if _, err := p.sync.Sync(ctx, cal, false); err != nil {
		return err
	}

	if err := p.calendars.Update(ctx, cal); err != nil {
		return err
	}

	return p.enforcer.Enforce(ctx, cal)
}

// Delete destroys a calendar and enforces the default invariant, promoting a
// new default and repairing SLA references if needed.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	if err := p.calendars.Delete(ctx, id); err != nil {
		return err
	}

	return p.enforcer.Enforce(ctx, nil)
}
