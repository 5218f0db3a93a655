package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
	"github.com/sla-calendar/backend/internal/websocket"
)

// DefaultEnforcer maintains two collection-wide invariants after every
// calendar create, update, or destroy:
//
//   - exactly one calendar is marked default while the collection is
//     non-empty;
//   - every SLA's calendar_id resolves to an existing calendar, falling back
//     to the default calendar when unset or dangling.
//
// Passes read and mutate the whole collection's default flags, so they are
// serialized by a single mutex; two concurrent passes could otherwise race
// the invariant into zero or two defaults. Re-running against a consistent
// collection is a no-op.
type DefaultEnforcer struct {
	mu          sync.Mutex
	calendars   *storage.CalendarRepository
	slas        *storage.SLARepository
	broadcaster *websocket.EventBroadcaster
}

// NewDefaultEnforcer creates an enforcer. broadcaster may be nil.
func NewDefaultEnforcer(calendars *storage.CalendarRepository, slas *storage.SLARepository, broadcaster *websocket.EventBroadcaster) *DefaultEnforcer {
	return &DefaultEnforcer{
		calendars:   calendars,
		slas:        slas,
		broadcaster: broadcaster,
	}
}

// Enforce runs one invariant pass. changed is the calendar that was just
// created or updated, or nil after a destroy. Individual SLA repair failures
// are collected and surfaced joined; they never abort the remaining repairs.
func (e *DefaultEnforcer) Enforce(ctx context.Context, changed *models.Calendar) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if changed != nil && changed.Default {
		if err := e.clearOtherDefaults(ctx, changed.ID); err != nil {
			return err
		}
	}

	def, err := e.calendars.GetDefault(ctx)
	if err != nil {
		return fmt.Errorf("finding default calendar: %w", err)
	}

	if def == nil {
		first, err := e.calendars.FirstCreated(ctx)
		if err != nil {
			return fmt.Errorf("finding promotion candidate: %w", err)
		}
		if first == nil {
			// Empty collection: nothing to promote, nothing to repair.
			return nil
		}
		first.Default = true
		if err := e.calendars.Update(ctx, first); err != nil {
			return fmt.Errorf("promoting default calendar %s: %w", first.ID, err)
		}
		if e.broadcaster != nil {
			e.broadcaster.BroadcastDefaultChanged(first.ID, first.Name)
		}
		def = first
	}

	return e.repairSLAs(ctx, def)
}

// clearOtherDefaults demotes every calendar except keepID that still carries
// the default flag.
func (e *DefaultEnforcer) clearOtherDefaults(ctx context.Context, keepID string) error {
	all, err := e.calendars.List(ctx)
	if err != nil {
		return fmt.Errorf("listing calendars: %w", err)
	}

	for i := range all {
		cal := &all[i]
		if cal.ID == keepID || !cal.Default {
			continue
		}
		cal.Default = false
		if err := e.calendars.Update(ctx, cal); err != nil {
			return fmt.Errorf("clearing default on calendar %s: %w", cal.ID, err)
		}
	}

	return nil
}

// repairSLAs points every SLA with an unset or dangling calendar reference at
// the default calendar.
func (e *DefaultEnforcer) repairSLAs(ctx context.Context, def *models.Calendar) error {
	slas, err := e.slas.List(ctx)
	if err != nil {
		return fmt.Errorf("listing slas: %w", err)
	}

	var repairErrs []error
	for i := range slas {
		sla := &slas[i]

		if sla.CalendarID != "" {
			exists, err := e.calendars.Exists(ctx, sla.CalendarID)
			if err != nil {
				repairErrs = append(repairErrs, fmt.Errorf("checking calendar for sla %s: %w", sla.ID, err))
				continue
			}
			if exists {
				continue
			}
		}

		sla.CalendarID = def.ID
		if err := e.slas.Update(ctx, sla); err != nil {
			// A failed repair leaves a dangling reference, so it must
			// surface, but the remaining SLAs still get repaired.
			log.Printf("Failed to repair SLA %s: %v", sla.ID, err)
			repairErrs = append(repairErrs, fmt.Errorf("repairing sla %s: %w", sla.ID, err))
		}
	}

	return errors.Join(repairErrs...)
}
