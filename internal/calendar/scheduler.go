package calendar

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/sla-calendar/backend/internal/websocket"
)

// Scheduler runs the periodic sync-all pass.
type Scheduler struct {
	cron        *cron.Cron
	sync        *SyncService
	broadcaster *websocket.EventBroadcaster
	spec        string
}

// NewScheduler creates a scheduler that syncs all calendars on the given
// cron spec (e.g. "@every 12h"). hub may be nil.
func NewScheduler(sync *SyncService, hub *websocket.Hub, spec string) *Scheduler {
	if spec == "" {
		spec = "@every 12h"
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:        cron.New(),
		sync:        sync,
		broadcaster: broadcaster,
		spec:        spec,
	}
}

// Start begins the periodic sync job.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runSyncAll); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Calendar sync scheduler started (%s)", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running pass.
func (s *Scheduler) Stop() {
	log.Println("Stopping calendar sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Calendar sync scheduler stopped")
}

// TriggerSyncAll runs a sync-all pass in the background.
func (s *Scheduler) TriggerSyncAll() {
	go s.runSyncAll()
}

func (s *Scheduler) runSyncAll() {
	ctx := context.Background()

	results, err := s.sync.SyncAll(ctx)
	if err != nil {
		log.Printf("Sync-all pass failed: %v", err)
		return
	}

	for _, result := range results {
		if result.Skipped {
			continue
		}
		if result.Error != nil {
			log.Printf("Calendar sync error for %s (%s): %v", result.CalendarID, result.CalendarName, result.Error)
			if s.broadcaster != nil {
				s.broadcaster.BroadcastSyncError(result.CalendarID, result.CalendarName, result.Error)
			}
			continue
		}
		log.Printf("Calendar sync completed for %s (%s): %d dates added, %d removed",
			result.CalendarID, result.CalendarName, result.DatesAdded, result.DatesRemoved)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastSyncCompleted(result)
		}
	}
}
