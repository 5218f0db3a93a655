// Package calendar implements holiday-feed synchronization, the
// single-default-calendar invariant, and calendar lifecycle orchestration.
package calendar

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sla-calendar/backend/internal/feed"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
)

// Cache is the TTL cache collaborator used to rate-limit feed syncs and
// first-run bootstrapping. Sync workers call it concurrently, so
// implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any, ttl time.Duration)
}

// Feeds change rarely; absent errors a calendar is fetched at most once per
// five days. Errors are never cached, so a failing feed retries every pass.
const syncCacheTTL = 5 * 24 * time.Hour

const defaultSyncWorkers = 4

// syncCacheEntry records what the last successful sync produced.
type syncCacheEntry struct {
	IcalURL  string
	Holidays models.HolidayMap
}

func syncCacheKey(calendarID string) string {
	return "calendar-ical:" + calendarID
}

// SyncService fetches each calendar's iCal feed and merges the extracted
// holidays into its public-holiday map.
type SyncService struct {
	calendars *storage.CalendarRepository
	fetcher   *feed.Fetcher
	cache     Cache
	workers   int
	now       func() time.Time
}

// NewSyncService creates a sync service. workers bounds how many calendars a
// SyncAll pass fetches concurrently.
func NewSyncService(calendars *storage.CalendarRepository, fetcher *feed.Fetcher, cache Cache, workers int) *SyncService {
	if workers <= 0 {
		workers = defaultSyncWorkers
	}
	return &SyncService{
		calendars: calendars,
		fetcher:   fetcher,
		cache:     cache,
		workers:   workers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sync runs one fetch+merge attempt for a calendar.
//
// A calendar without a feed URL is skipped. The cache gate skips the attempt
// entirely when a prior sync for the same URL is still fresh and no error is
// pending. Fetch and parse failures are recorded in last_log, never returned:
// the calendar stays usable with stale holiday data. last_sync is stamped on
// every attempt, success or not.
//
// With persist false the mutated calendar is not written; the caller owns
// persistence (used when sync runs inside a create/update that saves anyway).
// The returned error covers persistence failures only.
func (s *SyncService) Sync(ctx context.Context, cal *models.Calendar, persist bool) (*models.SyncResult, error) {
	result := &models.SyncResult{
		CalendarID:   cal.ID,
		CalendarName: cal.Name,
		SyncedAt:     s.now(),
	}

	if cal.IcalURL == "" {
		result.Skipped = true
		return result, nil
	}

	key := syncCacheKey(cal.ID)
	if cal.LastLog == nil {
		if v, ok := s.cache.Get(key); ok {
			if entry, ok := v.(syncCacheEntry); ok && entry.IcalURL == cal.IcalURL {
				result.Skipped = true
				return result, nil
			}
		}
	}

	if err := s.attempt(ctx, cal, result); err != nil {
		msg := err.Error()
		cal.LastLog = &msg
		result.Error = err
	} else {
		cal.LastLog = nil
		s.cache.Put(key, syncCacheEntry{
			IcalURL:  cal.IcalURL,
			Holidays: cal.PublicHolidays.Clone(),
		}, syncCacheTTL)
	}

	now := s.now()
	cal.LastSync = &now

	if persist {
		if err := s.calendars.Update(ctx, cal); err != nil {
			return result, fmt.Errorf("persisting calendar after sync: %w", err)
		}
	}

	return result, nil
}

// attempt runs fetch -> extract -> merge. The holiday map is only touched
// after extraction succeeded, keeping failed attempts all-or-nothing.
func (s *SyncService) attempt(ctx context.Context, cal *models.Calendar, result *models.SyncResult) error {
	body, err := s.fetcher.Fetch(ctx, cal.IcalURL)
	if err != nil {
		return err
	}

	events, err := feed.Extract(body, s.now())
	if err != nil {
		return err
	}

	merged, added, removed := mergeHolidays(cal.PublicHolidays, events, feed.Fingerprint(cal.IcalURL))
	cal.PublicHolidays = merged
	result.DatesAdded = added
	result.DatesRemoved = removed
	return nil
}

// SyncAll syncs every calendar through a bounded worker pool. Calendars are
// independent units of work; only the persistence layer is shared, and single
// record writes are atomic. Per-calendar failures are reported in the result
// slice, not as an error.
func (s *SyncService) SyncAll(ctx context.Context) ([]models.SyncResult, error) {
	calendars, err := s.calendars.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}

	results := make([]models.SyncResult, len(calendars))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range calendars {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			cal := calendars[i]
			res, err := s.Sync(ctx, &cal, true)
			if err != nil {
				log.Printf("Calendar sync failed for %s (%s): %v", cal.ID, cal.Name, err)
				res.Error = err
			}
			results[i] = *res
		}(i)
	}

	wg.Wait()
	return results, nil
}
