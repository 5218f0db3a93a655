package calendar

import (
	"github.com/sla-calendar/backend/internal/feed"
	"github.com/sla-calendar/backend/internal/storage/models"
)

// mergeHolidays reconciles extracted feed events with the calendar's current
// holiday map. Rules, in order:
//
//  1. Entries produced by a feed whose fingerprint differs from the current
//     one are pruned; the feed URL changed and they are no longer trusted.
//  2. Dates missing from the map are added active with the current
//     fingerprint.
//  3. Entries that already carry an explicit active flag are left untouched.
//     A user deactivating a holiday must survive every later sync.
//  4. Entries without a fingerprint are user-created and never pruned or
//     overwritten.
//
// The input map is modified in place (a nil map is allocated); callers run
// this only after a successful fetch and extract, so a failed attempt never
// leaves a partial merge behind.
func mergeHolidays(existing models.HolidayMap, extracted map[string]string, fingerprint string) (models.HolidayMap, int, int) {
	if existing == nil {
		existing = models.HolidayMap{}
	}

	removed := 0
	for day, entry := range existing {
		if entry.Feed == "" {
			continue
		}
		if entry.Feed != fingerprint {
			delete(existing, day)
			removed++
		}
	}

	added := 0
	for _, day := range feed.SortedDates(extracted) {
		if entry, ok := existing[day]; ok && entry.Flagged() {
			continue
		}
		existing[day] = models.HolidayEntry{
			Active:  models.Bool(true),
			Summary: extracted[day],
			Feed:    fingerprint,
		}
		added++
	}

	return existing, added, removed
}

// validateHolidays normalizes a calendar's holiday map before it is saved:
// feed provenance is restored from the stored record (clients do not send it
// back), and every entry gets an explicit active flag. After this runs, every
// persisted entry is flagged, which is what makes it user-owned for future
// merges.
func validateHolidays(cal *models.Calendar, before *models.Calendar) {
	for day, entry := range cal.PublicHolidays {
		if before != nil {
			if prev, ok := before.PublicHolidays[day]; ok && prev.Feed != "" {
				entry.Feed = prev.Feed
			}
		}
		if entry.Active == nil {
			entry.Active = models.Bool(false)
		}
		cal.PublicHolidays[day] = entry
	}
}
