// Package models contains the domain models for the application.
package models

import (
	"encoding/json"
	"time"
)

// Calendar represents a business-hours calendar used by the SLA engine.
// BusinessHours is stored verbatim; the sync engine never inspects it.
type Calendar struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Timezone       string          `json:"timezone"`
	BusinessHours  json.RawMessage `json:"business_hours,omitempty"`
	PublicHolidays HolidayMap      `json:"public_holidays"`
	IcalURL        string          `json:"ical_url,omitempty"`
	Default        bool            `json:"default"`
	CreatedBy      string          `json:"created_by,omitempty"`
	LastSync       *time.Time      `json:"last_sync,omitempty"`
	LastLog        *string         `json:"last_log,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreatedBySystem marks calendars created by the first-run bootstrapper.
const CreatedBySystem = "system"

// HolidayEntry is a single public-holiday record keyed by ISO date.
// Active is a pointer on purpose: a nil flag means the entry has never been
// explicitly activated or deactivated. Once the flag is set, by a user or a
// prior sync, the entry is user-owned and feed syncs leave it alone. Feed is
// the fingerprint of the feed URL that produced the entry; it is empty for
// entries a user created by hand.
type HolidayEntry struct {
	Active  *bool  `json:"active,omitempty"`
	Summary string `json:"summary"`
	Feed    string `json:"feed,omitempty"`
}

// IsActive reports whether the date is treated as a holiday.
func (e HolidayEntry) IsActive() bool {
	return e.Active != nil && *e.Active
}

// Flagged reports whether the entry carries an explicit active flag.
func (e HolidayEntry) Flagged() bool {
	return e.Active != nil
}

// HolidayMap maps ISO dates ("2006-01-02") to holiday entries.
type HolidayMap map[string]HolidayEntry

// Clone returns a deep copy of the map. A nil map clones to nil.
func (m HolidayMap) Clone() HolidayMap {
	if m == nil {
		return nil
	}
	out := make(HolidayMap, len(m))
	for day, entry := range m {
		if entry.Active != nil {
			v := *entry.Active
			entry.Active = &v
		}
		out[day] = entry
	}
	return out
}

// Bool returns a pointer to b, for building HolidayEntry values.
func Bool(b bool) *bool {
	return &b
}

// SyncResult describes the outcome of one calendar sync attempt.
type SyncResult struct {
	CalendarID   string    `json:"calendar_id"`
	CalendarName string    `json:"calendar_name"`
	Skipped      bool      `json:"skipped"`
	DatesAdded   int       `json:"dates_added"`
	DatesRemoved int       `json:"dates_removed"`
	Error        error     `json:"-"`
	SyncedAt     time.Time `json:"synced_at"`
}
