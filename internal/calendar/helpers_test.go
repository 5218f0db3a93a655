package calendar

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sla-calendar/backend/internal/geo"
	"github.com/sla-calendar/backend/internal/storage"
)

// newTestDB opens a throwaway database with the schema applied.
func newTestDB(t *testing.T) (*storage.DB, *storage.CalendarRepository, *storage.SLARepository) {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db, storage.NewCalendarRepository(db), storage.NewSLARepository(db)
}

// setCreatedAt backdates a calendar so promotion ordering is deterministic.
func setCreatedAt(t *testing.T, db *storage.DB, calendarID string, at time.Time) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(),
		"UPDATE calendars SET created_at = ? WHERE id = ?", at.UTC(), calendarID); err != nil {
		t.Fatalf("Failed to set created_at: %v", err)
	}
}

// fakeCache is an in-memory Cache that ignores TTLs. Sync workers hit it
// concurrently, so it locks like the production store does.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]any
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]any)}
}

func (c *fakeCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Put(key string, value any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// fakeGeo returns a canned suggestion and records the IPs it was asked about.
type fakeGeo struct {
	suggestion *geo.Suggestion
	err        error
	calls      []string
}

func (g *fakeGeo) Suggest(_ context.Context, ip string) (*geo.Suggestion, error) {
	g.calls = append(g.calls, ip)
	return g.suggestion, g.err
}
