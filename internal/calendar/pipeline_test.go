package calendar

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sla-calendar/backend/internal/feed"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
)

func newTestPipeline(t *testing.T) (*Pipeline, *storage.CalendarRepository, *storage.SLARepository) {
	t.Helper()
	_, calendars, slas := newTestDB(t)
	sync := NewSyncService(calendars, feed.NewFetcher(5*time.Second), newFakeCache(), 2)
	sync.now = func() time.Time { return syncNow }
	enforcer := NewDefaultEnforcer(calendars, slas, nil)
	return NewPipeline(calendars, sync, enforcer), calendars, slas
}

func TestPipelineCreate_FirstCalendarBecomesDefault(t *testing.T) {
	pipeline, calendars, _ := newTestPipeline(t)
	ctx := context.Background()

	cal := &models.Calendar{Name: "US", Timezone: "America/Chicago"}
	if err := pipeline.Create(ctx, cal); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	def, err := calendars.GetDefault(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def == nil || def.ID != cal.ID {
		t.Error("Expected the only calendar to be promoted to default")
	}
}

func TestPipelineCreate_SyncsFeedBeforePersist(t *testing.T) {
	server, _ := newFeedServer(t, http.StatusOK, testFeedBody)
	pipeline, calendars, _ := newTestPipeline(t)
	ctx := context.Background()

	cal := &models.Calendar{Name: "US", Timezone: "UTC", IcalURL: server.URL}
	if err := pipeline.Create(ctx, cal); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stored, err := calendars.GetByID(ctx, cal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PublicHolidays["2025-12-25"].Summary != "Christmas" {
		t.Errorf("Expected the feed synced into the stored record, got %v", stored.PublicHolidays)
	}
}

func TestPipelineUpdate_KeepsUserDeactivationAcrossSync(t *testing.T) {
	server, _ := newFeedServer(t, http.StatusOK, testFeedBody)
	pipeline, calendars, _ := newTestPipeline(t)
	ctx := context.Background()

	cal := &models.Calendar{Name: "US", Timezone: "UTC", IcalURL: server.URL}
	if err := pipeline.Create(ctx, cal); err != nil {
		t.Fatal(err)
	}

	// Client sends the entry back deactivated and without provenance.
	updated := &models.Calendar{
		ID:       cal.ID,
		Name:     cal.Name,
		Timezone: cal.Timezone,
		IcalURL:  cal.IcalURL,
		PublicHolidays: models.HolidayMap{
			"2025-12-25": {Active: models.Bool(false), Summary: "Christmas"},
		},
	}
	if err := pipeline.Update(ctx, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := calendars.GetByID(ctx, cal.ID)
	if err != nil {
		t.Fatal(err)
	}
	entry := stored.PublicHolidays["2025-12-25"]
	if entry.IsActive() {
		t.Error("Expected the deactivation to survive the update's sync")
	}
	if entry.Feed != feed.Fingerprint(server.URL) {
		t.Errorf("Expected feed provenance restored from the stored record, got %q", entry.Feed)
	}
}

func TestPipelineUpdate_UnknownCalendar(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)

	err := pipeline.Update(context.Background(), &models.Calendar{ID: "missing", Name: "X", Timezone: "UTC"})
	if err == nil {
		t.Error("Expected an error for an unknown calendar")
	}
}

func TestPipelineDelete_PromotesNewDefaultAndRepairsSLAs(t *testing.T) {
	pipeline, calendars, slas := newTestPipeline(t)
	ctx := context.Background()

	first := &models.Calendar{Name: "First", Timezone: "UTC", Default: true}
	second := &models.Calendar{Name: "Second", Timezone: "UTC"}
	for _, cal := range []*models.Calendar{first, second} {
		if err := pipeline.Create(ctx, cal); err != nil {
			t.Fatal(err)
		}
	}
	sla := &models.SLA{Name: "Support", CalendarID: first.ID}
	if err := slas.Create(ctx, sla); err != nil {
		t.Fatal(err)
	}

	if err := pipeline.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	def, err := calendars.GetDefault(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def == nil || def.ID != second.ID {
		t.Error("Expected the remaining calendar promoted to default")
	}

	repaired, err := slas.GetByID(ctx, sla.ID)
	if err != nil {
		t.Fatal(err)
	}
	if repaired.CalendarID != second.ID {
		t.Errorf("Expected the SLA repointed at the new default, got %q", repaired.CalendarID)
	}
}
