package calendar

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sla-calendar/backend/internal/feed"
	"github.com/sla-calendar/backend/internal/geo"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
)

func newTestBootstrapper(t *testing.T, geoService *fakeGeo) (*Bootstrapper, *storage.CalendarRepository, *storage.SLARepository) {
	t.Helper()
	_, calendars, slas := newTestDB(t)
	cache := newFakeCache()
	sync := NewSyncService(calendars, feed.NewFetcher(5*time.Second), cache, 2)
	sync.now = func() time.Time { return syncNow }
	enforcer := NewDefaultEnforcer(calendars, slas, nil)
	pipeline := NewPipeline(calendars, sync, enforcer)
	return NewBootstrapper(calendars, pipeline, geoService, cache), calendars, slas
}

func TestSetup_CreatesSystemDefaultCalendar(t *testing.T) {
	server, _ := newFeedServer(t, http.StatusOK, testFeedBody)
	geoService := &fakeGeo{suggestion: &geo.Suggestion{
		Name:     "United States",
		Timezone: "America/Chicago",
		IcalURL:  server.URL,
	}}
	bootstrapper, calendars, _ := newTestBootstrapper(t, geoService)
	ctx := context.Background()

	cal, err := bootstrapper.Setup(ctx, "203.0.113.10")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if cal == nil {
		t.Fatal("Expected a calendar to be created")
	}

	if cal.Name != "United States" || cal.Timezone != "America/Chicago" {
		t.Errorf("Unexpected calendar: %+v", cal)
	}
	if !cal.Default || cal.CreatedBy != models.CreatedBySystem {
		t.Errorf("Expected a system-owned default calendar, got default=%v created_by=%q", cal.Default, cal.CreatedBy)
	}
	if len(cal.PublicHolidays) == 0 {
		t.Error("Expected the suggested feed to be synced during bootstrap")
	}

	stored, err := calendars.GetBootstrapped(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.ID != cal.ID {
		t.Error("Expected the bootstrapped calendar to be retrievable")
	}
}

func TestSetup_RefreshesExistingBootstrapCalendar(t *testing.T) {
	geoService := &fakeGeo{suggestion: &geo.Suggestion{Name: "United States", Timezone: "America/Chicago"}}
	bootstrapper, _, _ := newTestBootstrapper(t, geoService)
	ctx := context.Background()

	first, err := bootstrapper.Setup(ctx, "203.0.113.10")
	if err != nil {
		t.Fatal(err)
	}

	geoService.suggestion = &geo.Suggestion{Name: "Germany", Timezone: "Europe/Berlin"}
	second, err := bootstrapper.Setup(ctx, "198.51.100.7")
	if err != nil {
		t.Fatal(err)
	}

	if second == nil {
		t.Fatal("Expected the bootstrap calendar to be refreshed")
	}
	if second.ID != first.ID {
		t.Error("Expected the existing system calendar to be updated in place, not replaced")
	}
	if second.Name != "Germany" || second.Timezone != "Europe/Berlin" {
		t.Errorf("Expected the refreshed suggestion applied, got %+v", second)
	}
}

func TestSetup_RateLimitsRepeatCalls(t *testing.T) {
	geoService := &fakeGeo{suggestion: &geo.Suggestion{Name: "United States", Timezone: "America/Chicago"}}
	bootstrapper, _, _ := newTestBootstrapper(t, geoService)
	ctx := context.Background()

	if _, err := bootstrapper.Setup(ctx, "203.0.113.10"); err != nil {
		t.Fatal(err)
	}
	cal, err := bootstrapper.Setup(ctx, "203.0.113.10")
	if err != nil {
		t.Fatal(err)
	}

	if cal != nil {
		t.Error("Expected a repeat call for the same IP to be a no-op")
	}
	if len(geoService.calls) != 1 {
		t.Errorf("Expected 1 geo lookup, got %d", len(geoService.calls))
	}
}

func TestSetup_AnonymizesNonPublicIPs(t *testing.T) {
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.5", "::1", "not-an-ip"} {
		geoService := &fakeGeo{}
		bootstrapper, _, _ := newTestBootstrapper(t, geoService)

		if _, err := bootstrapper.Setup(context.Background(), ip); err != nil {
			t.Fatalf("Setup(%s) failed: %v", ip, err)
		}
		if len(geoService.calls) != 1 || geoService.calls[0] != "" {
			t.Errorf("Expected %s to be anonymized before the geo lookup, got %v", ip, geoService.calls)
		}
	}
}

func TestSetup_NoSuggestionIsNoOp(t *testing.T) {
	geoService := &fakeGeo{}
	bootstrapper, calendars, _ := newTestBootstrapper(t, geoService)
	ctx := context.Background()

	cal, err := bootstrapper.Setup(ctx, "203.0.113.10")
	if err != nil {
		t.Fatal(err)
	}
	if cal != nil {
		t.Error("Expected no calendar without a suggestion")
	}

	all, err := calendars.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("Expected an empty collection, got %d calendars", len(all))
	}
}

func TestSetup_UniquifiesConflictingName(t *testing.T) {
	geoService := &fakeGeo{suggestion: &geo.Suggestion{Name: "United States", Timezone: "America/Chicago"}}
	bootstrapper, calendars, _ := newTestBootstrapper(t, geoService)
	ctx := context.Background()

	existing := &models.Calendar{Name: "United States", Timezone: "UTC"}
	if err := calendars.Create(ctx, existing); err != nil {
		t.Fatal(err)
	}

	cal, err := bootstrapper.Setup(ctx, "203.0.113.10")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if cal == nil {
		t.Fatal("Expected a calendar to be created")
	}
	if cal.Name == "United States" {
		t.Error("Expected the bootstrap calendar to get a uniquified name")
	}
}
