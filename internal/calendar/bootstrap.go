package calendar

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/sla-calendar/backend/internal/geo"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
)

// GeoService suggests an initial calendar for a client IP. A nil suggestion
// means the lookup had nothing to offer.
type GeoService interface {
	Suggest(ctx context.Context, ip string) (*geo.Suggestion, error)
}

const (
	setupCacheKey = "calendar:init-setup"
	setupCacheTTL = time.Hour
)

// Bootstrapper performs the one-shot first-run setup: it asks the geo
// collaborator for a calendar suggestion and creates or refreshes the
// system-owned default calendar from it.
type Bootstrapper struct {
	calendars *storage.CalendarRepository
	pipeline  *Pipeline
	geo       GeoService
	cache     Cache
}

// NewBootstrapper creates a bootstrapper.
func NewBootstrapper(calendars *storage.CalendarRepository, pipeline *Pipeline, geoService GeoService, cache Cache) *Bootstrapper {
	return &Bootstrapper{
		calendars: calendars,
		pipeline:  pipeline,
		geo:       geoService,
		cache:     cache,
	}
}

// Setup runs the bootstrap for a client IP. Private and loopback addresses
// carry no geo signal and are anonymized. A single process-wide cache entry
// rate-limits repeat calls for the same IP to once per hour; the limiting is
// deliberately coarse so repeated first-page loads do not hammer the geo
// service. Returns the created or refreshed calendar, or nil when the call
// was a no-op.
func (b *Bootstrapper) Setup(ctx context.Context, ip string) (*models.Calendar, error) {
	if ip != "" && !isPublicIP(ip) {
		ip = ""
	}

	if v, ok := b.cache.Get(setupCacheKey); ok {
		if last, ok := v.(string); ok && last == ip {
			return nil, nil
		}
	}
	b.cache.Put(setupCacheKey, ip, setupCacheTTL)

	suggestion, err := b.geo.Suggest(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("geo lookup: %w", err)
	}
	if suggestion == nil {
		return nil, nil
	}

	existing, err := b.calendars.GetBootstrapped(ctx)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Name != suggestion.Name {
			name, err := b.calendars.UniqueName(ctx, suggestion.Name)
			if err != nil {
				return nil, err
			}
			existing.Name = name
		}
		existing.Timezone = suggestion.Timezone
		existing.IcalURL = suggestion.IcalURL
		existing.Default = true
		return existing, b.pipeline.Update(ctx, existing)
	}

	name, err := b.calendars.UniqueName(ctx, suggestion.Name)
	if err != nil {
		return nil, err
	}

	cal := &models.Calendar{
		Name:      name,
		Timezone:  suggestion.Timezone,
		IcalURL:   suggestion.IcalURL,
		Default:   true,
		CreatedBy: models.CreatedBySystem,
	}
	return cal, b.pipeline.Create(ctx, cal)
}

// isPublicIP reports whether ip parses to a routable public address.
// Loopback, RFC1918, link-local, and unspecified addresses all count as "no
// IP" for lookup purposes.
func isPublicIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified())
}
