// Package main is the entry point for the SLA calendar service.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sla-calendar/backend/internal/api"
	"github.com/sla-calendar/backend/internal/cache"
	"github.com/sla-calendar/backend/internal/calendar"
	"github.com/sla-calendar/backend/internal/feed"
	"github.com/sla-calendar/backend/internal/geo"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	addr := flag.String("addr", ":8080", "HTTP server address")
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	syncCron := flag.String("sync-cron", "@every 12h", "Cron spec for the periodic sync-all pass")
	syncWorkers := flag.Int("sync-workers", 4, "Concurrent calendar syncs per pass")
	fetchTimeout := flag.Duration("fetch-timeout", 30*time.Second, "Feed fetch timeout")
	geoURL := flag.String("geo-url", "https://geo.example.com/api/v1", "Geo calendar lookup service base URL")
	flag.Parse()

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting SLA calendar service (version: %s)...", version)

	dbPath := *dataDir + "/sla-calendar.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	hub := websocket.NewHub()
	go hub.Run()

	calendarRepo := storage.NewCalendarRepository(db)
	slaRepo := storage.NewSLARepository(db)

	store := cache.New()
	fetcher := feed.NewFetcher(*fetchTimeout)
	geoClient := geo.NewClient(*geoURL, 10*time.Second)

	syncService := calendar.NewSyncService(calendarRepo, fetcher, store, *syncWorkers)
	broadcaster := websocket.NewEventBroadcaster(hub)
	enforcer := calendar.NewDefaultEnforcer(calendarRepo, slaRepo, broadcaster)
	pipeline := calendar.NewPipeline(calendarRepo, syncService, enforcer)
	bootstrapper := calendar.NewBootstrapper(calendarRepo, pipeline, geoClient, store)

	scheduler := calendar.NewScheduler(syncService, hub, *syncCron)
	if err := scheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start sync scheduler: %v", err)
	}

	router := api.NewRouter(api.Services{
		DB:           db,
		Calendars:    calendarRepo,
		SLAs:         slaRepo,
		Pipeline:     pipeline,
		Sync:         syncService,
		Scheduler:    scheduler,
		Bootstrapper: bootstrapper,
		Hub:          hub,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
