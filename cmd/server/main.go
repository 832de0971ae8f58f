// Package main is the entry point for the band availability server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/band-availability/backend/internal/api"
	"github.com/band-availability/backend/internal/config"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage"
	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
	"github.com/band-availability/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	configPath := flag.String("config", "/data/config.yaml", "Path to the YAML configuration file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dataDir := flag.String("data", "", "Data directory for the SQLite database (overrides config)")
	staticDir := flag.String("static", "", "Directory for static frontend files (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(cfg, *addr, *dataDir, *staticDir)

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Listen); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// applyFlags overrides cfg with the command-line values that were given.
func applyFlags(cfg *config.Config, addr, dataDir, staticDir string) {
	if addr != "" {
		cfg.Listen = addr
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if staticDir != "" {
		cfg.StaticDir = staticDir
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Printf("Starting band availability planner (version: %s)...", version)

	db, err := storage.OpenInDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Println("Database migrations complete")

	roster := cfg.Members()
	if err := syncRoster(ctx, storage.NewSettingsRepository(db), roster); err != nil {
		return err
	}

	snapshots := storage.NewSnapshotRepository(db)
	snap, err := snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading saved answers: %w", err)
	}
	log.Printf("Loaded %d dates with answers and %d events", len(snap.Availability), len(snap.Events))

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)
	broadcaster := websocket.NewEventBroadcaster(hub)

	p, err := planner.New(roster, snap,
		planner.WithPersister(snapshots),
		planner.WithNotifier(broadcaster),
		planner.WithHorizon(cfg.SuggestionHorizonMonths),
	)
	if err != nil {
		return err
	}

	digest := suggest.NewDigestScheduler(p, broadcaster, cfg.DigestSchedule, cfg.SuggestionHorizonMonths)
	if err := digest.Start(); err != nil {
		log.Printf("Warning: Failed to start suggestion digest: %v", err)
	}
	defer digest.Stop()

	router := api.NewRouter(api.Services{
		Planner:      p,
		DB:           db,
		Hub:          hub,
		Digest:       digest,
		CalendarName: cfg.CalendarName,
		StaticDir:    cfg.StaticDir,
	})

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// syncRoster records the configured roster, warning when it differs from the
// one the saved answers were collected for.
func syncRoster(ctx context.Context, settings *storage.SettingsRepository, roster []models.Member) error {
	stored, err := settings.Roster(ctx)
	if err != nil {
		return fmt.Errorf("reading stored roster: %w", err)
	}
	if slices.Equal(stored, roster) {
		return nil
	}

	if stored != nil {
		var dropped []string
		for _, m := range stored {
			if !slices.Contains(roster, m) {
				dropped = append(dropped, string(m))
			}
		}
		log.Printf("Warning: roster changed since last start")
		if len(dropped) > 0 {
			log.Printf("Warning: answers of %s are kept but no longer counted", strings.Join(dropped, ", "))
		}
	}

	if err := settings.SetRoster(ctx, roster); err != nil {
		return fmt.Errorf("storing roster: %w", err)
	}
	return nil
}

// healthURL turns a listen address into the local health endpoint URL.
func healthURL(addr string) string {
	host := addr
	if strings.HasPrefix(addr, ":") {
		host = "localhost" + addr
	}
	return "http://" + host + "/api/health"
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthURL(addr))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned %s", resp.Status)
	}
	return nil
}
