// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage"
	"github.com/band-availability/backend/internal/suggest"
	"github.com/band-availability/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	DBConnected  bool   `json:"db_connected"`
	StoredDates  int    `json:"stored_dates"`
	StoredEvents int    `json:"stored_events"`
}

// HealthCheck returns a handler that performs a health check.
// The database counts as connected once the stored snapshot can be read.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	var snapshots *storage.SnapshotRepository
	if db != nil {
		snapshots = storage.NewSnapshotRepository(db)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var response HealthResponse
		if snapshots != nil {
			dates, events, err := snapshots.Counts(r.Context())
			if err != nil {
				log.Printf("Health check failed: %v", err)
			} else {
				response.DBConnected = true
				response.StoredDates = dates
				response.StoredEvents = events
			}
		}

		response.Status = "healthy"
		code := http.StatusOK
		if !response.DBConnected {
			response.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		middleware.WriteJSON(w, code, response)
	}
}

// DigestInfo reports the state of the suggestion digest job.
type DigestInfo interface {
	NextRun() *time.Time
	LastRun() (time.Time, []suggest.Suggestion)
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Members          int        `json:"members"`
	DatesWithAnswers int        `json:"dates_with_answers"`
	Events           int        `json:"events"`
	ConnectedClients int        `json:"connected_clients"`
	HorizonMonths    int        `json:"horizon_months"`
	LastDigestAt     *time.Time `json:"last_digest_at,omitempty"`
	NextDigestAt     *time.Time `json:"next_digest_at,omitempty"`
}

// Status returns a handler that provides system status information.
// digest may be nil when no digest job runs.
func Status(p *planner.Planner, hub *websocket.Hub, digest DigestInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, events := p.Stats()

		response := StatusResponse{
			Members:          len(p.Roster()),
			DatesWithAnswers: dates,
			Events:           events,
			HorizonMonths:    p.Horizon(),
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}
		if digest != nil {
			response.NextDigestAt = digest.NextRun()
			if last, _ := digest.LastRun(); !last.IsZero() {
				response.LastDigestAt = &last
			}
		}

		middleware.WriteJSON(w, http.StatusOK, response)
	}
}
