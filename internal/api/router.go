// Package api provides HTTP routing for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/band-availability/backend/internal/api/handlers"
	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/calendar"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage"
	"github.com/band-availability/backend/internal/websocket"
)

// Services are the dependencies the routes are built on.
type Services struct {
	Planner      *planner.Planner
	DB           *storage.DB
	Hub          *websocket.Hub
	Digest       handlers.DigestInfo
	Importer     *calendar.Importer
	CalendarName string
	StaticDir    string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	if s.Importer == nil {
		s.Importer = calendar.NewImporter()
	}

	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.Planner, s.Hub, s.Digest)).Methods("GET")

	// WebSocket endpoint
	if s.Hub != nil {
		api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")
	}

	api.HandleFunc("/roster", handlers.GetRoster(s.Planner)).Methods("GET")

	// Day endpoints
	api.HandleFunc("/days/{date}", handlers.GetDay(s.Planner)).Methods("GET")
	api.HandleFunc("/days/{date}", handlers.ClearDay(s.Planner)).Methods("DELETE")
	api.HandleFunc("/days/{date}/members/{member}", handlers.SetMemberResponse(s.Planner)).Methods("PUT")
	api.HandleFunc("/days/{date}/members/{member}", handlers.ClearMemberResponse(s.Planner)).Methods("DELETE")
	api.HandleFunc("/days/{date}/events", handlers.ListDayEvents(s.Planner)).Methods("GET")
	api.HandleFunc("/days/{date}/events", handlers.CreateDayEvent(s.Planner)).Methods("POST")
	api.HandleFunc("/days/{date}/classification", handlers.GetClassification(s.Planner)).Methods("GET")

	api.HandleFunc("/months/{year:[0-9]{4}}/{month:[0-9]{1,2}}", handlers.GetMonth(s.Planner)).Methods("GET")
	api.HandleFunc("/suggestions", handlers.ListSuggestions(s.Planner)).Methods("GET")

	// Exports
	api.HandleFunc("/snapshot", handlers.ExportSnapshot(s.Planner)).Methods("GET")
	api.HandleFunc("/calendar.ics", handlers.CalendarFeed(s.Planner, s.CalendarName)).Methods("GET")
	api.HandleFunc("/calendar/import", handlers.ImportCalendar(s.Planner, s.Importer)).Methods("POST")

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No such endpoint")
	})

	// Serve static frontend files
	if s.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.StaticDir)))
	}

	return r
}
