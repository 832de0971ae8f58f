package handlers

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/calendar"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage/models"
)

// RosterResponse describes the configured band.
type RosterResponse struct {
	Members       []models.Member `json:"members"`
	HorizonMonths int             `json:"horizon_months"`
}

// GetRoster returns the roster in display order.
func GetRoster(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, RosterResponse{
			Members:       p.Roster(),
			HorizonMonths: p.Horizon(),
		})
	}
}

// ExportSnapshot returns every answer and event as one document.
func ExportSnapshot(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="band-availability.json"`)
		middleware.WriteJSON(w, http.StatusOK, p.Snapshot())
	}
}

// CalendarFeed serves scheduled events and fully available upcoming dates
// as an iCalendar feed.
func CalendarFeed(p *planner.Planner, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed := calendar.Feed{
			Name:        name,
			Events:      p.Snapshot().Events,
			Suggestions: p.Upcoming(models.Today(), 0),
			Stamp:       time.Now().UTC(),
		}

		var buf bytes.Buffer
		if err := calendar.Export(&buf, feed); err != nil {
			log.Printf("Error exporting calendar: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to export calendar")
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="band-availability.ics"`)
		w.Write(buf.Bytes())
	}
}
