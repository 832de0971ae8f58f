package handlers

import (
	"encoding/json"
	"log"
	"mime"
	"net/http"

	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/calendar"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage/models"
)

const maxImportBody = 4 << 20

// ImportRequest asks the server to fetch a remote feed.
type ImportRequest struct {
	URL string `json:"url"`
}

// ImportResponse reports what an import scheduled.
type ImportResponse struct {
	Found int            `json:"found"`
	Added []models.Event `json:"added"`
}

// ImportCalendar schedules the events of an iCalendar feed. The body is
// either the feed itself or a JSON ImportRequest naming a feed URL. The
// optional from query parameter drops events before that date. Untitled
// events are scheduled as "other" events.
func ImportCalendar(p *planner.Planner, importer *calendar.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var from models.DateKey
		if raw := r.URL.Query().Get("from"); raw != "" {
			d, err := models.ParseDateKey(raw)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid from date "+raw)
				return
			}
			from = d
		}

		body := http.MaxBytesReader(w, r.Body, maxImportBody)

		var (
			found []calendar.ImportedEvent
			err   error
		)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/json" {
			var req ImportRequest
			if err := json.NewDecoder(body).Decode(&req); err != nil || req.URL == "" {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "url is required")
				return
			}
			found, err = importer.Fetch(r.Context(), req.URL)
			if err != nil {
				middleware.WriteError(w, http.StatusBadGateway, middleware.ErrBadRequest, "Failed to fetch calendar: "+err.Error())
				return
			}
		} else {
			found, err = importer.Parse(body)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid calendar: "+err.Error())
				return
			}
		}

		if from != "" {
			found = calendar.FilterFrom(found, from)
		}

		items := make([]planner.NewEvent, len(found))
		for i, e := range found {
			eventType := e.Summary
			if eventType == "" {
				eventType = models.EventTypeOther
			}
			items[i] = planner.NewEvent{Date: e.Date, Type: eventType}
		}
		added, err := p.ImportEvents(r.Context(), items)
		if err != nil {
			log.Printf("Error importing calendar: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save imported events")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, ImportResponse{Found: len(found), Added: added})
	}
}
