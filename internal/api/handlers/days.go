package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/availability"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// SetResponseRequest is the body of PUT /days/{date}/members/{member}.
type SetResponseRequest struct {
	Available *bool `json:"available"`
}

// CreateEventRequest is the body of POST /days/{date}/events.
type CreateEventRequest struct {
	Type string `json:"type"`
}

// dateParam parses the {date} route variable, writing a 400 on failure.
func dateParam(w http.ResponseWriter, r *http.Request) (models.DateKey, bool) {
	raw := mux.Vars(r)["date"]
	date, err := models.ParseDateKey(raw)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid date "+raw+", expected YYYY-MM-DD")
		return "", false
	}
	return date, true
}

// writeMutationError maps a planner error to a response.
func writeMutationError(w http.ResponseWriter, err error) {
	var unknown *availability.UnknownMemberError
	if errors.As(err, &unknown) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrUnknownMember, unknown.Error())
		return
	}
	log.Printf("Error saving change: %v", err)
	middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save change")
}

// GetDay returns every answer and event recorded for a date.
func GetDay(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p.Day(date))
	}
}

// ClearDay removes all answers and events of a date.
func ClearDay(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		if err := p.ClearDate(r.Context(), date); err != nil {
			writeMutationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetMemberResponse records a member's answer and returns the updated day.
func SetMemberResponse(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		member := models.Member(mux.Vars(r)["member"])

		var req SetResponseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Available == nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "available is required")
			return
		}

		if err := p.SetResponse(r.Context(), date, member, *req.Available); err != nil {
			writeMutationError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p.Day(date))
	}
}

// ClearMemberResponse resets a member's answer to pending and returns the
// updated day.
func ClearMemberResponse(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		member := models.Member(mux.Vars(r)["member"])

		if err := p.ClearResponse(r.Context(), date, member); err != nil {
			writeMutationError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p.Day(date))
	}
}

// ListDayEvents returns the events of a date in the order they were added.
func ListDayEvents(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p.Events(date))
	}
}

// CreateDayEvent schedules an event on a date. An empty body or blank type
// schedules a rehearsal.
func CreateDayEvent(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}

		var req CreateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		event, err := p.AddEvent(r.Context(), date, req.Type)
		if err != nil {
			writeMutationError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, event)
	}
}

// GetClassification returns how the roster splits on a date.
func GetClassification(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}

		c, ok := p.Classify(date)
		if !ok {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Nobody has answered for "+date.String())
			return
		}
		middleware.WriteJSON(w, http.StatusOK, suggest.Suggestion{Date: date, Classification: c, Status: c.Status()})
	}
}
