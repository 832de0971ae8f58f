package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/planner"
)

// GetMonth returns the days of a month that have answers or events.
func GetMonth(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		year, err := strconv.Atoi(vars["year"])
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid year")
			return
		}
		month, err := strconv.Atoi(vars["month"])
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid month")
			return
		}

		days, err := p.Month(year, month)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}
		middleware.WriteJSON(w, http.StatusOK, days)
	}
}
