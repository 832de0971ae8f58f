package handlers

import (
	"net/http"
	"strconv"

	"github.com/band-availability/backend/internal/api/middleware"
	"github.com/band-availability/backend/internal/planner"
	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// SuggestionsResponse lists ranked candidate dates for a range.
type SuggestionsResponse struct {
	From        models.DateKey       `json:"from"`
	To          models.DateKey       `json:"to"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// ListSuggestions ranks the answered dates between the from and to query
// parameters. Without a range it looks ahead from today, over the months
// query parameter or the configured horizon.
func ListSuggestions(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rawFrom, rawTo := q.Get("from"), q.Get("to")

		if rawFrom == "" && rawTo == "" {
			months := p.Horizon()
			if raw := q.Get("months"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 || n > 24 {
					middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "months must be between 1 and 24")
					return
				}
				months = n
			}

			today := models.Today()
			middleware.WriteJSON(w, http.StatusOK, SuggestionsResponse{
				From:        today,
				To:          today.AddMonths(months),
				Suggestions: p.Upcoming(today, months),
			})
			return
		}

		if rawFrom == "" || rawTo == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "from and to must be given together")
			return
		}
		from, err := models.ParseDateKey(rawFrom)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid from date "+rawFrom)
			return
		}
		to, err := models.ParseDateKey(rawTo)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid to date "+rawTo)
			return
		}

		middleware.WriteJSON(w, http.StatusOK, SuggestionsResponse{
			From:        from,
			To:          to,
			Suggestions: p.Suggest(from, to),
		})
	}
}
