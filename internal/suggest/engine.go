// Package suggest ranks candidate dates by how many members can make them.
package suggest

import (
	"sort"

	"github.com/band-availability/backend/internal/storage/models"
)

// DefaultHorizonMonths is how far ahead Upcoming looks when no horizon is given.
const DefaultHorizonMonths = 2

// Status values summarizing a classification.
const (
	StatusAllAvailable = "all_available"
	StatusPending      = "pending"
	StatusUnavailable  = "unavailable"
)

// Source is the read-only view of availability the engine needs.
type Source interface {
	Roster() []models.Member
	Responses(date models.DateKey) models.AvailabilityRecord
	HasRecord(date models.DateKey) bool
}

// DateLister is implemented by sources that can list their answered dates
// in chronological order. Suggest then visits only those dates.
type DateLister interface {
	Dates() []models.DateKey
}

// Classification splits the roster by answer for one date.
type Classification struct {
	AvailableMembers   []models.Member `json:"available_members"`
	UnavailableMembers []models.Member `json:"unavailable_members"`
	PendingMembers     []models.Member `json:"pending_members"`
	AllAvailable       bool            `json:"all_available"`
}

// Status is StatusAllAvailable when everyone can make it, StatusPending
// while answers are missing and StatusUnavailable otherwise.
func (c Classification) Status() string {
	switch {
	case c.AllAvailable:
		return StatusAllAvailable
	case len(c.PendingMembers) > 0:
		return StatusPending
	default:
		return StatusUnavailable
	}
}

// Suggestion is a classified candidate date.
type Suggestion struct {
	Date models.DateKey `json:"date"`
	Classification
	Status string `json:"status"`
}

// Engine computes classifications and suggestions. It never mutates its source.
type Engine struct {
	source Source
}

// NewEngine creates an engine reading from source.
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Classify partitions the roster by their answers for date.
// It returns false when nobody has answered, since such a date carries no signal.
func (e *Engine) Classify(date models.DateKey) (Classification, bool) {
	if !e.source.HasRecord(date) {
		return Classification{}, false
	}

	roster := e.source.Roster()
	rec := e.source.Responses(date)

	c := Classification{
		AvailableMembers:   []models.Member{},
		UnavailableMembers: []models.Member{},
		PendingMembers:     []models.Member{},
	}
	for _, m := range roster {
		switch rec.Response(m) {
		case models.ResponseAvailable:
			c.AvailableMembers = append(c.AvailableMembers, m)
		case models.ResponseUnavailable:
			c.UnavailableMembers = append(c.UnavailableMembers, m)
		default:
			c.PendingMembers = append(c.PendingMembers, m)
		}
	}
	c.AllAvailable = len(c.AvailableMembers) == len(roster)

	return c, true
}

// Suggest classifies every date from start to end inclusive and ranks the
// answered ones: fully available dates first, then by fewest pending
// members, then chronologically. Bounds are normalized like ParseDateKey;
// an inverted or unparsable range yields no suggestions.
func (e *Engine) Suggest(start, end models.DateKey) []Suggestion {
	out := []Suggestion{}
	from, err := models.ParseDateKey(string(start))
	if err != nil {
		return out
	}
	to, err := models.ParseDateKey(string(end))
	if err != nil || to.Before(from) {
		return out
	}

	e.eachDate(from, to, func(d models.DateKey) {
		if c, ok := e.Classify(d); ok {
			out = append(out, Suggestion{Date: d, Classification: c, Status: c.Status()})
		}
	})

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AllAvailable != b.AllAvailable {
			return a.AllAvailable
		}
		return len(a.PendingMembers) < len(b.PendingMembers)
	})

	return out
}

// eachDate calls fn for every date from start to end inclusive in order.
// Sources listing their answered dates are walked directly.
func (e *Engine) eachDate(start, end models.DateKey, fn func(models.DateKey)) {
	if lister, ok := e.source.(DateLister); ok {
		for _, d := range lister.Dates() {
			if !d.Before(start) && !end.Before(d) {
				fn(d)
			}
		}
		return
	}

	last := end.Time()
	for t := start.Time(); !t.After(last); t = t.AddDate(0, 0, 1) {
		fn(models.NewDateKey(t))
	}
}

// Upcoming suggests dates from today through the same day months later.
func (e *Engine) Upcoming(today models.DateKey, months int) []Suggestion {
	if months <= 0 {
		months = DefaultHorizonMonths
	}
	return e.Suggest(today, today.AddMonths(months))
}
