// Package calendar renders band events and suggested dates as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// ProductID identifies this application in exported feeds.
const ProductID = "-//band-availability//Planner//HU"

// Feed describes what goes into an exported calendar.
type Feed struct {
	Name        string
	Events      []models.Event
	Suggestions []suggest.Suggestion
	// Stamp is written as DTSTAMP on every component. Zero means now.
	Stamp time.Time
}

// Export writes the feed as an iCalendar document.
// Events become confirmed all-day entries. Suggested dates where everyone
// is available become tentative all-day entries.
func Export(w io.Writer, feed Feed) error {
	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	if feed.Name != "" {
		cal.SetName(feed.Name)
		cal.SetXWRCalName(feed.Name)
	}

	for _, e := range feed.Events {
		start := e.Date.Time()
		if start.IsZero() {
			continue
		}

		ev := cal.AddEvent(e.ID + "@band-availability")
		ev.SetDtStampTime(stamp)
		ev.SetSummary(e.Type)
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ev.SetStatus(ical.ObjectStatusConfirmed)
	}

	for _, s := range feed.Suggestions {
		if !s.AllAvailable {
			continue
		}
		start := s.Date.Time()
		if start.IsZero() {
			continue
		}

		ev := cal.AddEvent("suggestion-" + string(s.Date) + "@band-availability")
		ev.SetDtStampTime(stamp)
		ev.SetSummary("Mindenki ráér")
		ev.SetDescription("Elérhető tagok: " + joinMembers(s.AvailableMembers))
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ev.SetStatus(ical.ObjectStatusTentative)
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serializing calendar: %w", err)
	}
	return nil
}

func joinMembers(members []models.Member) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
