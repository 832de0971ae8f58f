package calendar

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/band-availability/backend/internal/storage/models"
)

// maxFeedSize caps how much of a remote feed is read.
const maxFeedSize = 4 << 20

// ImportedEvent is a single-day entry read from an external feed.
type ImportedEvent struct {
	UID     string
	Date    models.DateKey
	Summary string
}

// Importer reads events from iCalendar feeds.
type Importer struct {
	httpClient *http.Client
}

// NewImporter creates an importer with a 30 second fetch timeout.
func NewImporter() *Importer {
	return &Importer{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads and parses the feed at url.
func (im *Importer) Fetch(ctx context.Context, url string) ([]ImportedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}

	return im.Parse(io.LimitReader(resp.Body, maxFeedSize))
}

// Parse reads the VEVENTs of a feed. Each event is placed on the calendar
// date it starts on. Recurring and cancelled events are skipped.
func (im *Importer) Parse(r io.Reader) ([]ImportedEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var events []ImportedEvent
	for _, ev := range cal.Events() {
		if ev.GetProperty(ical.ComponentPropertyRrule) != nil {
			log.Printf("Skipping recurring event %s", ev.Id())
			continue
		}
		if status := ev.GetProperty(ical.ComponentPropertyStatus); status != nil && strings.EqualFold(status.Value, string(ical.ObjectStatusCancelled)) {
			continue
		}

		date, ok := startDate(ev)
		if !ok {
			log.Printf("Skipping event %s without a usable start date", ev.Id())
			continue
		}

		summary := ""
		if p := ev.GetProperty(ical.ComponentPropertySummary); p != nil {
			summary = strings.TrimSpace(p.Value)
		}
		events = append(events, ImportedEvent{UID: ev.Id(), Date: date, Summary: summary})
	}
	return events, nil
}

// startDate returns the calendar date of DTSTART. Date values are taken as
// written; date-times are converted to the local zone first.
func startDate(ev *ical.VEvent) (models.DateKey, bool) {
	prop := ev.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil {
		return "", false
	}

	if v := prop.Value; len(v) == 8 {
		t, err := time.ParseInLocation("20060102", v, time.Local)
		if err != nil {
			return "", false
		}
		return models.NewDateKey(t), true
	}

	t, err := ev.GetStartAt()
	if err != nil {
		return "", false
	}
	return models.NewDateKey(t.In(time.Local)), true
}

// FilterFrom returns the events dated on or after from.
func FilterFrom(events []ImportedEvent, from models.DateKey) []ImportedEvent {
	var kept []ImportedEvent
	for _, e := range events {
		if !e.Date.Before(from) {
			kept = append(kept, e)
		}
	}
	return kept
}
