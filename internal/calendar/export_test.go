package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

func TestExport(t *testing.T) {
	feed := Feed{
		Name: "Zenekar",
		Events: []models.Event{
			{ID: "e1", Date: "2024-05-01", Type: "Próba"},
			{ID: "e2", Date: "2024-05-31", Type: "Koncert"},
		},
		Suggestions: []suggest.Suggestion{
			{
				Date: "2024-05-10",
				Classification: suggest.Classification{
					AvailableMembers: []models.Member{"Andrew", "Sanya", "Patrick"},
					AllAvailable:     true,
				},
			},
			{
				Date: "2024-05-11",
				Classification: suggest.Classification{
					AvailableMembers: []models.Member{"Andrew"},
					PendingMembers:   []models.Member{"Sanya", "Patrick"},
				},
			},
		},
		Stamp: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := Export(&buf, feed); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	body := buf.String()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProductID,
		"METHOD:PUBLISH",
		"SUMMARY:Próba",
		"SUMMARY:Koncert",
		"DTSTART;VALUE=DATE:20240501",
		"DTEND;VALUE=DATE:20240502",
		"DTSTART;VALUE=DATE:20240531",
		"DTEND;VALUE=DATE:20240601",
		"STATUS:CONFIRMED",
		"STATUS:TENTATIVE",
		"DTSTART;VALUE=DATE:20240510",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	if strings.Contains(body, "20240511") {
		t.Error("dates with pending members must not be exported")
	}

	parsed, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	if n := len(parsed.Events()); n != 3 {
		t.Fatalf("expected 3 events, got %d", n)
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, Feed{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.Contains(buf.String(), "BEGIN:VEVENT") {
		t.Fatal("empty feed should have no events")
	}
}
