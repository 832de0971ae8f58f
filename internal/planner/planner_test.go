package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/band-availability/backend/internal/availability"
	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

var testRoster = []models.Member{"Andrew", "Sanya", "Patrick"}

type memPersister struct {
	saved []models.Snapshot
	err   error
}

func (m *memPersister) Save(_ context.Context, snap models.Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, snap)
	return nil
}

type notice struct {
	kind   string
	date   models.DateKey
	member models.Member
	resp   models.Response
	status string
}

type fakeNotifier struct {
	notices []notice
}

func (f *fakeNotifier) BroadcastAvailabilityChanged(date models.DateKey, member models.Member, response models.Response, status string) {
	f.notices = append(f.notices, notice{kind: "availability", date: date, member: member, resp: response, status: status})
}

func (f *fakeNotifier) BroadcastEventCreated(event models.Event) {
	f.notices = append(f.notices, notice{kind: "event", date: event.Date})
}

func (f *fakeNotifier) BroadcastDateCleared(date models.DateKey) {
	f.notices = append(f.notices, notice{kind: "cleared", date: date})
}

func newTestPlanner(t *testing.T) (*Planner, *memPersister, *fakeNotifier) {
	t.Helper()
	persister := &memPersister{}
	notifier := &fakeNotifier{}
	p, err := New(testRoster, models.NewSnapshot(), WithPersister(persister), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, persister, notifier
}

func TestNewRejectsEmptyRoster(t *testing.T) {
	_, err := New(nil, models.NewSnapshot())
	var cfgErr *availability.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestMutationsPersistAndNotify(t *testing.T) {
	p, persister, notifier := newTestPlanner(t)
	ctx := context.Background()

	if err := p.SetResponse(ctx, "2024-05-01", "Andrew", true); err != nil {
		t.Fatalf("SetResponse() error = %v", err)
	}
	if _, err := p.AddEvent(ctx, "2024-05-01", "  "); err != nil {
		t.Fatalf("AddEvent() error = %v", err)
	}
	if err := p.ClearResponse(ctx, "2024-05-01", "Andrew"); err != nil {
		t.Fatalf("ClearResponse() error = %v", err)
	}
	if err := p.ClearDate(ctx, "2024-05-01"); err != nil {
		t.Fatalf("ClearDate() error = %v", err)
	}

	if len(persister.saved) != 4 {
		t.Fatalf("expected 4 persisted snapshots, got %d", len(persister.saved))
	}
	if ev := persister.saved[1].Events; len(ev) != 1 || ev[0].Type != models.EventTypeRehearsal {
		t.Fatalf("blank event type should default to rehearsal, got %v", ev)
	}
	if last := persister.saved[3]; len(last.Availability) != 0 || len(last.Events) != 0 {
		t.Fatalf("expected empty final snapshot, got %+v", last)
	}

	want := []notice{
		{kind: "availability", date: "2024-05-01", member: "Andrew", resp: models.ResponseAvailable, status: suggest.StatusPending},
		{kind: "event", date: "2024-05-01"},
		{kind: "availability", date: "2024-05-01", member: "Andrew", resp: models.ResponsePending},
		{kind: "cleared", date: "2024-05-01"},
	}
	if len(notifier.notices) != len(want) {
		t.Fatalf("expected %d notices, got %+v", len(want), notifier.notices)
	}
	for i := range want {
		if notifier.notices[i] != want[i] {
			t.Fatalf("notice %d = %+v, want %+v", i, notifier.notices[i], want[i])
		}
	}
}

func TestUnknownMemberNotPersisted(t *testing.T) {
	p, persister, notifier := newTestPlanner(t)

	err := p.SetResponse(context.Background(), "2024-05-01", "Ringo", true)
	var unknown *availability.UnknownMemberError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMemberError, got %v", err)
	}
	if len(persister.saved) != 0 || len(notifier.notices) != 0 {
		t.Fatal("rejected mutation must not persist or notify")
	}
}

func TestPersistErrorIsReturned(t *testing.T) {
	persister := &memPersister{err: errors.New("disk full")}
	notifier := &fakeNotifier{}
	p, err := New(testRoster, models.NewSnapshot(), WithPersister(persister), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.SetResponse(context.Background(), "2024-05-01", "Andrew", true); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(notifier.notices) != 0 {
		t.Fatal("unpersisted change must not be broadcast")
	}
}

func TestDay(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	p.SetResponse(ctx, "2024-05-01", "Sanya", false)
	p.AddEvent(ctx, "2024-05-01", "Koncert")

	day := p.Day("2024-05-01")
	if !day.HasAnyData || len(day.Events) != 1 {
		t.Fatalf("unexpected day %+v", day)
	}
	if len(day.Responses) != 3 {
		t.Fatalf("expected a response per roster member, got %v", day.Responses)
	}
	if day.Responses[0].Response != models.ResponsePending || day.Responses[1].Response != models.ResponseUnavailable {
		t.Fatalf("unexpected responses %v", day.Responses)
	}
	if day.Classification == nil || day.Status != suggest.StatusPending {
		t.Fatalf("expected pending classification, got %+v", day)
	}

	empty := p.Day("2024-05-02")
	if empty.HasAnyData || empty.Classification != nil || len(empty.Events) != 0 {
		t.Fatalf("unexpected empty day %+v", empty)
	}
}

func TestMonth(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	ctx := context.Background()
	p.SetResponse(ctx, "2024-02-29", "Andrew", true)
	p.AddEvent(ctx, "2024-02-01", "Próba")
	p.SetResponse(ctx, "2024-03-01", "Andrew", true)
	p.SetResponse(ctx, "2024-01-31", "Andrew", true)

	days, err := p.Month(2024, 2)
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}
	if len(days) != 2 || days[0].Date != "2024-02-01" || days[1].Date != "2024-02-29" {
		t.Fatalf("unexpected days %+v", days)
	}

	if _, err := p.Month(2024, 13); err == nil {
		t.Fatal("expected error for month 13")
	}
}

func TestUpcomingUsesHorizon(t *testing.T) {
	p, err := New(testRoster, models.NewSnapshot(), WithHorizon(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	p.SetResponse(ctx, "2024-05-20", "Andrew", true)
	p.SetResponse(ctx, "2024-06-20", "Andrew", true)

	if got := p.Upcoming("2024-05-01", 0); len(got) != 1 {
		t.Fatalf("expected one suggestion within a month, got %v", got)
	}
	if got := p.Upcoming("2024-05-01", 2); len(got) != 2 {
		t.Fatalf("expected two suggestions within two months, got %v", got)
	}
	if p.Horizon() != 1 {
		t.Fatalf("unexpected horizon %d", p.Horizon())
	}
}

func TestSnapshotSeeding(t *testing.T) {
	snap := models.NewSnapshot()
	snap.Availability["2024-05-01"] = models.AvailabilityRecord{"Andrew": true, "Sanya": true, "Patrick": true}
	snap.Events = []models.Event{{ID: "e1", Date: "2024-05-01", Type: "Próba"}}

	p, err := New(testRoster, snap)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !p.Snapshot().Equal(snap) {
		t.Fatal("planner snapshot differs from seed")
	}
	c, ok := p.Classify("2024-05-01")
	if !ok || !c.AllAvailable {
		t.Fatalf("unexpected classification %+v", c)
	}
	dates, events := p.Stats()
	if dates != 1 || events != 1 {
		t.Fatalf("Stats() = %d, %d", dates, events)
	}
}

func TestImportEventsSkipsDuplicates(t *testing.T) {
	p, persister, notifier := newTestPlanner(t)
	ctx := context.Background()
	if _, err := p.AddEvent(ctx, "2024-05-18", "Koncert"); err != nil {
		t.Fatalf("AddEvent() error = %v", err)
	}

	added, err := p.ImportEvents(ctx, []NewEvent{
		{Date: "2024-05-18", Type: "Koncert"},
		{Date: "2024-05-18", Type: ""},
		{Date: "2024-05-25", Type: "Fesztivál"},
		{Date: "2024-05-25", Type: "Fesztivál"},
	})
	if err != nil {
		t.Fatalf("ImportEvents() error = %v", err)
	}
	if len(added) != 2 || added[0].Type != models.EventTypeRehearsal || added[1].Date != "2024-05-25" {
		t.Fatalf("unexpected imported events %+v", added)
	}
	if len(persister.saved) != 2 {
		t.Fatalf("expected one save per call, got %d", len(persister.saved))
	}
	if len(notifier.notices) != 3 {
		t.Fatalf("expected a notice per created event, got %d", len(notifier.notices))
	}
	if events := p.Events("2024-05-18"); len(events) != 2 {
		t.Fatalf("unexpected events %+v", events)
	}
}
