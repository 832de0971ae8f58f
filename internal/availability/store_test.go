package availability

import (
	"errors"
	"fmt"
	"testing"

	"github.com/band-availability/backend/internal/storage/models"
)

var testRoster = []models.Member{"Andrew", "Sanya", "Patrick"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(testRoster, models.NewSnapshot())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestNewStoreRejectsBadRoster(t *testing.T) {
	cases := [][]models.Member{
		nil,
		{},
		{"Andrew", "Andrew"},
		{"Andrew", ""},
	}
	for _, roster := range cases {
		_, err := NewStore(roster, models.NewSnapshot())
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("roster %v: expected ConfigurationError, got %v", roster, err)
		}
	}
}

func TestNewStoreDropsEmptyRecords(t *testing.T) {
	snap := models.NewSnapshot()
	snap.Availability["2024-05-01"] = models.AvailabilityRecord{}
	snap.Availability["2024-05-02"] = models.AvailabilityRecord{"Andrew": true}

	s, err := NewStore(testRoster, snap)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.HasRecord("2024-05-01") {
		t.Fatal("empty record should not be loaded")
	}
	if !s.HasRecord("2024-05-02") {
		t.Fatal("non-empty record should be loaded")
	}
}

func TestSetResponseTriState(t *testing.T) {
	s := newTestStore(t)
	d := models.DateKey("2024-05-01")

	if got := s.Response(d, "Andrew"); got != models.ResponsePending {
		t.Fatalf("expected pending before any answer, got %v", got)
	}
	if err := s.SetResponse(d, "Andrew", true); err != nil {
		t.Fatalf("SetResponse() error = %v", err)
	}
	if err := s.SetResponse(d, "Sanya", false); err != nil {
		t.Fatalf("SetResponse() error = %v", err)
	}

	if got := s.Response(d, "Andrew"); got != models.ResponseAvailable {
		t.Fatalf("Andrew: expected available, got %v", got)
	}
	if got := s.Response(d, "Sanya"); got != models.ResponseUnavailable {
		t.Fatalf("Sanya: expected unavailable, got %v", got)
	}
	if got := s.Response(d, "Patrick"); got != models.ResponsePending {
		t.Fatalf("Patrick: expected pending, got %v", got)
	}

	if err := s.SetResponse(d, "Sanya", true); err != nil {
		t.Fatalf("SetResponse() overwrite error = %v", err)
	}
	if got := s.Response(d, "Sanya"); got != models.ResponseAvailable {
		t.Fatalf("Sanya: expected overwrite to available, got %v", got)
	}
}

func TestUnknownMemberLeavesRecordUnchanged(t *testing.T) {
	s := newTestStore(t)
	d := models.DateKey("2024-05-01")
	s.SetResponse(d, "Andrew", true)

	notified := 0
	s.OnChange(func(models.Snapshot) { notified++ })

	if s.IsMember("Ringo") || !s.IsMember("Andrew") {
		t.Fatal("IsMember does not match the roster")
	}

	var unknown *UnknownMemberError
	if err := s.SetResponse(d, "Ringo", true); !errors.As(err, &unknown) {
		t.Fatalf("SetResponse: expected UnknownMemberError, got %v", err)
	}
	if err := s.ClearResponse(d, "Ringo"); !errors.As(err, &unknown) {
		t.Fatalf("ClearResponse: expected UnknownMemberError, got %v", err)
	}
	if unknown.Member != "Ringo" {
		t.Fatalf("unexpected member in error: %q", unknown.Member)
	}
	if notified != 0 {
		t.Fatalf("rejected calls must not notify, got %d", notified)
	}

	rec := s.Responses(d)
	if len(rec) != 1 || !rec["Andrew"] {
		t.Fatalf("record changed: %v", rec)
	}
}

func TestClearResponseRemovesEmptyRecord(t *testing.T) {
	s := newTestStore(t)
	d := models.DateKey("2024-05-01")
	s.SetResponse(d, "Andrew", true)
	s.AddEvent(d, "Próba")

	if err := s.ClearResponse(d, "Andrew"); err != nil {
		t.Fatalf("ClearResponse() error = %v", err)
	}

	if rec := s.Responses(d); len(rec) != 0 {
		t.Fatalf("expected empty responses, got %v", rec)
	}
	if _, ok := s.Snapshot().Availability[d]; ok {
		t.Fatal("date key should be absent from the snapshot")
	}
	if !s.HasAnyData(d) {
		t.Fatal("event should still count as data")
	}

	s.ClearDate(d)
	if s.HasAnyData(d) {
		t.Fatal("expected no data after ClearDate")
	}
}

func TestClearResponseKeepsOtherAnswers(t *testing.T) {
	s := newTestStore(t)
	d := models.DateKey("2024-05-01")
	s.SetResponse(d, "Andrew", true)
	s.SetResponse(d, "Sanya", false)

	s.ClearResponse(d, "Andrew")

	rec := s.Responses(d)
	if len(rec) != 1 || rec["Sanya"] != false {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestClearNoOps(t *testing.T) {
	s := newTestStore(t)
	notified := 0
	s.OnChange(func(models.Snapshot) { notified++ })

	if err := s.ClearResponse("2024-05-01", "Andrew"); err != nil {
		t.Fatalf("ClearResponse() on missing entry error = %v", err)
	}
	s.ClearDate("2024-05-01")

	if s.HasAnyData("2024-05-01") {
		t.Fatal("no-op clears must not create data")
	}
	if notified != 2 {
		t.Fatalf("expected every mutating call to notify, got %d", notified)
	}
}

func TestClearDateRemovesOnlyThatDate(t *testing.T) {
	s := newTestStore(t)
	s.SetResponse("2024-05-01", "Andrew", true)
	s.SetResponse("2024-05-02", "Andrew", true)
	first := s.AddEvent("2024-05-01", "Próba")
	other := s.AddEvent("2024-05-02", "Koncert")
	second := s.AddEvent("2024-05-01", "Buli")

	s.ClearDate("2024-05-01")

	if s.HasRecord("2024-05-01") {
		t.Fatal("record should be removed")
	}
	if got := s.Events("2024-05-01"); len(got) != 0 {
		t.Fatalf("expected no events, got %v (removed %s and %s)", got, first.ID, second.ID)
	}
	if got := s.AllEvents(); len(got) != 1 || got[0] != other {
		t.Fatalf("unexpected remaining events %v", got)
	}
	if !s.HasRecord("2024-05-02") {
		t.Fatal("other date should survive")
	}
}

func TestEventsInsertionOrderAndUniqueIDs(t *testing.T) {
	s := newTestStore(t)
	d := models.DateKey("2024-05-01")

	seen := make(map[string]bool)
	var added []models.Event
	for i := 0; i < 20; i++ {
		e := s.AddEvent(d, fmt.Sprintf("event-%d", i))
		if seen[e.ID] {
			t.Fatalf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true
		added = append(added, e)
	}

	got := s.Events(d)
	if len(got) != len(added) {
		t.Fatalf("expected %d events, got %d", len(added), len(got))
	}
	for i := range got {
		if got[i] != added[i] {
			t.Fatalf("event %d out of order: %v != %v", i, got[i], added[i])
		}
	}
}

func TestEventsBetween(t *testing.T) {
	s := newTestStore(t)
	s.AddEvent("2024-04-30", "a")
	s.AddEvent("2024-05-01", "b")
	s.AddEvent("2024-05-31", "c")
	s.AddEvent("2024-06-01", "d")

	got := s.EventsBetween("2024-05-01", "2024-05-31")
	if len(got) != 2 || got[0].Type != "b" || got[1].Type != "c" {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestResponsesReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	s.SetResponse("2024-05-01", "Andrew", true)

	rec := s.Responses("2024-05-01")
	rec["Sanya"] = false

	if s.Response("2024-05-01", "Sanya") != models.ResponsePending {
		t.Fatal("mutating the returned record must not affect the store")
	}
}

func TestOnChangeReceivesSnapshot(t *testing.T) {
	var last models.Snapshot
	s, err := NewStore(testRoster, models.NewSnapshot(),
		WithOnChange(func(snap models.Snapshot) { last = snap }),
		WithIDGenerator(func() string { return "fixed" }),
	)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	s.SetResponse("2024-05-01", "Andrew", true)
	s.AddEvent("2024-05-01", "Próba")

	if !last.Equal(s.Snapshot()) {
		t.Fatalf("observer snapshot %+v differs from store %+v", last, s.Snapshot())
	}
	if last.Events[0].ID != "fixed" {
		t.Fatalf("expected injected id, got %q", last.Events[0].ID)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.SetResponse("2024-05-01", "Andrew", true)
	s.SetResponse("2024-05-01", "Sanya", false)
	s.SetResponse("2024-05-03", "Patrick", true)
	s.AddEvent("2024-05-01", "Próba")
	s.AddEvent("2024-05-09", "Koncert")
	s.ClearResponse("2024-05-03", "Patrick")

	snap := s.Snapshot()
	reloaded, err := NewStore(testRoster, snap)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if !reloaded.Snapshot().Equal(snap) {
		t.Fatalf("round trip mismatch: %+v vs %+v", reloaded.Snapshot(), snap)
	}
}

func TestDatesSorted(t *testing.T) {
	s := newTestStore(t)
	s.SetResponse("2024-06-01", "Andrew", true)
	s.SetResponse("2024-05-01", "Andrew", true)
	s.SetResponse("2024-05-15", "Andrew", true)

	got := s.Dates()
	want := []models.DateKey{"2024-05-01", "2024-05-15", "2024-06-01"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
