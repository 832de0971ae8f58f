// Package availability holds per-date member availability and band events.
package availability

import (
	"sort"

	"github.com/google/uuid"

	"github.com/band-availability/backend/internal/storage/models"
)

// ChangeFunc observes the store after every mutating call.
type ChangeFunc func(snapshot models.Snapshot)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the event id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithOnChange registers the change observer at construction time.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// Store owns availability records and events for a fixed roster.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	roster   []models.Member
	members  map[models.Member]bool
	records  map[models.DateKey]models.AvailabilityRecord
	events   []models.Event
	newID    func() string
	onChange ChangeFunc
}

// NewStore creates a store for roster seeded from snapshot.
// Records left empty in the snapshot are dropped.
func NewStore(roster []models.Member, snapshot models.Snapshot, opts ...Option) (*Store, error) {
	if err := ValidateRoster(roster); err != nil {
		return nil, err
	}

	s := &Store{
		roster:  append([]models.Member(nil), roster...),
		members: make(map[models.Member]bool, len(roster)),
		records: make(map[models.DateKey]models.AvailabilityRecord, len(snapshot.Availability)),
		events:  make([]models.Event, 0, len(snapshot.Events)),
		newID:   uuid.NewString,
	}
	for _, m := range roster {
		s.members[m] = true
	}
	for d, rec := range snapshot.Availability {
		if len(rec) == 0 {
			continue
		}
		s.records[d] = rec.Clone()
	}
	s.events = append(s.events, snapshot.Events...)

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OnChange replaces the change observer. A nil fn disables notification.
func (s *Store) OnChange(fn ChangeFunc) {
	s.onChange = fn
}

// Roster returns the configured members in roster order.
func (s *Store) Roster() []models.Member {
	return append([]models.Member(nil), s.roster...)
}

// IsMember reports whether m is on the roster.
func (s *Store) IsMember(m models.Member) bool {
	return s.members[m]
}

// SetResponse records whether member is available on date.
func (s *Store) SetResponse(date models.DateKey, member models.Member, isAvailable bool) error {
	if !s.IsMember(member) {
		return &UnknownMemberError{Member: member}
	}

	rec, ok := s.records[date]
	if !ok {
		rec = make(models.AvailabilityRecord)
		s.records[date] = rec
	}
	rec[member] = isAvailable

	s.changed()
	return nil
}

// ClearResponse removes member's answer for date, dropping the date's
// record once nobody has answered.
func (s *Store) ClearResponse(date models.DateKey, member models.Member) error {
	if !s.IsMember(member) {
		return &UnknownMemberError{Member: member}
	}

	if rec, ok := s.records[date]; ok {
		delete(rec, member)
		if len(rec) == 0 {
			delete(s.records, date)
		}
	}

	s.changed()
	return nil
}

// ClearDate removes the availability record and all events of date.
func (s *Store) ClearDate(date models.DateKey) {
	delete(s.records, date)

	kept := s.events[:0]
	for _, e := range s.events {
		if e.Date != date {
			kept = append(kept, e)
		}
	}
	// Zero the tail so dropped events are not retained by the backing array.
	for i := len(kept); i < len(s.events); i++ {
		s.events[i] = models.Event{}
	}
	s.events = kept

	s.changed()
}

// Responses returns a copy of the record for date, empty if nobody answered.
func (s *Store) Responses(date models.DateKey) models.AvailabilityRecord {
	return s.records[date].Clone()
}

// Response returns member's tri-state answer for date.
func (s *Store) Response(date models.DateKey, member models.Member) models.Response {
	return s.records[date].Response(member)
}

// HasRecord reports whether anybody has answered for date.
func (s *Store) HasRecord(date models.DateKey) bool {
	_, ok := s.records[date]
	return ok
}

// AddEvent appends an event of the given type on date.
func (s *Store) AddEvent(date models.DateKey, eventType string) models.Event {
	e := models.Event{
		ID:   s.newID(),
		Date: date,
		Type: eventType,
	}
	s.events = append(s.events, e)

	s.changed()
	return e
}

// Events returns the events on date in insertion order.
func (s *Store) Events(date models.DateKey) []models.Event {
	out := []models.Event{}
	for _, e := range s.events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// EventsBetween returns events dated from start to end inclusive, in insertion order.
func (s *Store) EventsBetween(start, end models.DateKey) []models.Event {
	out := []models.Event{}
	for _, e := range s.events {
		if !e.Date.Before(start) && !end.Before(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// AllEvents returns every event in insertion order.
func (s *Store) AllEvents() []models.Event {
	return append([]models.Event{}, s.events...)
}

// HasAnyData reports whether date has an availability record or any event.
func (s *Store) HasAnyData(date models.DateKey) bool {
	if s.HasRecord(date) {
		return true
	}
	for _, e := range s.events {
		if e.Date == date {
			return true
		}
	}
	return false
}

// Dates returns every date with an availability record, in chronological order.
func (s *Store) Dates() []models.DateKey {
	dates := make([]models.DateKey, 0, len(s.records))
	for d := range s.records {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// Snapshot returns a deep copy of the store's state.
func (s *Store) Snapshot() models.Snapshot {
	return models.Snapshot{
		Availability: s.records,
		Events:       s.events,
	}.Clone()
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}
