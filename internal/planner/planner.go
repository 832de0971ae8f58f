// Package planner is the service facade the API uses: it owns the
// availability store and suggestion engine, persists every change and
// broadcasts it to connected clients.
package planner

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/band-availability/backend/internal/availability"
	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// Persister writes a snapshot to durable storage.
type Persister interface {
	Save(ctx context.Context, snap models.Snapshot) error
}

// Notifier is told about changes after they have been persisted.
type Notifier interface {
	BroadcastAvailabilityChanged(date models.DateKey, member models.Member, response models.Response, status string)
	BroadcastEventCreated(event models.Event)
	BroadcastDateCleared(date models.DateKey)
}

// MemberResponse is one roster member's answer for a day.
type MemberResponse struct {
	Member   models.Member   `json:"member"`
	Response models.Response `json:"response"`
}

// Day is everything recorded for one date.
type Day struct {
	Date           models.DateKey          `json:"date"`
	Responses      []MemberResponse        `json:"responses"`
	Events         []models.Event          `json:"events"`
	HasAnyData     bool                    `json:"has_any_data"`
	Classification *suggest.Classification `json:"classification,omitempty"`
	Status         string                  `json:"status,omitempty"`
}

// Planner serializes access to one store and engine.
type Planner struct {
	mu        sync.Mutex
	store     *availability.Store
	engine    *suggest.Engine
	persister Persister
	notifier  Notifier
	horizon   int

	// pending holds the snapshot reported by the store's change observer
	// until the current call persists it.
	pending *models.Snapshot
}

// Option configures a Planner.
type Option func(*Planner)

// WithPersister persists every change through p.
func WithPersister(p Persister) Option {
	return func(pl *Planner) {
		pl.persister = p
	}
}

// WithNotifier broadcasts every change through n.
func WithNotifier(n Notifier) Option {
	return func(pl *Planner) {
		pl.notifier = n
	}
}

// WithHorizon sets how many months ahead Upcoming looks by default.
func WithHorizon(months int) Option {
	return func(pl *Planner) {
		pl.horizon = months
	}
}

// New creates a planner for roster seeded from snapshot.
func New(roster []models.Member, snapshot models.Snapshot, opts ...Option) (*Planner, error) {
	p := &Planner{horizon: suggest.DefaultHorizonMonths}

	store, err := availability.NewStore(roster, snapshot, availability.WithOnChange(p.record))
	if err != nil {
		return nil, err
	}
	p.store = store
	p.engine = suggest.NewEngine(store)

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Planner) record(snap models.Snapshot) {
	p.pending = &snap
}

// flush persists the snapshot recorded by the last mutation. Callers hold mu.
func (p *Planner) flush(ctx context.Context) error {
	snap := p.pending
	p.pending = nil
	if snap == nil || p.persister == nil {
		return nil
	}
	if err := p.persister.Save(ctx, *snap); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	return nil
}

// Roster returns the configured members in order.
func (p *Planner) Roster() []models.Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Roster()
}

// SetResponse records member's answer for date.
func (p *Planner) SetResponse(ctx context.Context, date models.DateKey, member models.Member, isAvailable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.SetResponse(date, member, isAvailable); err != nil {
		return err
	}
	if err := p.flush(ctx); err != nil {
		return err
	}

	log.Printf("Recorded %s as %s on %s", member, p.store.Response(date, member), date)
	p.notifyResponse(date, member)
	return nil
}

// ClearResponse removes member's answer for date.
func (p *Planner) ClearResponse(ctx context.Context, date models.DateKey, member models.Member) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.ClearResponse(date, member); err != nil {
		return err
	}
	if err := p.flush(ctx); err != nil {
		return err
	}

	log.Printf("Cleared answer of %s on %s", member, date)
	p.notifyResponse(date, member)
	return nil
}

func (p *Planner) notifyResponse(date models.DateKey, member models.Member) {
	if p.notifier == nil {
		return
	}
	status := ""
	if c, ok := p.engine.Classify(date); ok {
		status = c.Status()
	}
	p.notifier.BroadcastAvailabilityChanged(date, member, p.store.Response(date, member), status)
}

// ClearDate removes all answers and events of date.
func (p *Planner) ClearDate(ctx context.Context, date models.DateKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.ClearDate(date)
	if err := p.flush(ctx); err != nil {
		return err
	}

	log.Printf("Cleared all data on %s", date)
	if p.notifier != nil {
		p.notifier.BroadcastDateCleared(date)
	}
	return nil
}

// AddEvent schedules an event on date. A blank type defaults to a rehearsal.
func (p *Planner) AddEvent(ctx context.Context, date models.DateKey, eventType string) (models.Event, error) {
	eventType = NormalizeEventType(eventType)

	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.store.AddEvent(date, eventType)
	if err := p.flush(ctx); err != nil {
		return models.Event{}, err
	}

	log.Printf("Scheduled %q on %s (id %s)", e.Type, e.Date, e.ID)
	if p.notifier != nil {
		p.notifier.BroadcastEventCreated(e)
	}
	return e, nil
}

// NewEvent is an event to schedule.
type NewEvent struct {
	Date models.DateKey
	Type string
}

// ImportEvents schedules every item that is not already on its date with
// the same type. The batch is persisted once.
func (p *Planner) ImportEvents(ctx context.Context, items []NewEvent) ([]models.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := []models.Event{}
	for _, item := range items {
		eventType := NormalizeEventType(item.Type)
		if p.hasEvent(item.Date, eventType) {
			continue
		}
		added = append(added, p.store.AddEvent(item.Date, eventType))
	}
	if err := p.flush(ctx); err != nil {
		return nil, err
	}

	log.Printf("Imported %d of %d events", len(added), len(items))
	if p.notifier != nil {
		for _, e := range added {
			p.notifier.BroadcastEventCreated(e)
		}
	}
	return added, nil
}

func (p *Planner) hasEvent(date models.DateKey, eventType string) bool {
	for _, e := range p.store.Events(date) {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

// NormalizeEventType trims t and falls back to a rehearsal when blank.
func NormalizeEventType(t string) string {
	if t = strings.TrimSpace(t); t == "" {
		return models.EventTypeRehearsal
	}
	return t
}

// Responses returns the raw record for date.
func (p *Planner) Responses(date models.DateKey) models.AvailabilityRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Responses(date)
}

// Events returns the events on date in insertion order.
func (p *Planner) Events(date models.DateKey) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Events(date)
}

// HasAnyData reports whether date has answers or events.
func (p *Planner) HasAnyData(date models.DateKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.HasAnyData(date)
}

// Day returns everything recorded for date.
func (p *Planner) Day(date models.DateKey) Day {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.day(date)
}

func (p *Planner) day(date models.DateKey) Day {
	d := Day{
		Date:       date,
		Events:     p.store.Events(date),
		HasAnyData: p.store.HasAnyData(date),
	}
	for _, m := range p.store.Roster() {
		d.Responses = append(d.Responses, MemberResponse{Member: m, Response: p.store.Response(date, m)})
	}
	if c, ok := p.engine.Classify(date); ok {
		d.Classification = &c
		d.Status = c.Status()
	}
	return d
}

// Month returns a Day for every date of the month that has any data.
func (p *Planner) Month(year int, month int) ([]Day, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	first, err := models.ParseDateKey(fmt.Sprintf("%04d-%02d-01", year, month))
	if err != nil {
		return nil, err
	}
	next := first.AddMonths(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	days := []Day{}
	for d := first; d.Before(next); d = d.AddDays(1) {
		if p.store.HasAnyData(d) {
			days = append(days, p.day(d))
		}
	}
	return days, nil
}

// Classify classifies date; false when nobody has answered.
func (p *Planner) Classify(date models.DateKey) (suggest.Classification, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Classify(date)
}

// Suggest ranks the answered dates from start to end inclusive.
func (p *Planner) Suggest(start, end models.DateKey) []suggest.Suggestion {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Suggest(start, end)
}

// Upcoming ranks dates from today over months (the configured horizon when months <= 0).
func (p *Planner) Upcoming(today models.DateKey, months int) []suggest.Suggestion {
	if months <= 0 {
		months = p.horizon
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Upcoming(today, months)
}

// Horizon returns the default suggestion horizon in months.
func (p *Planner) Horizon() int {
	return p.horizon
}

// EventsBetween returns events dated from start to end inclusive.
func (p *Planner) EventsBetween(start, end models.DateKey) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.EventsBetween(start, end)
}

// Snapshot returns a copy of the full state.
func (p *Planner) Snapshot() models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Snapshot()
}

// Stats returns the number of answered dates and of events.
func (p *Planner) Stats() (dates int, events int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.store.Dates()), len(p.store.AllEvents())
}
