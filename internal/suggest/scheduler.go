package suggest

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/band-availability/backend/internal/storage/models"
)

// DefaultDigestSchedule is used when no digest schedule is configured.
const DefaultDigestSchedule = "@every 1h"

// Ranker produces upcoming suggestions.
type Ranker interface {
	Upcoming(today models.DateKey, months int) []Suggestion
}

// Publisher delivers a computed digest.
type Publisher interface {
	BroadcastSuggestions(from, to models.DateKey, suggestions []Suggestion)
}

// DigestScheduler periodically publishes the upcoming suggestions.
type DigestScheduler struct {
	cron      *cron.Cron
	ranker    Ranker
	publisher Publisher
	spec      string
	months    int
	today     func() models.DateKey

	mu      sync.Mutex
	entryID cron.EntryID
	lastRun time.Time
	last    []Suggestion
}

// ParseSchedule validates a digest schedule: a six-field cron spec with
// seconds, or a descriptor such as "@hourly" or "@every 30m".
func ParseSchedule(spec string) error {
	if _, err := cron.NewParser(scheduleFields).Parse(spec); err != nil {
		return fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return nil
}

const scheduleFields = cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// NewDigestScheduler creates a digest scheduler looking months ahead.
func NewDigestScheduler(ranker Ranker, publisher Publisher, spec string, months int) *DigestScheduler {
	if spec == "" {
		spec = DefaultDigestSchedule
	}
	if months <= 0 {
		months = DefaultHorizonMonths
	}

	return &DigestScheduler{
		cron:      cron.New(cron.WithParser(cron.NewParser(scheduleFields))),
		ranker:    ranker,
		publisher: publisher,
		spec:      spec,
		months:    months,
		today:     models.Today,
	}
}

// Start registers the digest job and starts the cron runner.
func (s *DigestScheduler) Start() error {
	log.Println("Starting suggestion digest scheduler...")

	id, err := s.cron.AddFunc(s.spec, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("scheduling digest %q: %w", s.spec, err)
	}

	s.mu.Lock()
	s.entryID = id
	s.mu.Unlock()

	s.cron.Start()
	log.Printf("Suggestion digest scheduled (%s, %d month horizon)", s.spec, s.months)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *DigestScheduler) Stop() {
	log.Println("Stopping suggestion digest scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Suggestion digest scheduler stopped")
}

// RunNow computes and publishes the digest immediately.
func (s *DigestScheduler) RunNow() []Suggestion {
	from := s.today()
	to := from.AddMonths(s.months)
	suggestions := s.ranker.Upcoming(from, s.months)

	full := 0
	for _, sg := range suggestions {
		if sg.AllAvailable {
			full++
		}
	}
	log.Printf("Suggestion digest %s..%s: %d candidate dates, %d with everyone available", from, to, len(suggestions), full)

	if s.publisher != nil {
		s.publisher.BroadcastSuggestions(from, to, suggestions)
	}

	s.mu.Lock()
	s.lastRun = time.Now().UTC()
	s.last = suggestions
	s.mu.Unlock()

	return suggestions
}

// LastRun returns when the digest last ran and what it produced.
func (s *DigestScheduler) LastRun() (time.Time, []Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.last
}

// NextRun returns the next scheduled run time, or nil if not scheduled.
func (s *DigestScheduler) NextRun() *time.Time {
	s.mu.Lock()
	id := s.entryID
	s.mu.Unlock()

	if id == 0 {
		return nil
	}
	entry := s.cron.Entry(id)
	if entry.Next.IsZero() {
		return nil
	}
	return &entry.Next
}
