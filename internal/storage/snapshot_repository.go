package storage

import (
	"context"
	"fmt"

	"github.com/band-availability/backend/internal/storage/models"
)

// SnapshotRepository persists the complete availability snapshot.
type SnapshotRepository struct {
	BaseRepository
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Load reads the stored snapshot. An empty database yields an empty snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (models.Snapshot, error) {
	snap := models.NewSnapshot()

	rows, err := r.DB().QueryContext(ctx, `
		SELECT date, member, available FROM availability ORDER BY date, member
	`)
	if err != nil {
		return snap, fmt.Errorf("querying availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date      string
			member    string
			available bool
		)
		if err := rows.Scan(&date, &member, &available); err != nil {
			return snap, fmt.Errorf("scanning availability: %w", err)
		}

		d := models.DateKey(date)
		rec, ok := snap.Availability[d]
		if !ok {
			rec = make(models.AvailabilityRecord)
			snap.Availability[d] = rec
		}
		rec[models.Member(member)] = available
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("reading availability: %w", err)
	}

	events, err := r.listEvents(ctx)
	if err != nil {
		return snap, err
	}
	snap.Events = events

	return snap, nil
}

func (r *SnapshotRepository) listEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, date, type FROM band_events ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		var date string
		if err := rows.Scan(&e.ID, &date, &e.Type); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Date = models.DateKey(date)
		events = append(events, e)
	}

	return events, rows.Err()
}

// Save replaces the stored snapshot with snap in a single transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snap models.Snapshot) error {
	return r.WithinTx(ctx, func(q Queryable) error {
		return writeSnapshot(ctx, q, snap)
	})
}

func writeSnapshot(ctx context.Context, q Queryable, snap models.Snapshot) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM availability"); err != nil {
		return fmt.Errorf("clearing availability: %w", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM band_events"); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}

	for date, rec := range snap.Availability {
		for member, available := range rec {
			_, err := q.ExecContext(ctx, `
				INSERT INTO availability (date, member, available) VALUES (?, ?, ?)
			`, string(date), string(member), available)
			if err != nil {
				return fmt.Errorf("inserting availability %s/%s: %w", date, member, err)
			}
		}
	}

	for i, e := range snap.Events {
		_, err := q.ExecContext(ctx, `
			INSERT INTO band_events (id, date, type, position) VALUES (?, ?, ?, ?)
		`, e.ID, string(e.Date), e.Type, i)
		if err != nil {
			return fmt.Errorf("inserting event %s: %w", e.ID, err)
		}
	}

	return nil
}

// Counts returns the number of dates with answers and the number of events.
func (r *SnapshotRepository) Counts(ctx context.Context) (dates int, events int, err error) {
	err = r.DB().QueryRowContext(ctx, "SELECT COUNT(DISTINCT date) FROM availability").Scan(&dates)
	if err != nil {
		return 0, 0, fmt.Errorf("counting dates: %w", err)
	}
	err = r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM band_events").Scan(&events)
	if err != nil {
		return 0, 0, fmt.Errorf("counting events: %w", err)
	}
	return dates, events, nil
}
