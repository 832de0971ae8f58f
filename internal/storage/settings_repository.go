package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/band-availability/backend/internal/storage/models"
)

// SettingRoster is the settings key holding the roster the stored data was recorded with.
const SettingRoster = "roster"

// SettingsRepository provides access to the key/value settings table.
type SettingsRepository struct {
	BaseRepository
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get returns the value for key and whether it was set.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.DB().QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, r.Now())
	if err != nil {
		return fmt.Errorf("updating setting %s: %w", key, err)
	}
	return nil
}

// Roster returns the stored roster, or nil if none was recorded.
func (r *SettingsRepository) Roster(ctx context.Context) ([]models.Member, error) {
	value, ok, err := r.Get(ctx, SettingRoster)
	if err != nil || !ok || value == "" {
		return nil, err
	}

	var roster []models.Member
	for _, name := range strings.Split(value, ",") {
		roster = append(roster, models.Member(name))
	}
	return roster, nil
}

// SetRoster records roster.
func (r *SettingsRepository) SetRoster(ctx context.Context, roster []models.Member) error {
	names := make([]string, len(roster))
	for i, m := range roster {
		names[i] = string(m)
	}
	return r.Set(ctx, SettingRoster, strings.Join(names, ","))
}
