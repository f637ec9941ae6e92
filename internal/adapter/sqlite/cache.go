// Package sqlite implements the user-keyed workout cache on a local SQLite
// file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fittrack/internal/domain"
)

var _ domain.WorkoutCache = (*Cache)(nil)

// Cache stores the last successfully fetched collection per user as JSON.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache file at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// A single connection serialises writers; SQLite locks the file anyway.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workout_cache (
		user_id INTEGER PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the cache file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached collection for userID, if any.
func (c *Cache) Get(ctx context.Context, userID int64) ([]domain.Workout, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx, "SELECT payload FROM workout_cache WHERE user_id = ?", userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ws []domain.Workout
	if err := json.Unmarshal([]byte(payload), &ws); err != nil {
		return nil, false, fmt.Errorf("decode cached workouts: %w", err)
	}
	return ws, true, nil
}

// Put replaces the cached collection for userID.
func (c *Cache) Put(ctx context.Context, userID int64, workouts []domain.Workout) error {
	payload, err := json.Marshal(workouts)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO workout_cache(user_id, payload, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(payload), c.now().Unix())
	return err
}

// Invalidate drops the cached collection for userID.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM workout_cache WHERE user_id = ?", userID)
	return err
}
