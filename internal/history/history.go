// Package history implements SQLite persistence for completed captures.
//
// The capture server itself keeps nothing across restarts; history is an
// application-layer record of completed authorizations, used by the
// `history` commands.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/loopback/internal/shared"
	"golang.org/x/time/rate"
)

// Capture is one recorded redirect capture.
type Capture struct {
	ID        string
	Port      int
	RawURL    string
	Code      string
	State     string
	CreatedAt time.Time
}

// Store persists captures in the captures table managed by the shared
// migration runner.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{db: db, logger: logger}
}

// Record inserts a capture, assigning an ID and timestamp when absent, and
// returns the stored row.
func (s *Store) Record(ctx context.Context, c Capture) (*Capture, error) {
	if c.ID == "" {
		c.ID = shared.GenerateID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO captures (id, port, raw_url, code, state, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.Port, c.RawURL, c.Code, c.State, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record capture: %w", err)
	}

	s.logger.Debug("capture recorded", "id", c.ID, "port", c.Port)
	return &c, nil
}

// List returns captures newest first, up to limit (or all when limit <= 0).
func (s *Store) List(ctx context.Context, limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, port, raw_url, code, state, created_at FROM captures ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.Port, &c.RawURL, &c.Code, &c.State, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, c)
	}

	return captures, rows.Err()
}

// Prune deletes captures created before cutoff in batches of batchSize,
// pacing delete batches with the limiter so a large backlog doesn't hold the
// database lock continuously. Returns the number of rows deleted.
func (s *Store) Prune(ctx context.Context, cutoff time.Time, batchSize int, limiter *rate.Limiter) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	deleted := 0
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return deleted, fmt.Errorf("prune interrupted: %w", err)
			}
		}

		res, err := s.db.ExecContext(ctx,
			"DELETE FROM captures WHERE id IN (SELECT id FROM captures WHERE created_at < ? LIMIT ?)",
			cutoff, batchSize)
		if err != nil {
			return deleted, fmt.Errorf("failed to prune captures: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("failed to count pruned captures: %w", err)
		}
		deleted += int(n)
		if int(n) < batchSize {
			break
		}
	}

	s.logger.Info("capture history pruned", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
