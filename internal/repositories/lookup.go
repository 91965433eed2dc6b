package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/shared"
)

// LookupRepository persists enrichment payloads in the lookups table so
// repeated queries skip the network.
type LookupRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewLookupRepository(db *sql.DB, logger *log.Logger) *LookupRepository {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LookupRepository{db: db, logger: logger}
}

// Get returns the cached payload for a key, reporting a miss when the entry
// is absent or older than maxAge. maxAge <= 0 disables the age check.
func (r *LookupRepository) Get(ctx context.Context, source, kind, artist, track string, maxAge time.Duration) ([]byte, bool, error) {
	var payload string
	var createdAt time.Time

	row := r.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM lookups
		 WHERE source = ? AND kind = ? AND artist = ? AND track = ?`,
		source, kind, artist, track)

	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read lookup: %w", err)
	}

	if maxAge > 0 && time.Since(createdAt) > maxAge {
		return nil, false, nil
	}

	return []byte(payload), true, nil
}

// Put stores a payload, replacing any existing entry for the same key.
func (r *LookupRepository) Put(ctx context.Context, source, kind, artist, track string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lookups (id, source, kind, artist, track, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source, kind, artist, track)
		 DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		shared.GenerateID(), source, kind, artist, track, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store lookup: %w", err)
	}
	return nil
}

// Prune deletes entries older than maxAge and returns how many went.
func (r *LookupRepository) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM lookups WHERE created_at < ?`,
		time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to prune lookups: %w", err)
	}
	return result.RowsAffected()
}
