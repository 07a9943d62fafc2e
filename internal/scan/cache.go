package scan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// dayKeyLayout buckets cache entries per trading day.
const dayKeyLayout = "2006-01-02"

// CacheEntry is the per-symbol, per-day scan result. Weak symbols get a
// negative marker (Strong false, Record nil) so a rescan on the same day
// skips the network round-trip entirely.
type CacheEntry struct {
	Strong        bool    `json:"strong"`
	Record        *Record `json:"record,omitempty"`
	MetConditions string  `json:"met_conditions"`
}

// CacheRepository persists per-day scan outcomes in SQLite.
type CacheRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewCacheRepository(db *sql.DB, log zerolog.Logger) *CacheRepository {
	return &CacheRepository{
		db:  db,
		log: log.With().Str("component", "scan_cache").Logger(),
	}
}

// DayKey renders the cache bucket for a point in time.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// Get returns the cached entry for symbol on the given day, or nil on a miss.
// A corrupt payload is treated as a miss.
func (r *CacheRepository) Get(ctx context.Context, symbol, day string) (*CacheEntry, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM scan_cache WHERE symbol = ? AND trade_date = ?`,
		symbol, day,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan cache: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		r.log.Warn().Str("symbol", symbol).Str("day", day).Err(err).
			Msg("Discarding corrupt cache entry")
		return nil, nil
	}
	return &entry, nil
}

// Put stores or replaces the entry for symbol on the given day.
func (r *CacheRepository) Put(ctx context.Context, symbol, day string, entry CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scan_cache (symbol, trade_date, data, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, trade_date) DO UPDATE SET
			data = excluded.data,
			cached_at = excluded.cached_at`,
		symbol, day, string(raw), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Prune removes entries older than the given day key. Stale buckets are never
// read, this just keeps the table from growing without bound.
func (r *CacheRepository) Prune(ctx context.Context, before string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM scan_cache WHERE trade_date < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune scan cache: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Debug().Int64("removed", n).Msg("Pruned stale cache entries")
	}
	return n, nil
}
