package scan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DelistedRepository tracks symbols the data source no longer serves so
// future scans skip them without a request.
type DelistedRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewDelistedRepository(db *sql.DB, log zerolog.Logger) *DelistedRepository {
	return &DelistedRepository{
		db:  db,
		log: log.With().Str("component", "delisted").Logger(),
	}
}

// Add records a symbol as delisted. Re-adding a known symbol is a no-op.
func (r *DelistedRepository) Add(ctx context.Context, symbol string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO delisted_stocks (symbol, added_at) VALUES (?, ?)`,
		symbol, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record delisted symbol: %w", err)
	}
	r.log.Info().Str("symbol", symbol).Msg("Marked symbol as delisted")
	return nil
}

// All returns the delisted set as a lookup map.
func (r *DelistedRepository) All(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol FROM delisted_stocks`)
	if err != nil {
		return nil, fmt.Errorf("failed to load delisted symbols: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan delisted row: %w", err)
		}
		out[symbol] = true
	}
	return out, rows.Err()
}
