package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Message types recorded in push_records. AI analysis digests share the
// same dedup table as the band alerts.
const (
	MessageAIAnalysis = "ai_analysis"
	MessageBuyPoint   = "buy_point"
	MessageTakeProfit = "take_profit"
	MessageStopLoss   = "stop_loss"
)

// PushRecord is one delivered alert. (stock_code, message_type, created_day)
// is unique, which enforces the once-per-day rule at the storage layer too.
type PushRecord struct {
	StockCode    string
	StockName    string
	Sector       string
	MessageType  string
	Content      string
	CurrentPrice float64
	TradeRange   string
	CreatedAt    time.Time
}

// PushRepository persists alert history and answers dedup queries.
type PushRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewPushRepository(db *sql.DB, log zerolog.Logger) *PushRepository {
	return &PushRepository{
		db:  db,
		log: log.With().Str("component", "push_records").Logger(),
	}
}

// ExistsToday reports whether this alert type already fired for the stock on
// the given day.
func (r *PushRepository) ExistsToday(ctx context.Context, stockCode, messageType, day string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM push_records
		WHERE stock_code = ? AND message_type = ? AND created_day = ?`,
		stockCode, messageType, day,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check push history: %w", err)
	}
	return n > 0, nil
}

// Insert records a delivered alert. A duplicate for the same
// (stock, type, day) fails on the unique constraint.
func (r *PushRepository) Insert(ctx context.Context, rec PushRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO push_records (
			stock_code, stock_name, sector, message_type, content,
			current_price, trade_range, created_at, created_day
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StockCode, rec.StockName, rec.Sector, rec.MessageType, rec.Content,
		rec.CurrentPrice, rec.TradeRange, rec.CreatedAt.Unix(),
		rec.CreatedAt.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to record push: %w", err)
	}
	return nil
}
