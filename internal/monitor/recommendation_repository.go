// Package monitor implements intraday threshold monitoring of recommended
// stocks: buy-zone, take-profit and stop-loss alerts with once-per-day
// deduplication.
package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recommendation is a stock pick with optional trading bands. A band is only
// actionable when both of its bounds are present.
type Recommendation struct {
	ID            string
	StockCode     string
	StockName     string
	Sector        string
	Score         float64
	Tags          string
	AnalysisText  string
	BuyMin        *float64
	BuyMax        *float64
	TakeProfitMin *float64
	TakeProfitMax *float64
	StopLossMin   *float64
	StopLossMax   *float64
	Pushed        bool
	CreatedAt     time.Time
}

// RecommendationRepository persists recommendations.
type RecommendationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRecommendationRepository(db *sql.DB, log zerolog.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:  db,
		log: log.With().Str("component", "recommendations").Logger(),
	}
}

// Insert stores a recommendation, assigning an ID when none is set.
func (r *RecommendationRepository) Insert(ctx context.Context, rec *Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recommendations (
			id, stock_code, stock_name, sector, score, tags, analysis_text,
			buy_min, buy_max, take_profit_min, take_profit_max,
			stop_loss_min, stop_loss_max, pushed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StockCode, rec.StockName, rec.Sector, rec.Score,
		rec.Tags, rec.AnalysisText,
		rec.BuyMin, rec.BuyMax, rec.TakeProfitMin, rec.TakeProfitMax,
		rec.StopLossMin, rec.StopLossMax, boolToInt(rec.Pushed),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	return nil
}

// ListActive returns the newest recommendation per stock code. Older picks
// for the same stock are superseded, not monitored twice.
func (r *RecommendationRepository) ListActive(ctx context.Context) ([]Recommendation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stock_code, stock_name, sector, score, tags, analysis_text,
		       buy_min, buy_max, take_profit_min, take_profit_max,
		       stop_loss_min, stop_loss_max, pushed, created_at
		FROM recommendations
		WHERE id IN (
			SELECT id FROM recommendations r2
			WHERE r2.created_at = (
				SELECT MAX(created_at) FROM recommendations r3
				WHERE r3.stock_code = r2.stock_code
			)
		)
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var out []Recommendation
	for rows.Next() {
		var rec Recommendation
		var pushed int
		var createdAt int64
		err := rows.Scan(
			&rec.ID, &rec.StockCode, &rec.StockName, &rec.Sector, &rec.Score,
			&rec.Tags, &rec.AnalysisText,
			&rec.BuyMin, &rec.BuyMax, &rec.TakeProfitMin, &rec.TakeProfitMax,
			&rec.StopLossMin, &rec.StopLossMax, &pushed, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.Pushed = pushed != 0
		rec.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkPushed flags a recommendation as announced.
func (r *RecommendationRepository) MarkPushed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recommendations SET pushed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark recommendation pushed: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
