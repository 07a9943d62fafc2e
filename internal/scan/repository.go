package scan

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository persists strong-stock batches.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "scan_repository").Logger(),
	}
}

// UpsertAll writes a scan batch in one transaction. All rows share the same
// scan_time so re-running the batch replaces rather than duplicates.
func (r *Repository) UpsertAll(ctx context.Context, scanTime string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO strong_stocks (
			scan_time, stock_code, stock_name, close_price, market_cap,
			industry, list_date, ma5, ma10, ma20, macd_diff, macd_signal,
			vol_ratio, return_20d, week52_range, week52_high, pct_from_high,
			week52_low, pct_from_low, met_conditions, condition_details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_time, stock_code) DO UPDATE SET
			stock_name        = excluded.stock_name,
			close_price       = excluded.close_price,
			market_cap        = excluded.market_cap,
			industry          = excluded.industry,
			list_date         = excluded.list_date,
			ma5               = excluded.ma5,
			ma10              = excluded.ma10,
			ma20              = excluded.ma20,
			macd_diff         = excluded.macd_diff,
			macd_signal       = excluded.macd_signal,
			vol_ratio         = excluded.vol_ratio,
			return_20d        = excluded.return_20d,
			week52_range      = excluded.week52_range,
			week52_high       = excluded.week52_high,
			pct_from_high     = excluded.pct_from_high,
			week52_low        = excluded.week52_low,
			pct_from_low      = excluded.pct_from_low,
			met_conditions    = excluded.met_conditions,
			condition_details = excluded.condition_details`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			scanTime, rec.StockCode, rec.StockName, rec.ClosePrice,
			rec.MarketCapDisplay, rec.Industry, rec.ListDate,
			rec.MA5, rec.MA10, rec.MA20, rec.MACDDiff, rec.MACDSignal,
			rec.VolRatio, rec.Return20d, rec.Week52Range, rec.Week52High,
			rec.PctFromHigh, rec.Week52Low, rec.PctFromLow,
			rec.MetConditions, rec.ConditionDetails,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", rec.StockCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan batch: %w", err)
	}
	r.log.Info().Str("scan_time", scanTime).Int("rows", len(records)).
		Msg("Persisted scan batch")
	return nil
}

// ListByScanTime returns one batch ordered by 20-day return ascending,
// matching the in-run emission order.
func (r *Repository) ListByScanTime(ctx context.Context, scanTime string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stock_code, stock_name, close_price, market_cap, industry,
		       list_date, ma5, ma10, ma20, macd_diff, macd_signal, vol_ratio,
		       return_20d, week52_range, week52_high, pct_from_high,
		       week52_low, pct_from_low, met_conditions, condition_details
		FROM strong_stocks
		WHERE scan_time = ?
		ORDER BY return_20d ASC`, scanTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan batch: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.StockCode, &rec.StockName, &rec.ClosePrice,
			&rec.MarketCapDisplay, &rec.Industry, &rec.ListDate,
			&rec.MA5, &rec.MA10, &rec.MA20, &rec.MACDDiff, &rec.MACDSignal,
			&rec.VolRatio, &rec.Return20d, &rec.Week52Range, &rec.Week52High,
			&rec.PctFromHigh, &rec.Week52Low, &rec.PctFromLow,
			&rec.MetConditions, &rec.ConditionDetails,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strong stock row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
