package scan

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var csvHeader = []string{
	"股票代码", "股票名称", "收盘价", "总市值", "所属行业", "上市日期",
	"MA5", "MA10", "MA20", "MACD_DIFF", "MACD_SIGNAL", "量比",
	"20日涨幅", "52周波幅", "52周最高", "距最高", "52周最低", "距最低",
	"满足条件", "条件明细",
}

// ExportCSV writes a scan batch to outputDir, one file per scan hour.
// Returns the written path.
func ExportCSV(outputDir string, scannedAt time.Time, records []Record) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	name := fmt.Sprintf("strong_stocks_%s.csv", scannedAt.Format("20060102_15"))
	path := filepath.Join(outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	// UTF-8 BOM so spreadsheet apps render the Chinese headers correctly
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.StockCode,
			rec.StockName,
			formatFloat(rec.ClosePrice),
			rec.MarketCapDisplay,
			rec.Industry,
			rec.ListDate,
			formatFloat(rec.MA5),
			formatFloat(rec.MA10),
			formatFloat(rec.MA20),
			strconv.FormatFloat(rec.MACDDiff, 'f', 4, 64),
			strconv.FormatFloat(rec.MACDSignal, 'f', 4, 64),
			formatFloat(rec.VolRatio),
			formatPct(rec.Return20d),
			rec.Week52Range,
			formatFloatPtr(rec.Week52High),
			rec.PctFromHigh,
			formatFloatPtr(rec.Week52Low),
			rec.PctFromLow,
			rec.MetConditions,
			rec.ConditionDetails,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", rec.StockCode, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return formatFloat(*v)
}
