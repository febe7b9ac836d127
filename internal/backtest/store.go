package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assist-by/kairos/internal/config"
)

// StoredParams는 리포트와 함께 영속화되는 실행 파라미터 기록입니다
type StoredParams struct {
	RunID          string                 `json:"run_id"`
	CreatedAt      time.Time              `json:"created_at"`
	BaseCurrency   string                 `json:"base_currency"`
	TradableAssets []string               `json:"tradable_assets"`
	QThreshold     int                    `json:"q_threshold"`
	NBins          int                    `json:"n_bins"`
	Params         *config.BacktestParams `json:"params"`
}

// Store는 리포트 CSV, 성과 지표, 파라미터 기록을 디렉터리에 저장합니다
func Store(result *Result, params *config.BacktestParams, qThreshold, nBins int, prefix, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("리포트 디렉터리 생성 실패: %w", err)
	}

	suffix := fmt.Sprintf("%s_%s", prefix, result.BaseCurrency)

	if err := writeReportCSV(result.Rows, filepath.Join(dir, "report_"+suffix+".csv")); err != nil {
		return fmt.Errorf("리포트 저장 실패: %w", err)
	}

	if err := writeJSON(result.Metrics, filepath.Join(dir, "metrics_"+suffix+".json")); err != nil {
		return fmt.Errorf("지표 저장 실패: %w", err)
	}

	stored := StoredParams{
		RunID:          uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		BaseCurrency:   result.BaseCurrency,
		TradableAssets: result.Assets,
		QThreshold:     qThreshold,
		NBins:          nBins,
		Params:         params,
	}
	if err := writeJSON(stored, filepath.Join(dir, "params_"+suffix+".json")); err != nil {
		return fmt.Errorf("파라미터 저장 실패: %w", err)
	}

	return nil
}

func writeReportCSV(rows []ReportRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"timestamp", "cache", "capital", "return",
		"trade_return", "entry_reason", "exit_reason", "profit", "position",
	}); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Time.UTC().Format(time.RFC3339),
			formatF(row.Cache),
			formatF(row.Capital),
			formatF(row.Return),
			joinFloats(row.TradeReturns),
			strings.Join(row.EntryReasons, ";"),
			strings.Join(row.ExitReasons, ";"),
			joinFloats(row.Profits),
			strings.Join(row.Positions, ";"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatF(v)
	}
	return strings.Join(parts, ";")
}
