package backtest

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kairos/internal/config"
)

func TestStore(t *testing.T) {
	rec := NewRecorder()
	recordBars(rec, []float64{1, 1.02, 0.99})
	rec.RecordEntryReason(rec.Times()[0], "entry")
	rec.RecordExitReason(rec.Times()[2], "achieved")
	rec.RecordTradeReturn(rec.Times()[2], -0.01)
	rec.RecordProfit(rec.Times()[2], -0.001)

	result := BuildResult(rec, "USDT", []string{"BTC-USDT", "ETH-USDT"})
	params := config.DefaultBacktestParams()

	dir := t.TempDir()
	require.NoError(t, Store(result, &params, 9, 10, "001", dir))

	// 리포트 CSV: 헤더 + 바 수만큼의 행
	f, err := os.Open(filepath.Join(dir, "report_001_USDT.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+3)
	assert.Equal(t, []string{
		"timestamp", "cache", "capital", "return",
		"trade_return", "entry_reason", "exit_reason", "profit", "position",
	}, records[0])

	// 청산이 있었던 마지막 행은 열 순서대로 기록되어야 합니다
	last := records[3]
	assert.Equal(t, "-0.01", last[4])
	assert.Equal(t, "achieved", last[6])
	assert.Equal(t, "-0.001", last[7])

	// 지표 JSON
	metricsData, err := os.ReadFile(filepath.Join(dir, "metrics_001_USDT.json"))
	require.NoError(t, err)
	var metrics Metrics
	require.NoError(t, json.Unmarshal(metricsData, &metrics))
	assert.InDelta(t, result.Metrics.TotalReturn, metrics.TotalReturn, 1e-12)

	// 파라미터 JSON: 런 ID와 자산 목록이 기록되어야 합니다
	paramsData, err := os.ReadFile(filepath.Join(dir, "params_001_USDT.json"))
	require.NoError(t, err)
	var stored StoredParams
	require.NoError(t, json.Unmarshal(paramsData, &stored))
	assert.NotEmpty(t, stored.RunID)
	assert.Equal(t, "USDT", stored.BaseCurrency)
	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT"}, stored.TradableAssets)
	assert.Equal(t, 9, stored.QThreshold)
	assert.Equal(t, params.EntryRatio, stored.Params.EntryRatio)
}
