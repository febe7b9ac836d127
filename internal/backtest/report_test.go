package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordBars(rec *Recorder, capitals []float64) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, capital := range capitals {
		ts := base.Add(time.Duration(i) * time.Minute)
		rec.RecordCache(ts, capital) // 테스트에서는 cache와 capital을 같게 둡니다
		rec.RecordCapital(ts, capital)
	}
}

func TestBuildReport(t *testing.T) {
	rec := NewRecorder()
	recordBars(rec, []float64{1, 1.1, 0.99, 0.99})

	rows := BuildReport(rec)

	require.Len(t, rows, 4)
	assert.Equal(t, 0.0, rows[0].Return)
	assert.InDelta(t, 0.1, rows[1].Return, 1e-12)
	assert.InDelta(t, (0.99-1.1)/1.1, rows[2].Return, 1e-12)
	assert.Equal(t, 0.0, rows[3].Return)

	// 타임스탬프 오름차순이어야 합니다
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].Time.After(rows[i-1].Time))
	}
}

func TestBuildReport_EmptyPanics(t *testing.T) {
	require.Panics(t, func() { BuildReport(NewRecorder()) })
	require.Panics(t, func() { ComputeMetrics(nil) })
}

func TestComputeMetrics(t *testing.T) {
	returns := []float64{0, 0.1, -0.05, 0, 0.02}

	metrics := ComputeMetrics(returns)

	// 0이 아닌 수익률 3개 중 2개가 양수
	assert.InDelta(t, 2.0/3.0, metrics.WinningRatio, 1e-12)

	want := (1+0.1)*(1-0.05)*(1+0.02) - 1
	assert.InDelta(t, want, metrics.TotalReturn, 1e-12)

	assert.InDelta(t, 0.07/5, metrics.AvgReturn, 1e-12)
	assert.Greater(t, metrics.SharpeRatio, 0.0)
}

func TestComputeMetrics_MaxDrawdown(t *testing.T) {
	returns := []float64{0.2, -0.25, 0.4}

	metrics := ComputeMetrics(returns)

	// 누적: 1.2, 0.9, 1.26 → 고점 1.2에서 0.9로 -25%
	assert.InDelta(t, -0.25, metrics.MaxDrawdown, 1e-12)
}

func TestComputeMetrics_FlatSeries(t *testing.T) {
	metrics := ComputeMetrics([]float64{0, 0, 0})

	assert.Equal(t, 0.0, metrics.WinningRatio)
	assert.Equal(t, 0.0, metrics.SharpeRatio)
	assert.Equal(t, 0.0, metrics.MaxDrawdown)
	assert.Equal(t, 0.0, metrics.TotalReturn)
}

func TestBuildResult_RoundTrip(t *testing.T) {
	// N개 바를 기록하면 N개 행이 나오고 total_return은 Π(1+r)-1과 일치해야 합니다
	rec := NewRecorder()
	capitals := []float64{1, 1.05, 1.02, 1.1, 1.08}
	recordBars(rec, capitals)

	result := BuildResult(rec, "USDT", []string{"BTC-USDT"})

	require.Len(t, result.Rows, len(capitals))
	assert.Equal(t, 0.0, result.Rows[0].Return)

	product := 1.0
	for _, row := range result.Rows {
		product *= 1 + row.Return
	}
	assert.InDelta(t, product-1, result.Metrics.TotalReturn, 1e-12)

	// 수익률 곱은 자산 곡선의 처음-끝 비율과 같아야 합니다
	assert.InDelta(t, capitals[len(capitals)-1]/capitals[0]-1, result.Metrics.TotalReturn, 1e-12)

	assert.Equal(t, result.Rows[0].Time, result.StartTime)
	assert.Equal(t, result.Rows[len(result.Rows)-1].Time, result.EndTime)
}

func TestSharpeRatio_ZeroVariance(t *testing.T) {
	if got := sharpeRatio([]float64{0.01, 0.01, 0.01}); got != 0 {
		t.Errorf("분산 0일 때 sharpeRatio() = %v, want 0", got)
	}
	if got := sharpeRatio([]float64{0.01}); got != 0 {
		t.Errorf("표본 1개일 때 sharpeRatio() = %v, want 0", got)
	}
}

func TestSharpeRatio_Annualized(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, -0.005, 0.015}

	m := mean(returns)
	variance := 0.0
	for _, r := range returns {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(returns) - 1)
	want := m / math.Sqrt(variance) * math.Sqrt(252)

	assert.InDelta(t, want, sharpeRatio(returns), 1e-12)
}
