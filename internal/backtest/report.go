package backtest

import (
	"math"
	"sort"
)

// sharpeAnnualization은 샤프 지수 연율화에 쓰는 바 수입니다
const sharpeAnnualization = 252

// BuildResult는 기록된 시계열로부터 리포트 테이블과 성과 지표를
// 조립합니다. 바가 하나도 기록되지 않은 런은 버그이므로 panic합니다
func BuildResult(rec *Recorder, baseCurrency string, assets []string) *Result {
	rows := BuildReport(rec)

	returns := make([]float64, len(rows))
	for i, row := range rows {
		returns[i] = row.Return
	}

	return &Result{
		BaseCurrency: baseCurrency,
		Assets:       assets,
		Rows:         rows,
		Metrics:      ComputeMetrics(returns),
		StartTime:    rows[0].Time,
		EndTime:      rows[len(rows)-1].Time,
	}
}

// BuildReport는 기록된 시계열을 타임스탬프 오름차순의 단일 테이블로
// 조립합니다. 수익률은 capital의 변화율이며 첫 값은 0으로 고정됩니다
func BuildReport(rec *Recorder) []ReportRow {
	if rec.Len() == 0 {
		panic("시뮬레이션된 바가 없는 상태에서 리포트를 생성할 수 없습니다")
	}

	sorted := make([]ReportRow, 0, rec.Len())
	for _, ts := range rec.Times() {
		sorted = append(sorted, ReportRow{
			Time:         ts,
			Cache:        rec.Caches[ts],
			Capital:      rec.Capitals[ts],
			TradeReturns: rec.TradeReturns[ts],
			Profits:      rec.Profits[ts],
			EntryReasons: rec.EntryReasons[ts],
			ExitReasons:  rec.ExitReasons[ts],
			Positions:    rec.Positions[ts],
		})
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i := range sorted {
		if i == 0 {
			sorted[i].Return = 0
			continue
		}
		prev := sorted[i-1].Capital
		if prev != 0 {
			sorted[i].Return = (sorted[i].Capital - prev) / prev
		}
	}

	return sorted
}

// ComputeMetrics는 바별 수익률 시계열에서 성과 요약 통계를 계산합니다
func ComputeMetrics(returns []float64) Metrics {
	if len(returns) == 0 {
		panic("시뮬레이션된 바가 없는 상태에서 지표를 계산할 수 없습니다")
	}

	return Metrics{
		WinningRatio: winningRatio(returns),
		SharpeRatio:  sharpeRatio(returns),
		MaxDrawdown:  maxDrawdown(returns),
		AvgReturn:    mean(returns),
		TotalReturn:  totalReturn(returns),
	}
}

// winningRatio는 0이 아닌 수익률 중 양수의 비율을 계산합니다.
// 분모는 개별 거래 수익률이 아니라 바 단위 capital 수익률입니다
func winningRatio(returns []float64) float64 {
	nonzero := 0
	wins := 0
	for _, r := range returns {
		if r == 0 {
			continue
		}
		nonzero++
		if r > 0 {
			wins++
		}
	}

	if nonzero == 0 {
		return 0
	}
	return float64(wins) / float64(nonzero)
}

// sharpeRatio는 연율화 샤프 지수를 계산합니다. 분산이 0이면 0을 반환합니다
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	m := mean(returns)

	variance := 0.0
	for _, r := range returns {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(returns) - 1)

	if variance == 0 {
		return 0
	}

	return m / math.Sqrt(variance) * math.Sqrt(sharpeAnnualization)
}

// maxDrawdown은 복리 누적 곡선 기준 최대 낙폭을 계산합니다. 0 이하의
// 값이며 낙폭이 없으면 0입니다
func maxDrawdown(returns []float64) float64 {
	cumulative := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		dd := cumulative/peak - 1
		if dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// totalReturn은 누적 수익률 Π(1+r)-1을 계산합니다
func totalReturn(returns []float64) float64 {
	cumulative := 1.0
	for _, r := range returns {
		cumulative *= 1 + r
	}
	return cumulative - 1
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
