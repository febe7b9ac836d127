package backtest

import (
	"fmt"
	"time"
)

// Recorder는 백테스트 시계열을 기록합니다. cache/capital은 바당 정확히
// 한 번 기록되는 밀집 시계열이고, 나머지는 이벤트 발생 바에만 값이
// 쌓이는 희소 시계열입니다
type Recorder struct {
	Caches   map[time.Time]float64
	Capitals map[time.Time]float64

	TradeReturns map[time.Time][]float64
	Profits      map[time.Time][]float64
	EntryReasons map[time.Time][]string
	ExitReasons  map[time.Time][]string

	Positions map[time.Time][]string // 상세 모드에서만 기록되는 포지션 스냅샷

	order []time.Time // 밀집 시계열 기록 순서
}

// NewRecorder는 빈 레코더를 생성합니다
func NewRecorder() *Recorder {
	return &Recorder{
		Caches:       make(map[time.Time]float64),
		Capitals:     make(map[time.Time]float64),
		TradeReturns: make(map[time.Time][]float64),
		Profits:      make(map[time.Time][]float64),
		EntryReasons: make(map[time.Time][]string),
		ExitReasons:  make(map[time.Time][]string),
		Positions:    make(map[time.Time][]string),
	}
}

// RecordCache는 해당 바의 현금을 기록합니다. 같은 타임스탬프에 대한
// 중복 기록은 버그이므로 panic합니다
func (r *Recorder) RecordCache(now time.Time, cache float64) {
	if _, exists := r.Caches[now]; exists {
		panic(fmt.Sprintf("중복된 cache 기록: %s", now))
	}
	r.Caches[now] = cache
	r.order = append(r.order, now)
}

// RecordCapital은 해당 바의 총 자산을 기록합니다. 중복 기록은 panic합니다
func (r *Recorder) RecordCapital(now time.Time, capital float64) {
	if _, exists := r.Capitals[now]; exists {
		panic(fmt.Sprintf("중복된 capital 기록: %s", now))
	}
	r.Capitals[now] = capital
}

// RecordTradeReturn은 해당 바에 청산된 거래의 수익률을 추가합니다
func (r *Recorder) RecordTradeReturn(now time.Time, tradeReturn float64) {
	r.TradeReturns[now] = append(r.TradeReturns[now], tradeReturn)
}

// RecordProfit은 해당 바에 청산된 거래의 순손익을 추가합니다
func (r *Recorder) RecordProfit(now time.Time, profit float64) {
	r.Profits[now] = append(r.Profits[now], profit)
}

// RecordEntryReason은 해당 바의 진입 이벤트를 추가합니다
func (r *Recorder) RecordEntryReason(now time.Time, reason string) {
	r.EntryReasons[now] = append(r.EntryReasons[now], reason)
}

// RecordExitReason은 해당 바의 청산 이벤트를 추가합니다
func (r *Recorder) RecordExitReason(now time.Time, reason string) {
	r.ExitReasons[now] = append(r.ExitReasons[now], reason)
}

// RecordPositions는 해당 바의 포지션 스냅샷을 기록합니다
func (r *Recorder) RecordPositions(now time.Time, snapshot []string) {
	r.Positions[now] = snapshot
}

// Times는 밀집 시계열이 기록된 타임스탬프를 기록 순서대로 반환합니다
func (r *Recorder) Times() []time.Time {
	return r.order
}

// Len은 기록된 바 수를 반환합니다
func (r *Recorder) Len() int {
	return len(r.order)
}
