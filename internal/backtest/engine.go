package backtest

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/assist-by/kairos/internal/config"
	"github.com/assist-by/kairos/internal/domain"
)

// Engine은 백테스트 실행 엔진입니다. 바를 하나씩 소비하며 청산 → 진입 →
// 기록 순서로 상태를 전이합니다
type Engine struct {
	Params       *config.BacktestParams // 백테스트 파라미터
	Source       BarSource              // 시세/시그널 데이터 소스
	Book         *Book                  // 포지션 북
	Ledger       *Ledger                // 현금 장부
	Policy       *ExitPolicy            // 청산 정책
	Recorder     *Recorder              // 시계열 레코더
	BaseCurrency string                 // 기준 통화
	Detail       bool                   // 포지션 스냅샷 기록 여부
}

// NewEngine은 새로운 백테스트 엔진을 생성합니다. exit_q_threshold가
// 음수면 데이터셋 파라미터의 q_threshold로 대체합니다
func NewEngine(
	params *config.BacktestParams,
	source BarSource,
	binner QuantileBinner,
	nBins int,
	qThreshold int,
	baseCurrency string,
	detail bool,
) (*Engine, error) {
	if err := config.ValidateParams(params); err != nil {
		return nil, err
	}

	exitQThreshold := params.ExitQThreshold
	if exitQThreshold < 0 {
		exitQThreshold = qThreshold
	}

	policy := &ExitPolicy{
		ExitIfAchieved:         params.ExitIfAchieved,
		AchievedWithCommission: params.AchievedWithCommission,
		AchieveRatio:           params.AchieveRatio,
		ExitQThreshold:         exitQThreshold,
		NBins:                  nBins,
		MinHoldingMinutes:      params.MinHoldingMinutes,
		MaxHoldingMinutes:      params.MaxHoldingMinutes,
		Binner:                 binner,
		EntryCommission:        params.Commission.Entry,
		ExitCommission:         params.Commission.Exit,
	}

	return &Engine{
		Params:       params,
		Source:       source,
		Book:         NewBook(),
		Ledger:       NewLedger(params.Commission.Entry, params.Commission.Exit, params.PossibleInDebt),
		Policy:       policy,
		Recorder:     NewRecorder(),
		BaseCurrency: baseCurrency,
		Detail:       detail,
	}, nil
}

// Run은 데이터 소스가 소진될 때까지 바를 리플레이하고 결과를 반환합니다
func (e *Engine) Run() (*Result, error) {
	log.Printf("백테스트 시작: 기준통화=%s, 진입방향=%s, 주문기준=%s",
		e.BaseCurrency, e.Params.PositionSide, e.Params.OrderCriterion)

	bars := 0
	for {
		bar, ok := e.Source.Next()
		if !ok {
			break
		}

		e.step(bar)
		bars++
	}

	if bars == 0 {
		return nil, fmt.Errorf("시뮬레이션할 바가 없습니다: 기준통화=%s", e.BaseCurrency)
	}

	result := BuildResult(e.Recorder, e.BaseCurrency, e.Source.Assets())

	log.Printf("백테스트 완료: 기준통화=%s, 바=%d, 승률=%.4f, 누적 수익률=%.4f, 최대 낙폭=%.4f",
		e.BaseCurrency, bars,
		result.Metrics.WinningRatio,
		result.Metrics.TotalReturn,
		result.Metrics.MaxDrawdown)

	return result, nil
}

// step은 바 하나에 대한 상태 전이를 수행합니다
func (e *Engine) step(bar domain.Bar) {
	positive := assetSet(bar.PositiveAssets)
	negative := assetSet(bar.NegativeAssets)

	// 1. 청산 처리 후 청산 표시 포지션 제거
	e.handleExit(bar, positive, negative)
	e.Book.SweepExited()

	// 2. 이번 바의 주문 규모 산정
	cacheToOrder := e.cacheToOrder(bar)

	// 3. 진입 처리
	e.handleEntry(bar, cacheToOrder)

	// 4. 바당 정확히 한 번 현금/자산 스냅샷 기록
	e.Recorder.RecordCache(bar.Time, e.Ledger.Cache)
	e.Recorder.RecordCapital(bar.Time, e.Ledger.ComputeCapital(bar.Prices, e.Book))

	if e.Detail {
		snapshot := make([]string, 0, len(e.Book.Positions))
		for _, p := range e.Book.Positions {
			snapshot = append(snapshot, p.String())
		}
		e.Recorder.RecordPositions(bar.Time, snapshot)
	}
}

// handleExit는 보유 포지션을 진입 순서대로 순회하며 청산 정책을 평가합니다
func (e *Engine) handleExit(bar domain.Bar, positive, negative map[string]bool) {
	for _, p := range e.Book.Positions {
		price, ok := bar.Price(p.Asset)
		if !ok || math.IsNaN(price) {
			continue
		}

		reason := e.Policy.Evaluate(p, price, bar.Time, positive, negative)
		if reason == NoExit {
			continue
		}

		e.executeExit(p, price, bar.Time, reason)
	}
}

// executeExit는 청산 대금을 입금하고 거래 실적을 기록한 뒤 포지션에
// 청산 표시를 남깁니다. 북에서의 제거는 스윕 단계의 역할입니다
func (e *Engine) executeExit(p *Position, price float64, now time.Time, reason ExitReason) {
	proceeds := e.Ledger.ComputeProfit(p, price)
	e.Ledger.Deposit(proceeds)

	entryNotional := p.EntryNotional()
	profit := proceeds - entryNotional
	tradeReturn := profit / entryNotional

	e.Recorder.RecordTradeReturn(now, tradeReturn)
	e.Recorder.RecordProfit(now, profit)
	e.Recorder.RecordExitReason(now, reason.String())

	p.IsExited = true

	log.Printf("포지션 청산: %s %s, 진입가=%.8f, 청산가=%.8f, 수익률=%.6f, 이유=%s",
		p.Asset, p.Side, p.EntryPrice, price, tradeReturn, reason)
}

// cacheToOrder는 주문 기준 설정에 따라 이번 바의 주문 규모를 계산합니다
func (e *Engine) cacheToOrder(bar domain.Bar) float64 {
	if e.Params.OrderCriterion == domain.CriterionCapital {
		return e.Params.EntryRatio * e.Ledger.ComputeCapital(bar.Prices, e.Book)
	}
	return e.Params.EntryRatio * e.Ledger.Cache
}

// handleEntry는 진입 방향 설정에 따라 시그널 자산에 주문을 시도합니다.
// 자산은 데이터 소스가 공급한 순서대로 처리합니다
func (e *Engine) handleEntry(bar domain.Bar, cacheToOrder float64) {
	if e.Params.PositionSide == domain.TradeLong || e.Params.PositionSide == domain.TradeLongShort {
		for _, asset := range bar.PositiveAssets {
			e.entryOrder(bar, asset, domain.LongPosition, cacheToOrder)
		}
	}

	if e.Params.PositionSide == domain.TradeShort || e.Params.PositionSide == domain.TradeLongShort {
		for _, asset := range bar.NegativeAssets {
			e.entryOrder(bar, asset, domain.ShortPosition, cacheToOrder)
		}
	}
}

// entryOrder는 한 자산에 대한 진입 주문을 시도합니다. 현금 부족,
// 반대 포지션 존재, 주문 규모 0은 오류가 아니라 조용히 드랍됩니다
func (e *Engine) entryOrder(bar domain.Bar, asset string, side domain.PositionSide, cacheToOrder float64) EntryResult {
	price, ok := bar.Price(asset)
	if !ok || math.IsNaN(price) || price <= 0 {
		return SkippedZeroOrder
	}

	// 부채 상태에서는 주문 규모가 음수가 될 수 있으므로 0 이하를 모두 드랍합니다
	if cacheToOrder <= 0 {
		return SkippedZeroOrder
	}

	if e.Book.HasOpposite(asset, side) {
		return SkippedOppositeSide
	}

	newPos := &Position{
		Asset:      asset,
		Side:       side,
		Qty:        cacheToOrder / price,
		EntryPrice: price,
		EntryAt:    bar.Time,
	}

	result := e.Book.MergeOrInsert(newPos, e.Ledger, e.Params.MaxNUpdated, bar.Time)
	if result.Filled() {
		e.Recorder.RecordEntryReason(bar.Time, result.String())
		log.Printf("포지션 진입: %s %s @ %.8f, 수량=%.8f (%s)",
			asset, side, price, newPos.Qty, result)
	}

	return result
}

// assetSet은 순서 있는 자산 목록을 멤버십 조회용 집합으로 변환합니다
func assetSet(assets []string) map[string]bool {
	set := make(map[string]bool, len(assets))
	for _, a := range assets {
		set[a] = true
	}
	return set
}
