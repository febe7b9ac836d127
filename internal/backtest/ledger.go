package backtest

import (
	"math"

	"github.com/assist-by/kairos/internal/domain"
)

// Ledger는 백테스트 한 런의 현금 장부입니다. 현금은 Pay와 Deposit을
// 통해서만 변합니다
type Ledger struct {
	Cache           float64 // 가용 현금
	EntryCommission float64 // 진입 수수료율
	ExitCommission  float64 // 청산 수수료율
	PossibleInDebt  bool    // 음수 현금 허용 여부
}

// NewLedger는 초기 현금 1로 장부를 생성합니다
func NewLedger(entryCommission, exitCommission float64, possibleInDebt bool) *Ledger {
	return &Ledger{
		Cache:           1,
		EntryCommission: entryCommission,
		ExitCommission:  exitCommission,
		PossibleInDebt:  possibleInDebt,
	}
}

// CostToOrder는 진입 수수료를 포함한 주문 비용을 계산합니다
func (l *Ledger) CostToOrder(p *Position) float64 {
	return p.EntryPrice * p.Qty * (1 + l.EntryCommission)
}

// Executable은 주문 비용을 지불할 수 있는지 확인합니다.
// Pay 호출 전에 반드시 확인해야 합니다
func (l *Ledger) Executable(cost float64) bool {
	if l.PossibleInDebt {
		return true
	}
	return l.Cache-cost >= 0
}

// Pay는 현금에서 주문 비용을 차감합니다. 내부 가드가 없으므로
// 호출자가 Executable로 먼저 확인해야 합니다
func (l *Ledger) Pay(cost float64) {
	l.Cache -= cost
}

// Deposit은 청산 대금을 현금에 더합니다
func (l *Ledger) Deposit(amount float64) {
	l.Cache += amount
}

// ComputeCapital은 현금과 보유 포지션 평가액의 합을 계산합니다.
// 롱은 현재가 기준, 숏은 진입 명목액에 가격 변화분을 더한 값입니다.
// 시세가 없거나 NaN인 자산은 평가에서 제외합니다
func (l *Ledger) ComputeCapital(prices map[string]float64, book *Book) float64 {
	capital := l.Cache

	for _, p := range book.Positions {
		price, ok := prices[p.Asset]
		if !ok || math.IsNaN(price) {
			continue
		}

		if p.Side == domain.LongPosition {
			capital += price * p.Qty
		} else {
			capital += p.EntryPrice*p.Qty + (p.EntryPrice-price)*p.Qty
		}
	}

	return capital
}

// ComputeProfit은 청산 시 수령할 총 대금을 계산합니다.
// 수수료는 명목 차액이 아니라 총 대금에 부과됩니다
func (l *Ledger) ComputeProfit(p *Position, price float64) float64 {
	if p.Side == domain.LongPosition {
		return price * p.Qty * (1 - l.ExitCommission)
	}
	return (p.EntryPrice*p.Qty + (p.EntryPrice-price)*p.Qty) * (1 - l.ExitCommission)
}
