package backtest

import (
	"fmt"
	"time"

	"github.com/assist-by/kairos/internal/domain"
)

// Position은 한 자산에 대한 한 방향의 미청산 노출을 나타냅니다
type Position struct {
	Asset      string              // 자산 식별자 (예: BTC-USDT)
	Side       domain.PositionSide // 롱/숏 방향
	Qty        float64             // 보유 수량 (항상 양수)
	EntryPrice float64             // 진입가 (병합 시 가중 평균으로 갱신)
	EntryAt    time.Time           // 진입 또는 마지막 병합 시각
	NUpdated   int                 // 생성 이후 적용된 병합 횟수
	IsExited   bool                // 청산 표시. 스윕 단계에서 제거 대상
}

// EntryNotional은 진입 기준 명목 금액을 반환합니다
func (p *Position) EntryNotional() float64 {
	return p.EntryPrice * p.Qty
}

// Merge는 동일 자산/방향의 신규 주문을 가중 평균 단가로 병합합니다
func (p *Position) Merge(price, qty float64, now time.Time) {
	p.EntryPrice = (p.EntryPrice*p.Qty + price*qty) / (p.Qty + qty)
	p.Qty += qty
	p.NUpdated++
	p.EntryAt = now
}

// Refresh는 병합 상한에 도달한 포지션의 진입 시각만 갱신합니다
func (p *Position) Refresh(now time.Time) {
	p.EntryAt = now
}

// HoldingMinutes는 진입(또는 마지막 병합) 이후 경과 시간을 분 단위로 반환합니다
func (p *Position) HoldingMinutes(now time.Time) float64 {
	return now.Sub(p.EntryAt).Minutes()
}

// String은 리포트 스냅샷용 문자열 표현을 반환합니다
func (p *Position) String() string {
	return fmt.Sprintf("%s/%s qty=%.8f entry=%.8f n_updated=%d",
		p.Asset, p.Side, p.Qty, p.EntryPrice, p.NUpdated)
}
