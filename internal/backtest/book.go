package backtest

import (
	"time"

	"github.com/assist-by/kairos/internal/domain"
)

// Book은 미청산 포지션 목록을 소유합니다. (자산, 방향) 쌍당 최대 한 개의
// 포지션만 존재하며, 순회 순서는 진입 순서를 유지합니다
type Book struct {
	Positions []*Position
}

// NewBook은 빈 포지션 북을 생성합니다
func NewBook() *Book {
	return &Book{Positions: make([]*Position, 0)}
}

// FindSameSide는 동일 자산/방향의 포지션을 반환합니다. 유일성 불변식에
// 의해 최대 한 개만 존재합니다
func (b *Book) FindSameSide(asset string, side domain.PositionSide) *Position {
	for _, p := range b.Positions {
		if p.Asset == asset && p.Side == side {
			return p
		}
	}
	return nil
}

// HasOpposite는 동일 자산의 반대 방향 포지션이 있는지 확인합니다
func (b *Book) HasOpposite(asset string, side domain.PositionSide) bool {
	return b.FindSameSide(asset, side.Opposite()) != nil
}

// MergeOrInsert는 신규 주문을 기존 포지션에 병합하거나 새로 추가합니다.
// 현금 부족 시 주문은 상태 변화 없이 드랍됩니다
func (b *Book) MergeOrInsert(newPos *Position, ledger *Ledger, maxNUpdated *int, now time.Time) EntryResult {
	existing := b.FindSameSide(newPos.Asset, newPos.Side)

	if existing != nil {
		// 병합 상한에 도달한 포지션은 진입 시각만 갱신합니다
		if maxNUpdated != nil && existing.NUpdated >= *maxNUpdated {
			existing.Refresh(now)
			return Updated
		}

		// 증분 주문에 대해서만 비용을 청구합니다
		cost := ledger.CostToOrder(newPos)
		if !ledger.Executable(cost) {
			return SkippedInsufficientCache
		}

		ledger.Pay(cost)
		existing.Merge(newPos.EntryPrice, newPos.Qty, now)
		return Updated
	}

	cost := ledger.CostToOrder(newPos)
	if !ledger.Executable(cost) {
		return SkippedInsufficientCache
	}

	ledger.Pay(cost)
	newPos.EntryAt = now
	b.Positions = append(b.Positions, newPos)
	return Entered
}

// SweepExited는 청산 표시된 포지션을 모두 제거합니다. 바당 청산 처리
// 이후 정확히 한 번 실행되며, 새 청산이 없으면 no-op입니다
func (b *Book) SweepExited() {
	remaining := b.Positions[:0]
	for _, p := range b.Positions {
		if !p.IsExited {
			remaining = append(remaining, p)
		}
	}
	b.Positions = remaining
}
