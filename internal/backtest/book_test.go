package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kairos/internal/domain"
)

func testTime(minute int) time.Time {
	return time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC)
}

func TestBook_MergeOrInsert(t *testing.T) {
	t.Run("신규 포지션은 비용을 차감하고 북에 추가", func(t *testing.T) {
		book := NewBook()
		ledger := NewLedger(0, 0, false)
		ledger.Cache = 1000

		result := book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 2, EntryPrice: 100,
		}, ledger, nil, testTime(0))

		assert.Equal(t, Entered, result)
		assert.Len(t, book.Positions, 1)
		assert.InDelta(t, 800, ledger.Cache, 1e-9)
		assert.Equal(t, testTime(0), book.Positions[0].EntryAt)
	})

	t.Run("동일 자산 동일 방향은 가중 평균 단가로 병합", func(t *testing.T) {
		book := NewBook()
		ledger := NewLedger(0, 0, false)
		ledger.Cache = 10000

		book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 10, EntryPrice: 100,
		}, ledger, nil, testTime(0))

		result := book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 10, EntryPrice: 120,
		}, ledger, nil, testTime(5))

		require.Equal(t, Updated, result)
		require.Len(t, book.Positions, 1)

		merged := book.Positions[0]
		assert.InDelta(t, 20, merged.Qty, 1e-12)
		assert.InDelta(t, 110, merged.EntryPrice, 1e-12)
		assert.Equal(t, 1, merged.NUpdated)
		assert.Equal(t, testTime(5), merged.EntryAt)
		// 증분 주문 비용만 추가로 차감: 100*10 + 120*10
		assert.InDelta(t, 10000-1000-1200, ledger.Cache, 1e-9)
	})

	t.Run("병합 상한 도달 시 진입 시각만 갱신", func(t *testing.T) {
		book := NewBook()
		ledger := NewLedger(0, 0, false)
		ledger.Cache = 10000
		maxNUpdated := 0

		book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 10, EntryPrice: 100,
		}, ledger, &maxNUpdated, testTime(0))
		cacheBefore := ledger.Cache

		result := book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 10, EntryPrice: 120,
		}, ledger, &maxNUpdated, testTime(5))

		require.Equal(t, Updated, result)
		pos := book.Positions[0]
		assert.InDelta(t, 10, pos.Qty, 1e-12)
		assert.InDelta(t, 100, pos.EntryPrice, 1e-12)
		assert.Equal(t, 0, pos.NUpdated)
		assert.Equal(t, testTime(5), pos.EntryAt)
		assert.Equal(t, cacheBefore, ledger.Cache)
	})

	t.Run("현금 부족 시 신규 진입은 상태 변화 없이 드랍", func(t *testing.T) {
		book := NewBook()
		ledger := NewLedger(0.0015, 0, false)
		ledger.Cache = 1

		// 수수료 포함 비용이 1을 넘으면 드랍되어야 합니다
		result := book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 1, EntryPrice: 1,
		}, ledger, nil, testTime(0))

		assert.Equal(t, SkippedInsufficientCache, result)
		assert.Empty(t, book.Positions)
		assert.Equal(t, 1.0, ledger.Cache)
	})

	t.Run("현금 부족 시 병합도 상태 변화 없이 드랍", func(t *testing.T) {
		book := NewBook()
		ledger := NewLedger(0, 0, false)
		ledger.Cache = 1000

		book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 5, EntryPrice: 100,
		}, ledger, nil, testTime(0))

		result := book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 100, EntryPrice: 100,
		}, ledger, nil, testTime(5))

		assert.Equal(t, SkippedInsufficientCache, result)
		pos := book.Positions[0]
		assert.InDelta(t, 5, pos.Qty, 1e-12)
		assert.Equal(t, 0, pos.NUpdated)
		assert.Equal(t, testTime(0), pos.EntryAt)
		assert.InDelta(t, 500, ledger.Cache, 1e-9)
	})
}

func TestBook_Uniqueness(t *testing.T) {
	// 같은 (자산, 방향) 쌍으로 여러 번 진입해도 포지션은 한 개만 존재해야 합니다
	book := NewBook()
	ledger := NewLedger(0, 0, true)

	for i := 0; i < 5; i++ {
		book.MergeOrInsert(&Position{
			Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 1, EntryPrice: float64(100 + i),
		}, ledger, nil, testTime(i))
	}

	if len(book.Positions) != 1 {
		t.Fatalf("포지션 수 = %d, want 1", len(book.Positions))
	}
	if book.Positions[0].NUpdated != 4 {
		t.Errorf("NUpdated = %d, want 4", book.Positions[0].NUpdated)
	}
}

func TestBook_HasOpposite(t *testing.T) {
	book := NewBook()
	ledger := NewLedger(0, 0, true)

	book.MergeOrInsert(&Position{
		Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 1, EntryPrice: 100,
	}, ledger, nil, testTime(0))

	if !book.HasOpposite("BTC-USDT", domain.ShortPosition) {
		t.Error("롱 보유 중 숏 진입은 반대 포지션으로 감지되어야 합니다")
	}
	if book.HasOpposite("BTC-USDT", domain.LongPosition) {
		t.Error("같은 방향은 반대 포지션이 아닙니다")
	}
	if book.HasOpposite("ETH-USDT", domain.ShortPosition) {
		t.Error("다른 자산은 반대 포지션이 아닙니다")
	}
}

func TestBook_SweepExited(t *testing.T) {
	book := NewBook()
	ledger := NewLedger(0, 0, true)

	book.MergeOrInsert(&Position{Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 1, EntryPrice: 100}, ledger, nil, testTime(0))
	book.MergeOrInsert(&Position{Asset: "ETH-USDT", Side: domain.LongPosition, Qty: 1, EntryPrice: 50}, ledger, nil, testTime(0))
	book.MergeOrInsert(&Position{Asset: "XRP-USDT", Side: domain.ShortPosition, Qty: 1, EntryPrice: 1}, ledger, nil, testTime(0))

	book.Positions[0].IsExited = true
	book.Positions[2].IsExited = true

	book.SweepExited()

	require.Len(t, book.Positions, 1)
	assert.Equal(t, "ETH-USDT", book.Positions[0].Asset)

	// 새 청산이 없으면 두 번째 스윕은 no-op이어야 합니다
	book.SweepExited()
	require.Len(t, book.Positions, 1)
	assert.Equal(t, "ETH-USDT", book.Positions[0].Asset)
}

func TestPosition_Merge(t *testing.T) {
	pos := &Position{Asset: "BTC-USDT", Side: domain.LongPosition, Qty: 10, EntryPrice: 100, EntryAt: testTime(0)}

	pos.Merge(120, 10, testTime(3))

	if math.Abs(pos.EntryPrice-110) > 1e-12 {
		t.Errorf("EntryPrice = %v, want 110", pos.EntryPrice)
	}
	if math.Abs(pos.Qty-20) > 1e-12 {
		t.Errorf("Qty = %v, want 20", pos.Qty)
	}
}
