package backtest

import (
	"time"

	"github.com/assist-by/kairos/internal/domain"
)

// ExitPolicy는 바마다 포지션 청산 여부를 판정합니다. 규칙은 고정된
// 우선순위로 평가되며 첫 매치에서 나머지 검사를 건너뜁니다
type ExitPolicy struct {
	ExitIfAchieved         bool           // 달성 청산 사용 여부
	AchievedWithCommission bool           // 달성 판정에 왕복 수수료 반영 여부
	AchieveRatio           float64        // 달성 판정용 수익률 나눔 계수
	ExitQThreshold         int            // 청산 분위 임계값
	NBins                  int            // 분위 버킷 수
	MinHoldingMinutes      float64        // 이 시간 이하로 보유한 포지션은 달성 외 청산 금지
	MaxHoldingMinutes      float64        // 강제 청산 보유 시간
	Binner                 QuantileBinner // 수익률 → 분위 버킷 변환기
	EntryCommission        float64        // 달성 판정용 진입 수수료율
	ExitCommission         float64        // 달성 판정용 청산 수수료율
}

// Evaluate는 이번 바에 포지션을 청산해야 하는지 판정합니다.
// 평가 순서: 달성 → 최소 보유 가드 → 최대 보유 초과 → 반대 시그널
func (e *ExitPolicy) Evaluate(p *Position, price float64, now time.Time, positive, negative map[string]bool) ExitReason {
	if e.ExitIfAchieved && e.achieved(p, price) {
		return Achieved
	}

	// 최소 보유 가드: 이후 규칙 전체를 이번 바에서 차단합니다
	if p.HoldingMinutes(now) <= e.MinHoldingMinutes {
		return NoExit
	}

	if p.HoldingMinutes(now) >= e.MaxHoldingMinutes {
		return MaxHoldingMinutes
	}

	if p.Side == domain.LongPosition && negative[p.Asset] {
		return OppositeSignal
	}
	if p.Side == domain.ShortPosition && positive[p.Asset] {
		return OppositeSignal
	}

	return NoExit
}

// achieved는 미실현 수익률이 목표 분위 버킷에 도달했는지 판정합니다
func (e *ExitPolicy) achieved(p *Position, price float64) bool {
	diff := price - p.EntryPrice

	if e.AchievedWithCommission {
		// 왕복 수수료는 항상 포지션에 불리하게 작용합니다
		roundTrip := p.EntryPrice * (e.EntryCommission + e.ExitCommission)
		if p.Side == domain.LongPosition {
			diff -= roundTrip
		} else {
			diff += roundTrip
		}
	}

	tradeReturn := 0.0
	if diff != 0 {
		tradeReturn = diff / p.EntryPrice / e.AchieveRatio
	}

	q := e.Binner.Bucket(p.Asset, tradeReturn)

	if p.Side == domain.LongPosition {
		return q >= e.ExitQThreshold
	}
	return q <= (e.NBins-1)-e.ExitQThreshold
}
