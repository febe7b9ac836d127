package domain

// PositionSide는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
)

// Opposite는 반대 방향의 포지션 사이드를 반환합니다
func (s PositionSide) Opposite() PositionSide {
	if s == LongPosition {
		return ShortPosition
	}
	return LongPosition
}

// TradeSide는 백테스트에서 허용하는 진입 방향 설정을 정의합니다
type TradeSide string

const (
	TradeLong      TradeSide = "long"
	TradeShort     TradeSide = "short"
	TradeLongShort TradeSide = "longshort"
)

// IsValid는 설정값이 유효한 진입 방향인지 확인합니다
func (t TradeSide) IsValid() bool {
	switch t {
	case TradeLong, TradeShort, TradeLongShort:
		return true
	}
	return false
}

// OrderCriterion은 바별 주문 규모 산정 기준을 정의합니다
type OrderCriterion string

const (
	CriterionCache   OrderCriterion = "cache"   // 가용 현금 기준
	CriterionCapital OrderCriterion = "capital" // 총 자산 기준
)

// IsValid는 설정값이 유효한 주문 기준인지 확인합니다
func (c OrderCriterion) IsValid() bool {
	return c == CriterionCache || c == CriterionCapital
}

// SignalClass는 방향 예측 모델의 출력 클래스를 정의합니다
type SignalClass int

const (
	ClassUp SignalClass = iota
	ClassDown
	ClassNeutral
)

// String은 SignalClass의 문자열 표현을 반환합니다
func (c SignalClass) String() string {
	switch c {
	case ClassUp:
		return "Up"
	case ClassDown:
		return "Down"
	case ClassNeutral:
		return "Neutral"
	default:
		return "Unknown"
	}
}
