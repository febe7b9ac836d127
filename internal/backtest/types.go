package backtest

import (
	"time"

	"github.com/assist-by/kairos/internal/domain"
)

// BarSource는 백테스트 엔진에 시세/시그널 바를 순차 공급하는 데이터 소스입니다
type BarSource interface {
	// Assets는 거래 가능 자산 목록을 공급 순서대로 반환합니다
	Assets() []string
	// Next는 다음 바를 반환합니다. 데이터가 소진되면 false를 반환합니다
	Next() (domain.Bar, bool)
}

// QuantileBinner는 실현 수익률을 자산별 분위 버킷 인덱스로 변환합니다
type QuantileBinner interface {
	// Bucket은 [0, nBins-1] 범위의 버킷 인덱스를 반환합니다
	Bucket(asset string, value float64) int
}

// EntryResult는 진입 주문 처리 결과를 정의합니다
type EntryResult int

const (
	Entered                  EntryResult = iota // 신규 포지션 진입
	Updated                                     // 기존 포지션에 병합 (또는 갱신 상한 도달로 진입 시각만 갱신)
	SkippedInsufficientCache                    // 현금 부족으로 주문 드랍
	SkippedOppositeSide                         // 반대 방향 포지션 존재로 주문 드랍
	SkippedZeroOrder                            // 주문 규모 0으로 드랍
)

// String은 EntryResult의 문자열 표현을 반환합니다
func (r EntryResult) String() string {
	switch r {
	case Entered:
		return "entry"
	case Updated:
		return "updated"
	case SkippedInsufficientCache:
		return "skipped_insufficient_cache"
	case SkippedOppositeSide:
		return "skipped_opposite_side"
	case SkippedZeroOrder:
		return "skipped_zero_order"
	default:
		return "unknown"
	}
}

// Filled는 주문이 실제 체결(신규 또는 병합)되었는지 여부를 반환합니다
func (r EntryResult) Filled() bool {
	return r == Entered || r == Updated
}

// ExitReason은 포지션 청산 이유를 정의합니다
type ExitReason int

const (
	NoExit            ExitReason = iota // 청산되지 않음
	Achieved                            // 목표 분위 수익률 달성
	MaxHoldingMinutes                   // 최대 보유 시간 초과
	OppositeSignal                      // 반대 방향 시그널 발생
)

// String은 ExitReason의 문자열 표현을 반환합니다
func (r ExitReason) String() string {
	switch r {
	case Achieved:
		return "achieved"
	case MaxHoldingMinutes:
		return "max_holding_minutes"
	case OppositeSignal:
		return "opposite_signal"
	default:
		return "no_exit"
	}
}

// ReportRow는 리포트 테이블의 한 행을 표현합니다
type ReportRow struct {
	Time         time.Time // 바 타임스탬프
	Cache        float64   // 가용 현금
	Capital      float64   // 총 자산 (현금 + 미실현 평가액)
	Return       float64   // 자산 변화율 (첫 바는 0)
	TradeReturns []float64 // 해당 바에 청산된 거래의 수익률
	Profits      []float64 // 해당 바에 청산된 거래의 순손익
	EntryReasons []string  // 해당 바의 진입 이벤트
	ExitReasons  []string  // 해당 바의 청산 이벤트
	Positions    []string  // 보유 포지션 스냅샷 (상세 모드에서만 기록)
}

// Metrics는 백테스트 성과 요약 통계를 표현합니다
type Metrics struct {
	WinningRatio float64 `json:"winning_ratio"` // 0이 아닌 바별 수익률 중 양수 비율
	SharpeRatio  float64 `json:"sharpe_ratio"`  // 샤프 지수
	MaxDrawdown  float64 `json:"max_drawdown"`  // 최대 낙폭 (음수)
	AvgReturn    float64 `json:"avg_return"`    // 바별 수익률 평균
	TotalReturn  float64 `json:"total_return"`  // 누적 수익률 Π(1+r)-1
}

// Result는 백테스트 한 런의 결과를 저장하는 구조체입니다
type Result struct {
	BaseCurrency string      // 기준 통화
	Assets       []string    // 거래 대상 자산 목록
	Rows         []ReportRow // 바별 리포트 행
	Metrics      Metrics     // 성과 요약
	StartTime    time.Time   // 첫 바 시간
	EndTime      time.Time   // 마지막 바 시간
}
