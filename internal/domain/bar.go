package domain

import "time"

// Bar는 리플레이 한 스텝의 시세와 시그널 데이터를 표현합니다
type Bar struct {
	Time           time.Time          // 바 타임스탬프
	Prices         map[string]float64 // 자산별 종가
	Quantiles      map[string]int     // 자산별 수익률 분위 예측 버킷
	PositiveAssets []string           // 상승 예측 자산 (데이터 소스가 공급한 순서 유지)
	NegativeAssets []string           // 하락 예측 자산 (데이터 소스가 공급한 순서 유지)
}

// Price는 자산의 시세를 반환합니다. 해당 바에 시세가 없으면 false를 반환합니다
func (b Bar) Price(asset string) (float64, bool) {
	price, ok := b.Prices[asset]
	return price, ok
}

// Quantile은 자산의 분위 예측 버킷을 반환합니다. 해당 바에 예측이
// 없으면 false를 반환합니다
func (b Bar) Quantile(asset string) (int, bool) {
	q, ok := b.Quantiles[asset]
	return q, ok
}
