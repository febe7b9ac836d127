package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AssetAccuracy는 한 자산에 대한 방향 예측 정확도 요약입니다
type AssetAccuracy struct {
	Total   float64         // 전체 일치 비율
	ByClass map[int]float64 // 예측 클래스별 일치 비율
}

// LoadAccuracy는 예측과 라벨 테이블을 비교해 자산별 정확도를 계산합니다.
// 라벨 파일이 없으면 nil을 반환합니다 (테스트 시점에는 라벨이 없을 수 있음)
func LoadAccuracy(datasetDir, expDir, baseCurrency string) (map[string]AssetAccuracy, error) {
	labelsPath := filepath.Join(expDir, "generated_output", "labels.csv")
	if _, err := os.Stat(labelsPath); os.IsNotExist(err) {
		return nil, nil
	}

	pricingHeader, _, _, err := readTable(filepath.Join(datasetDir, "test", "pricing.csv"))
	if err != nil {
		return nil, fmt.Errorf("시세 테이블 로드 실패: %w", err)
	}

	_, predTimes, predCells, err := readTable(filepath.Join(expDir, "generated_output", "predictions.csv"))
	if err != nil {
		return nil, fmt.Errorf("예측 테이블 로드 실패: %w", err)
	}

	_, labelTimes, labelCells, err := readTable(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("라벨 테이블 로드 실패: %w", err)
	}

	if len(predTimes) != len(labelTimes) {
		return nil, fmt.Errorf("예측과 라벨의 행 수가 다릅니다: %d != %d", len(predTimes), len(labelTimes))
	}

	suffix := strings.ToUpper(baseCurrency)
	result := make(map[string]AssetAccuracy)

	for col, asset := range pricingHeader {
		if !strings.HasSuffix(asset, suffix) {
			continue
		}

		matched := 0
		total := 0
		classMatched := make(map[int]int)
		classTotal := make(map[int]int)

		for row := range predCells {
			pred, okPred := parseClass(predCells[row][col])
			label, okLabel := parseClass(labelCells[row][col])
			if !okPred || !okLabel {
				continue
			}

			total++
			classTotal[pred]++
			if pred == label {
				matched++
				classMatched[pred]++
			}
		}

		if total == 0 {
			continue
		}

		acc := AssetAccuracy{
			Total:   float64(matched) / float64(total),
			ByClass: make(map[int]float64, len(classTotal)),
		}
		for class, n := range classTotal {
			acc.ByClass[class] = float64(classMatched[class]) / float64(n)
		}
		result[asset] = acc
	}

	return result, nil
}

// LoadQuantileAccuracy는 분위 예측과 분위 라벨 테이블을 비교해 자산별
// 버킷 일치 비율을 계산합니다. 라벨 파일이 없으면 nil을 반환합니다
func LoadQuantileAccuracy(datasetDir, expDir, baseCurrency string) (map[string]float64, error) {
	qLabelsPath := filepath.Join(expDir, "generated_output", "q_labels.csv")
	if _, err := os.Stat(qLabelsPath); os.IsNotExist(err) {
		return nil, nil
	}

	pricingHeader, _, _, err := readTable(filepath.Join(datasetDir, "test", "pricing.csv"))
	if err != nil {
		return nil, fmt.Errorf("시세 테이블 로드 실패: %w", err)
	}

	_, qPredTimes, qPredCells, err := readTable(filepath.Join(expDir, "generated_output", "q_predictions.csv"))
	if err != nil {
		return nil, fmt.Errorf("분위 예측 테이블 로드 실패: %w", err)
	}

	_, qLabelTimes, qLabelCells, err := readTable(qLabelsPath)
	if err != nil {
		return nil, fmt.Errorf("분위 라벨 테이블 로드 실패: %w", err)
	}

	if len(qPredTimes) != len(qLabelTimes) {
		return nil, fmt.Errorf("분위 예측과 라벨의 행 수가 다릅니다: %d != %d", len(qPredTimes), len(qLabelTimes))
	}

	suffix := strings.ToUpper(baseCurrency)
	result := make(map[string]float64)

	for col, asset := range pricingHeader {
		if !strings.HasSuffix(asset, suffix) {
			continue
		}

		matched := 0
		total := 0
		for row := range qPredCells {
			pred, okPred := parseClass(qPredCells[row][col])
			label, okLabel := parseClass(qLabelCells[row][col])
			if !okPred || !okLabel {
				continue
			}

			total++
			if pred == label {
				matched++
			}
		}

		if total == 0 {
			continue
		}
		result[asset] = float64(matched) / float64(total)
	}

	return result, nil
}

func parseClass(cell string) (int, bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, false
	}
	class, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return class, true
}
