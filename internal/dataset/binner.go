package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Binner는 자산별 분위 임계값으로 수익률을 버킷 인덱스로 변환합니다.
// backtest.QuantileBinner를 구현합니다
type Binner struct {
	edges map[string][]float64 // 자산별 오름차순 임계값 (nBins-1개)
	nBins int
}

// LoadBins는 bins.csv에서 자산별 분위 임계값을 로드합니다.
// 테이블은 행이 임계값, 열이 자산입니다 (첫 열은 인덱스)
func LoadBins(path string, nBins int) (*Binner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("분위 임계값 로드 실패: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("분위 임계값 파싱 실패: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("분위 임계값 테이블에 데이터가 없습니다: %s", path)
	}

	assets := records[0][1:]
	edges := make(map[string][]float64, len(assets))

	for _, record := range records[1:] {
		for i, cell := range record[1:] {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				continue
			}
			v, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return nil, fmt.Errorf("분위 임계값 파싱 실패 (%s): %w", assets[i], err)
			}
			edges[assets[i]] = append(edges[assets[i]], v)
		}
	}

	for asset, assetEdges := range edges {
		if !sort.Float64sAreSorted(assetEdges) {
			return nil, fmt.Errorf("분위 임계값이 오름차순이 아닙니다: %s", asset)
		}
	}

	return &Binner{edges: edges, nBins: nBins}, nil
}

// NewBinner는 자산별 임계값으로 비너를 직접 생성합니다
func NewBinner(edges map[string][]float64, nBins int) *Binner {
	return &Binner{edges: edges, nBins: nBins}
}

// Bucket은 값 이하의 임계값 개수를 [0, nBins-1]로 클램프해 반환합니다
func (b *Binner) Bucket(asset string, value float64) int {
	edges := b.edges[asset]

	bucket := sort.SearchFloat64s(edges, value)
	for bucket < len(edges) && edges[bucket] == value {
		bucket++
	}

	if bucket > b.nBins-1 {
		bucket = b.nBins - 1
	}
	return bucket
}
