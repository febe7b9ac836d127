package dataset

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/assist-by/kairos/internal/domain"
)

// Params는 데이터셋 생성 시 기록된 파라미터입니다 (params.json)
type Params struct {
	QThreshold int `json:"q_threshold"`
	NBins      int `json:"n_bins"`
}

// Dataset은 시세, 방향 예측, 분위 예측 테이블을 정렬된 바 시퀀스로
// 공급하는 히스토리컬 데이터 소스입니다. backtest.BarSource를 구현합니다
type Dataset struct {
	Params Params

	assets    []string    // 기준 통화 필터링 후 자산 목록 (시세 열 순서)
	times     []time.Time // 예측 테이블의 타임스탬프 (오름차순)
	pricing   []map[string]float64
	classes   []map[string]domain.SignalClass
	quantiles []map[string]int
	cursor    int
}

// Load는 데이터셋 디렉터리와 실험 디렉터리에서 기준 통화에 해당하는
// 히스토리컬 데이터를 로드합니다
func Load(datasetDir, expDir, baseCurrency string) (*Dataset, error) {
	params, err := loadParams(filepath.Join(datasetDir, "params.json"))
	if err != nil {
		return nil, err
	}

	pricingHeader, pricingTimes, pricingCells, err := readTable(filepath.Join(datasetDir, "test", "pricing.csv"))
	if err != nil {
		return nil, fmt.Errorf("시세 테이블 로드 실패: %w", err)
	}

	// 예측 테이블의 열 이름은 시세 테이블 열을 위치 기준으로 따릅니다
	_, predTimes, predCells, err := readTable(filepath.Join(expDir, "generated_output", "predictions.csv"))
	if err != nil {
		return nil, fmt.Errorf("예측 테이블 로드 실패: %w", err)
	}

	_, qTimes, qCells, err := readTable(filepath.Join(expDir, "generated_output", "q_predictions.csv"))
	if err != nil {
		return nil, fmt.Errorf("분위 예측 테이블 로드 실패: %w", err)
	}

	qRows := make(map[time.Time][]string, len(qTimes))
	for row, ts := range qTimes {
		qRows[ts] = qCells[row]
	}

	// 기준 통화로 끝나는 열만 거래 대상으로 남깁니다
	suffix := strings.ToUpper(baseCurrency)
	keep := make([]int, 0, len(pricingHeader))
	assets := make([]string, 0, len(pricingHeader))
	for i, column := range pricingHeader {
		if strings.HasSuffix(column, suffix) {
			keep = append(keep, i)
			assets = append(assets, column)
		}
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("기준 통화 %s에 해당하는 자산이 없습니다", baseCurrency)
	}

	pricingByTime := make(map[time.Time]map[string]float64, len(pricingTimes))
	for row, ts := range pricingTimes {
		prices := make(map[string]float64, len(keep))
		for j, col := range keep {
			v, err := parseFloat(pricingCells[row][col])
			if err != nil {
				return nil, fmt.Errorf("시세 파싱 실패 (%s, %s): %w", ts, assets[j], err)
			}
			prices[assets[j]] = v
		}
		pricingByTime[ts] = prices
	}

	ds := &Dataset{
		Params: params,
		assets: assets,
	}

	// 리플레이 인덱스는 예측 테이블을 따릅니다
	for row, ts := range predTimes {
		prices, ok := pricingByTime[ts]
		if !ok {
			return nil, fmt.Errorf("예측 타임스탬프 %s에 해당하는 시세가 없습니다", ts)
		}

		classes := make(map[string]domain.SignalClass, len(keep))
		for j, col := range keep {
			if col >= len(predCells[row]) {
				return nil, fmt.Errorf("예측 테이블 열 수가 시세 테이블과 다릅니다 (행 %d)", row)
			}
			cell := strings.TrimSpace(predCells[row][col])
			if cell == "" {
				classes[assets[j]] = domain.ClassNeutral
				continue
			}
			class, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("예측 클래스 파싱 실패 (%s, %s): %w", ts, assets[j], err)
			}
			classes[assets[j]] = domain.SignalClass(class)
		}

		// 분위 예측은 방향 예측과 같은 생성 파이프라인에서 나오므로
		// 타임스탬프 인덱스를 공유합니다
		qRow, ok := qRows[ts]
		if !ok {
			return nil, fmt.Errorf("예측 타임스탬프 %s에 해당하는 분위 예측이 없습니다", ts)
		}

		quantiles := make(map[string]int, len(keep))
		for j, col := range keep {
			if col >= len(qRow) {
				return nil, fmt.Errorf("분위 예측 테이블 열 수가 시세 테이블과 다릅니다 (행 %d)", row)
			}
			cell := strings.TrimSpace(qRow[col])
			if cell == "" {
				continue
			}
			q, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("분위 예측 파싱 실패 (%s, %s): %w", ts, assets[j], err)
			}
			quantiles[assets[j]] = q
		}

		ds.times = append(ds.times, ts)
		ds.pricing = append(ds.pricing, prices)
		ds.classes = append(ds.classes, classes)
		ds.quantiles = append(ds.quantiles, quantiles)
	}

	if len(ds.times) == 0 {
		return nil, fmt.Errorf("예측 테이블이 비어 있습니다")
	}

	return ds, nil
}

// Assets는 거래 가능 자산 목록을 시세 열 순서대로 반환합니다
func (d *Dataset) Assets() []string {
	return d.assets
}

// Len은 리플레이할 바 수를 반환합니다
func (d *Dataset) Len() int {
	return len(d.times)
}

// Next는 다음 바를 반환합니다. 상승/하락 자산 집합은 방향 예측
// 클래스로부터 자산 열 순서를 유지한 채 만들어집니다
func (d *Dataset) Next() (domain.Bar, bool) {
	if d.cursor >= len(d.times) {
		return domain.Bar{}, false
	}

	i := d.cursor
	d.cursor++

	bar := domain.Bar{
		Time:      d.times[i],
		Prices:    d.pricing[i],
		Quantiles: d.quantiles[i],
	}

	for _, asset := range d.assets {
		switch d.classes[i][asset] {
		case domain.ClassUp:
			bar.PositiveAssets = append(bar.PositiveAssets, asset)
		case domain.ClassDown:
			bar.NegativeAssets = append(bar.NegativeAssets, asset)
		}
	}

	return bar, true
}

// Reset은 리플레이 커서를 처음으로 되돌립니다
func (d *Dataset) Reset() {
	d.cursor = 0
}

// loadParams는 params.json을 로드합니다
func loadParams(path string) (Params, error) {
	var params Params

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("데이터셋 파라미터 로드 실패: %w", err)
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("데이터셋 파라미터 파싱 실패: %w", err)
	}

	if params.NBins <= 0 {
		return params, fmt.Errorf("n_bins가 유효하지 않습니다: %d", params.NBins)
	}

	return params, nil
}

// readTable은 타임스탬프 인덱스 열을 가진 CSV 테이블을 읽습니다.
// .gz 확장자는 투명하게 압축 해제합니다
func readTable(path string) (header []string, times []time.Time, cells [][]string, err error) {
	f, err := openMaybeGzip(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("CSV 읽기 실패 (%s): %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, nil, fmt.Errorf("테이블에 데이터 행이 없습니다: %s", path)
	}

	// 첫 열은 타임스탬프 인덱스입니다
	header = records[0][1:]
	for _, record := range records[1:] {
		ts, err := parseTime(record[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("타임스탬프 파싱 실패 (%s): %w", path, err)
		}
		times = append(times, ts)
		cells = append(cells, record[1:])
	}

	return header, times, cells, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openMaybeGzip은 파일을 열고 .gz 확장자면 gzip 리더로 감쌉니다
func openMaybeGzip(path string) (io.ReadCloser, error) {
	// 압축본만 있는 경우를 지원합니다
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, err := os.Stat(path + ".gz"); err == nil {
			path += ".gz"
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("파일 열기 실패: %w", err)
	}

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip 해제 실패 (%s): %w", path, err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	}

	return f, nil
}

func parseTime(value string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("지원하지 않는 타임스탬프 형식: %q", value)
}

func parseFloat(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(trimmed, 64)
}
