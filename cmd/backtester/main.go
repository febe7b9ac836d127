package main

import (
	"flag"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/assist-by/kairos/internal/backtest"
	"github.com/assist-by/kairos/internal/config"
	"github.com/assist-by/kairos/internal/dataset"
)

func main() {
	// 명령줄 플래그 정의
	paramsFlag := flag.String("params", "", "백테스트 파라미터 YAML 파일 경로 (PARAMS_FILE보다 우선)")
	detailFlag := flag.Bool("detail", false, "리포트에 포지션 스냅샷 포함")
	baseFlag := flag.String("base", "", "기준 통화 목록 (쉼표 구분, BASE_CURRENCIES보다 우선)")

	flag.Parse()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("백테스터 시작...")

	// .env 파일 로드 (없으면 환경변수만 사용)
	if err := godotenv.Load(); err != nil {
		log.Println(".env 파일이 없어 환경변수만 사용합니다")
	}

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	paramsPath := cfg.Run.ParamsFile
	if *paramsFlag != "" {
		paramsPath = *paramsFlag
	}

	params, err := config.LoadParams(paramsPath)
	if err != nil {
		log.Fatalf("파라미터 로드 실패: %v", err)
	}

	detail := cfg.Report.Detail || *detailFlag

	baseCurrencies := cfg.Run.BaseCurrencies
	if *baseFlag != "" {
		baseCurrencies = strings.Split(*baseFlag, ",")
	}

	reportDir := filepath.Join(cfg.Data.ExpDir, "reports")

	// 기준 통화별 백테스트는 상태를 공유하지 않으므로 병렬로 실행합니다
	var wg sync.WaitGroup
	errCh := make(chan error, len(baseCurrencies))

	for _, baseCurrency := range baseCurrencies {
		baseCurrency := strings.TrimSpace(baseCurrency)
		if baseCurrency == "" {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runOne(cfg, params, baseCurrency, detail, reportDir); err != nil {
				log.Printf("백테스트 실패 (%s): %v", baseCurrency, err)
				errCh <- err
			}
		}()
	}

	wg.Wait()
	close(errCh)

	if len(errCh) > 0 {
		log.Fatalf("%d개 기준 통화의 백테스트가 실패했습니다", len(errCh))
	}

	log.Println("모든 백테스트 완료")
}

// runOne은 기준 통화 하나에 대한 백테스트를 실행하고 리포트를 저장합니다
func runOne(cfg *config.Config, params *config.BacktestParams, baseCurrency string, detail bool, reportDir string) error {
	ds, err := dataset.Load(cfg.Data.DatasetDir, cfg.Data.ExpDir, baseCurrency)
	if err != nil {
		return err
	}

	binner, err := dataset.LoadBins(filepath.Join(cfg.Data.DatasetDir, "bins.csv"), ds.Params.NBins)
	if err != nil {
		return err
	}

	// 라벨이 있으면 예측 정확도를 먼저 보고합니다
	if accuracy, err := dataset.LoadAccuracy(cfg.Data.DatasetDir, cfg.Data.ExpDir, baseCurrency); err != nil {
		log.Printf("정확도 계산 실패 (%s): %v", baseCurrency, err)
	} else {
		for asset, acc := range accuracy {
			log.Printf("예측 정확도: %s total=%.4f byClass=%v", asset, acc.Total, acc.ByClass)
		}
	}

	if qAccuracy, err := dataset.LoadQuantileAccuracy(cfg.Data.DatasetDir, cfg.Data.ExpDir, baseCurrency); err != nil {
		log.Printf("분위 정확도 계산 실패 (%s): %v", baseCurrency, err)
	} else {
		for asset, acc := range qAccuracy {
			log.Printf("분위 예측 정확도: %s total=%.4f", asset, acc)
		}
	}

	engine, err := backtest.NewEngine(params, ds, binner, ds.Params.NBins, ds.Params.QThreshold, baseCurrency, detail)
	if err != nil {
		return err
	}

	result, err := engine.Run()
	if err != nil {
		return err
	}

	if err := backtest.Store(result, params, ds.Params.QThreshold, ds.Params.NBins, cfg.Report.Prefix, reportDir); err != nil {
		return err
	}

	log.Printf("리포트 저장 완료: %s_%s (%s)", cfg.Report.Prefix, baseCurrency, reportDir)
	return nil
}
