package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/assist-by/kairos/internal/domain"
)

// Config는 환경변수로 들어오는 런 레벨 설정입니다
type Config struct {
	// 데이터 경로 설정
	Data struct {
		DatasetDir string `envconfig:"DATASET_DIR" required:"true"`
		ExpDir     string `envconfig:"EXP_DIR" required:"true"`
	}

	// 리포트 설정
	Report struct {
		Prefix string `envconfig:"REPORT_PREFIX" default:"001"`
		Detail bool   `envconfig:"DETAIL_REPORT" default:"false"`
	}

	// 백테스트 실행 설정
	Run struct {
		BaseCurrencies []string `envconfig:"BASE_CURRENCIES" default:"USDT"`
		ParamsFile     string   `envconfig:"PARAMS_FILE" default:""`
	}
}

// Commission은 진입/청산 수수료율을 정의합니다
type Commission struct {
	Entry float64 `yaml:"entry"`
	Exit  float64 `yaml:"exit"`
}

// BacktestParams는 YAML 파라미터 파일로 들어오는 백테스트 설정입니다
type BacktestParams struct {
	PositionSide           domain.TradeSide      `yaml:"position_side"`
	EntryRatio             float64               `yaml:"entry_ratio"`
	Commission             Commission            `yaml:"commission"`
	MinHoldingMinutes      float64               `yaml:"min_holding_minutes"`
	MaxHoldingMinutes      float64               `yaml:"max_holding_minutes"`
	CompoundInterest       bool                  `yaml:"compound_interest"`
	OrderCriterion         domain.OrderCriterion `yaml:"order_criterion"`
	PossibleInDebt         bool                  `yaml:"possible_in_debt"`
	ExitIfAchieved         bool                  `yaml:"exit_if_achieved"`
	AchieveRatio           float64               `yaml:"achieve_ratio"`
	AchievedWithCommission bool                  `yaml:"achieved_with_commission"`
	MaxNUpdated            *int                  `yaml:"max_n_updated"`
	ExitQThreshold         int                   `yaml:"exit_q_threshold"`
}

// DefaultBacktestParams는 기본 백테스트 파라미터를 반환합니다
func DefaultBacktestParams() BacktestParams {
	return BacktestParams{
		PositionSide:           domain.TradeLong,
		EntryRatio:             0.1,
		Commission:             Commission{Entry: 0.0015, Exit: 0.0015},
		MinHoldingMinutes:      1,
		MaxHoldingMinutes:      10,
		CompoundInterest:       true,
		OrderCriterion:         domain.CriterionCache,
		PossibleInDebt:         false,
		ExitIfAchieved:         true,
		AchieveRatio:           1.0,
		AchievedWithCommission: false,
		MaxNUpdated:            nil,
		ExitQThreshold:         -1, // 음수면 데이터셋 파라미터의 q_threshold를 사용
	}
}

// ValidateParams는 백테스트 파라미터가 유효한지 확인합니다
func ValidateParams(p *BacktestParams) error {
	if !p.PositionSide.IsValid() {
		return fmt.Errorf("유효하지 않은 position_side: %q", p.PositionSide)
	}

	if !p.OrderCriterion.IsValid() {
		return fmt.Errorf("유효하지 않은 order_criterion: %q", p.OrderCriterion)
	}

	if p.EntryRatio <= 0 || p.EntryRatio > 1 {
		return fmt.Errorf("entry_ratio는 0 초과 1 이하이어야 합니다: %f", p.EntryRatio)
	}

	if p.AchieveRatio <= 0 {
		return fmt.Errorf("achieve_ratio는 0보다 커야 합니다: %f", p.AchieveRatio)
	}

	if p.MaxNUpdated != nil && *p.MaxNUpdated < 0 {
		return fmt.Errorf("max_n_updated는 음수일 수 없습니다: %d", *p.MaxNUpdated)
	}

	return nil
}

// LoadParams는 YAML 파일에서 백테스트 파라미터를 로드합니다.
// 경로가 비어 있으면 기본값을 사용합니다
func LoadParams(path string) (*BacktestParams, error) {
	params := DefaultBacktestParams()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("파라미터 파일 읽기 실패: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("파라미터 파일 파싱 실패: %w", err)
		}
	}

	if err := ValidateParams(&params); err != nil {
		return nil, fmt.Errorf("파라미터 검증 실패: %w", err)
	}

	return &params, nil
}

// LoadConfig는 환경변수에서 런 설정을 로드합니다
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	return &cfg, nil
}
