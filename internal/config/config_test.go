package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kairos/internal/domain"
)

func writeParamsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParams_Defaults(t *testing.T) {
	params, err := LoadParams("")
	require.NoError(t, err)

	assert.Equal(t, domain.TradeLong, params.PositionSide)
	assert.Equal(t, 0.1, params.EntryRatio)
	assert.Equal(t, 0.0015, params.Commission.Entry)
	assert.Equal(t, 0.0015, params.Commission.Exit)
	assert.Equal(t, domain.CriterionCache, params.OrderCriterion)
	assert.Nil(t, params.MaxNUpdated)
	assert.Equal(t, -1, params.ExitQThreshold)
}

func TestLoadParams_Override(t *testing.T) {
	path := writeParamsFile(t, `
position_side: longshort
entry_ratio: 0.2
commission:
  entry: 0.001
  exit: 0.002
max_holding_minutes: 30
order_criterion: capital
possible_in_debt: true
max_n_updated: 3
exit_q_threshold: 8
`)

	params, err := LoadParams(path)
	require.NoError(t, err)

	assert.Equal(t, domain.TradeLongShort, params.PositionSide)
	assert.Equal(t, 0.2, params.EntryRatio)
	assert.Equal(t, 0.001, params.Commission.Entry)
	assert.Equal(t, 0.002, params.Commission.Exit)
	assert.Equal(t, 30.0, params.MaxHoldingMinutes)
	assert.Equal(t, domain.CriterionCapital, params.OrderCriterion)
	assert.True(t, params.PossibleInDebt)
	require.NotNil(t, params.MaxNUpdated)
	assert.Equal(t, 3, *params.MaxNUpdated)
	assert.Equal(t, 8, params.ExitQThreshold)

	// 파일에 없는 값은 기본값을 유지해야 합니다
	assert.Equal(t, 1.0, params.MinHoldingMinutes)
	assert.True(t, params.ExitIfAchieved)
}

func TestLoadParams_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "유효하지 않은 position_side", content: "position_side: hedge"},
		{name: "유효하지 않은 order_criterion", content: "order_criterion: equity"},
		{name: "entry_ratio 0", content: "entry_ratio: 0"},
		{name: "entry_ratio 1 초과", content: "entry_ratio: 1.5"},
		{name: "achieve_ratio 음수", content: "achieve_ratio: -1"},
		{name: "max_n_updated 음수", content: "max_n_updated: -1"},
		{name: "YAML 문법 오류", content: "position_side: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeParamsFile(t, tt.content)
			_, err := LoadParams(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadParams_MissingFile(t *testing.T) {
	_, err := LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATASET_DIR", "/data/dataset")
	t.Setenv("EXP_DIR", "/data/exp")
	t.Setenv("BASE_CURRENCIES", "USDT,BTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/data/dataset", cfg.Data.DatasetDir)
	assert.Equal(t, "/data/exp", cfg.Data.ExpDir)
	assert.Equal(t, "001", cfg.Report.Prefix)
	assert.Equal(t, []string{"USDT", "BTC"}, cfg.Run.BaseCurrencies)
}
