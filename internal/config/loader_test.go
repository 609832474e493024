package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbdsim/core/internal/domain"
)

func validYAML() string {
	return `
portfolio:
  assets:
    - id: stocks
      weight: 0.6
      assetClass: equity_index
      historical: [0.10, -0.05, 0.12, 0.08, 0.03, 0.15]
    - id: bonds
      weight: 0.4
      assetClass: fixed_income
      historical: [0.04, 0.03, 0.02, 0.05, 0.01, 0.03]
  correlation:
    - [1.0, 0.2]
    - [0.2, 1.0]
simulation:
  iterations: 1000
  years: 20
  initialValue: 1000000
  method: simple
`
}

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFromFileValid(t *testing.T) {
	path := writeTemp(t, validYAML())
	cfg, err := NewLoader().LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, len(cfg.Portfolio.Assets))
	assert.Equal(t, 1000, cfg.Simulation.Iterations)
	assert.NotNil(t, cfg.Sell)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := NewLoader().LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidatePortfolioWeightsMustSumToOne(t *testing.T) {
	cfg := RunConfig{
		Portfolio: domain.Portfolio{
			Assets: []domain.Asset{
				{ID: "a", Weight: 0.5, Historical: []float64{0.1, 0.1, 0.1, 0.1, 0.1}},
				{ID: "b", Weight: 0.3, Historical: []float64{0.1, 0.1, 0.1, 0.1, 0.1}},
			},
		},
		Simulation: domain.SimulationConfig{Iterations: 100, Years: 10, InitialValue: 1, Method: domain.ResamplingSimple},
	}
	err := NewLoader().Validate(&cfg)
	require.Error(t, err)
	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "portfolio.assets", cerr.Field)
}

func TestValidatePortfolioRequiresMinimumHistory(t *testing.T) {
	cfg := RunConfig{
		Portfolio: domain.Portfolio{
			Assets: []domain.Asset{
				{ID: "a", Weight: 1.0, Historical: []float64{0.1, 0.1}},
			},
		},
		Simulation: domain.SimulationConfig{Iterations: 100, Years: 10, InitialValue: 1, Method: domain.ResamplingSimple},
	}
	err := NewLoader().Validate(&cfg)
	assert.Error(t, err)
}

func TestValidateCorrelationMustBeSymmetric(t *testing.T) {
	cfg := RunConfig{
		Portfolio: domain.Portfolio{
			Assets: []domain.Asset{
				{ID: "a", Weight: 0.5, Historical: []float64{0.1, 0.1, 0.1, 0.1, 0.1}},
				{ID: "b", Weight: 0.5, Historical: []float64{0.1, 0.1, 0.1, 0.1, 0.1}},
			},
			Correlation: [][]float64{{1.0, 0.3}, {0.9, 1.0}},
		},
		Simulation: domain.SimulationConfig{Iterations: 100, Years: 10, InitialValue: 1, Method: domain.ResamplingSimple},
	}
	err := NewLoader().Validate(&cfg)
	assert.Error(t, err)
}

func TestValidateSBLOCMaintenanceMarginCannotExceedMaxLTV(t *testing.T) {
	sbloc := &domain.SBLOCConfig{
		AnnualRate:         0.05,
		MaxLTV:             0.5,
		MaintenanceMargin:  0.6,
		LiquidationHaircut: 0.1,
		AnnualWithdrawal:   10000,
	}
	err := NewLoader().validateSBLOC(sbloc)
	require.Error(t, err)
	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "simulation.sbloc.maintenanceMargin", cerr.Field)
}

func TestValidateSimulationRejectsUnknownMethod(t *testing.T) {
	sim := &domain.SimulationConfig{Iterations: 1, Years: 1, InitialValue: 1, Method: "bogus"}
	err := NewLoader().validateSimulation(sim, 1)
	assert.Error(t, err)
}
