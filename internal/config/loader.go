// Package config loads and validates a simulation run's input file: the
// portfolio (assets, weights, historical series, correlation matrix),
// the Monte Carlo parameters, and the optional SBLOC terms.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bbdsim/core/internal/domain"
)

// RunConfig is the top-level shape of a run's input file.
type RunConfig struct {
	Portfolio  domain.Portfolio        `yaml:"portfolio" json:"portfolio"`
	Simulation domain.SimulationConfig `yaml:"simulation" json:"simulation"`
	Sell       *domain.SellCalculationConfig `yaml:"sell,omitempty" json:"sell,omitempty"`
}

// Loader parses and validates run configuration files.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile reads filename (YAML or JSON, both accepted by the YAML
// parser) and returns a validated RunConfig.
func (l *Loader) LoadFromFile(filename string) (*RunConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.Sell == nil {
		defaults := domain.DefaultSellCalculationConfig()
		cfg.Sell = &defaults
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a RunConfig's internal consistency. It returns a
// *domain.ConfigurationError on the first violation found.
func (l *Loader) Validate(cfg *RunConfig) error {
	if err := l.validatePortfolio(&cfg.Portfolio); err != nil {
		return err
	}
	if err := l.validateSimulation(&cfg.Simulation, len(cfg.Portfolio.Assets)); err != nil {
		return err
	}
	if cfg.Simulation.SBLOC != nil {
		if err := l.validateSBLOC(cfg.Simulation.SBLOC); err != nil {
			return err
		}
	}
	return nil
}

const weightTolerance = 1e-9

func (l *Loader) validatePortfolio(p *domain.Portfolio) error {
	if len(p.Assets) == 0 {
		return domain.NewConfigurationError("portfolio.assets", "at least one asset is required")
	}

	weightSum := 0.0
	for i, a := range p.Assets {
		if a.ID == "" {
			return domain.NewConfigurationError(fmt.Sprintf("portfolio.assets[%d].id", i), "asset id is required")
		}
		if a.Weight < 0 {
			return domain.NewConfigurationError(fmt.Sprintf("portfolio.assets[%d].weight", i), "weight cannot be negative")
		}
		if len(a.Historical) < 5 {
			return domain.NewConfigurationError(fmt.Sprintf("portfolio.assets[%d].historical", i), "at least 5 years of historical returns are required")
		}
		weightSum += a.Weight
	}
	if math.Abs(weightSum-1.0) > weightTolerance {
		return domain.NewConfigurationError("portfolio.assets", fmt.Sprintf("asset weights must sum to 1.0, got %v", weightSum))
	}

	n := len(p.Assets)
	if p.Correlation != nil {
		if len(p.Correlation) != n {
			return domain.NewConfigurationError("portfolio.correlation", fmt.Sprintf("correlation matrix must be %dx%d", n, n))
		}
		for i, row := range p.Correlation {
			if len(row) != n {
				return domain.NewConfigurationError("portfolio.correlation", fmt.Sprintf("correlation matrix row %d must have %d entries", i, n))
			}
			for j, v := range row {
				if v < -1.0001 || v > 1.0001 {
					return domain.NewConfigurationError("portfolio.correlation", fmt.Sprintf("correlation[%d][%d]=%v out of [-1,1]", i, j, v))
				}
				if i != j && math.Abs(v-p.Correlation[j][i]) > 1e-6 {
					return domain.NewConfigurationError("portfolio.correlation", "correlation matrix must be symmetric")
				}
			}
			if math.Abs(row[i]-1.0) > 1e-6 {
				return domain.NewConfigurationError("portfolio.correlation", fmt.Sprintf("correlation[%d][%d] diagonal must be 1.0", i, i))
			}
		}
	}

	return nil
}

func (l *Loader) validateSimulation(s *domain.SimulationConfig, numAssets int) error {
	if s.Iterations <= 0 {
		return domain.NewConfigurationError("simulation.iterations", "must be positive")
	}
	if s.Years <= 0 {
		return domain.NewConfigurationError("simulation.years", "must be positive")
	}
	if s.InitialValue <= 0 {
		return domain.NewConfigurationError("simulation.initialValue", "must be positive")
	}
	switch s.Method {
	case domain.ResamplingSimple, domain.ResamplingBlock, domain.ResamplingRegime:
	case "":
		return domain.NewConfigurationError("simulation.method", "method is required")
	default:
		return domain.NewConfigurationError("simulation.method", fmt.Sprintf("unknown method %q", s.Method))
	}
	if s.Method == domain.ResamplingRegime {
		switch s.Calibration {
		case domain.CalibrationHistorical, domain.CalibrationConservative, "":
		default:
			return domain.NewConfigurationError("simulation.calibration", fmt.Sprintf("unknown calibration %q", s.Calibration))
		}
	}
	if s.BlockSize != nil && *s.BlockSize <= 0 {
		return domain.NewConfigurationError("simulation.blockSize", "must be positive when set")
	}
	return nil
}

func (l *Loader) validateSBLOC(s *domain.SBLOCConfig) error {
	if s.AnnualRate < 0 {
		return domain.NewConfigurationError("simulation.sbloc.annualRate", "cannot be negative")
	}
	if s.MaxLTV <= 0 || s.MaxLTV >= 1 {
		return domain.NewConfigurationError("simulation.sbloc.maxLTV", "must be in (0, 1)")
	}
	if s.MaintenanceMargin <= 0 || s.MaintenanceMargin >= 1 {
		return domain.NewConfigurationError("simulation.sbloc.maintenanceMargin", "must be in (0, 1)")
	}
	if s.MaintenanceMargin > s.MaxLTV {
		return domain.NewConfigurationError("simulation.sbloc.maintenanceMargin", "cannot exceed maxLTV")
	}
	if s.LiquidationHaircut < 0 || s.LiquidationHaircut >= 1 {
		return domain.NewConfigurationError("simulation.sbloc.liquidationHaircut", "must be in [0, 1)")
	}
	if s.AnnualWithdrawal < 0 {
		return domain.NewConfigurationError("simulation.sbloc.annualWithdrawal", "cannot be negative")
	}
	switch s.Compounding {
	case domain.CompoundAnnual, domain.CompoundMonthly, "":
	default:
		return domain.NewConfigurationError("simulation.sbloc.compounding", fmt.Sprintf("unknown compounding %q", s.Compounding))
	}
	return nil
}
