package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bbdsim/core/internal/domain"
)

func TestCAGRBasic(t *testing.T) {
	got := CAGR(100000, 200000, 10)
	want := math.Pow(2, 0.1) - 1
	assert.InDelta(t, want, got, 1e-12)
}

func TestCAGRNonPositiveTerminalIsNegativeOne(t *testing.T) {
	assert.Equal(t, -1.0, CAGR(100000, 0, 10))
	assert.Equal(t, -1.0, CAGR(100000, -500, 10))
}

func TestTWRRGeometricChaining(t *testing.T) {
	// Two years: +10%, then -10%. TWRR over 2 years:
	// (1.10*0.90)^(1/2) - 1 = sqrt(0.99) - 1
	path := []float64{100, 110, 99}
	got := TWRR(path)
	want := math.Sqrt(0.99) - 1
	assert.InDelta(t, want, got, 1e-12)
}

func TestTWRRInvalidInputsYieldNaN(t *testing.T) {
	assert.True(t, math.IsNaN(TWRR(nil)))
	assert.True(t, math.IsNaN(TWRR([]float64{100})))
	assert.True(t, math.IsNaN(TWRR([]float64{0, 10})))
}

func TestSalaryEquivalentIdentities(t *testing.T) {
	// salaryEquivalent(w, 0) == w
	assert.InDelta(t, 50000.0, SalaryEquivalent(50000, 0), 1e-9)
	// salaryEquivalent(0, t) == 0 for any t < 1
	assert.Equal(t, 0.0, SalaryEquivalent(0, 0.37))
	// t == 1 yields +Inf
	assert.True(t, math.IsInf(SalaryEquivalent(10000, 1), 1))
}

func TestSellCounterfactualGrossUpTax(t *testing.T) {
	// spec.md S3: portfolio 1,000,000; 60% gain / 40% basis;
	// withdrawal 100,000; capital-gains rate 23.8%.
	// Expected gross sale = 114,280; post-sale portfolio = 885,720
	// (checked before market growth is applied, so use a zero return).
	cfg := domain.SellCalculationConfig{
		CostBasisRatio:   0.4,
		DividendYield:    0,
		DividendTaxRate:  0,
		CapitalGainsRate: 0.238,
	}
	result := SellCounterfactual(1000000, []float64{0}, 100000, cfg)
	assert.InDelta(t, 885720, result, 1e-6)
}

func TestSellCounterfactualDegeneratesToPureDrawdown(t *testing.T) {
	// Invariant #8: dividendYield=0, costBasisRatio=1 -> terminal value
	// equals the market path applied to value minus gross withdrawals
	// (no tax drag at all, since gain = withdrawal*(1-1) = 0).
	cfg := domain.SellCalculationConfig{
		CostBasisRatio:   1.0,
		DividendYield:    0,
		DividendTaxRate:  0,
		CapitalGainsRate: 0.238,
	}
	returns := []float64{0.05, -0.02, 0.08}
	got := SellCounterfactual(100000, returns, 10000, cfg)

	want := 100000.0
	for _, r := range returns {
		want -= 10000
		want *= 1 + r
	}
	assert.InDelta(t, want, got, 1e-6)
}

func TestEmbeddedGainsAndStepUp(t *testing.T) {
	gains, savings := EmbeddedGainsAndStepUp(1000000, 0.4, 0.238)
	assert.InDelta(t, 600000, gains, 1e-9)
	assert.InDelta(t, 142800, savings, 1e-6)
}

func TestDrawdownFromPathFindsWorstDecline(t *testing.T) {
	years := []int{0, 1, 2, 3, 4, 5}
	path := []float64{100, 120, 90, 80, 95, 130}
	dd := DrawdownFromPath(years, path)
	assert.Equal(t, 1, dd.PeakYear)
	assert.Equal(t, 3, dd.TroughYear)
	assert.InDelta(t, (120.0-80.0)/120.0, dd.LossPercent, 1e-9)
	assert.True(t, dd.Recovered)
}

func TestDrawdownFromPathNoRecoveryWhenPathEndsBelowPeak(t *testing.T) {
	years := []int{0, 1, 2}
	path := []float64{100, 50, 60}
	dd := DrawdownFromPath(years, path)
	assert.False(t, dd.Recovered)
}

func TestEstateAnalysisFromOutputComputesAdvantage(t *testing.T) {
	out := domain.SimulationOutput{
		YearlyPercentiles: []domain.YearlyPercentiles{
			{Year: 0, P50: 1000000},
			{Year: 1, P50: 1100000},
		},
		SBLOCTrajectory: &domain.SBLOCTrajectory{
			LoanBalanceP50: []float64{0, 200000},
		},
		MedianMarketReturns: []float64{0.10},
	}
	cfg := domain.DefaultSellCalculationConfig()
	ea := EstateAnalysisFromOutput(out, 1000000, 50000, cfg)
	assert.NotNil(t, ea)
	assert.InDelta(t, 900000, ea.BBDNetEstate, 1e-6)
	assert.Equal(t, ea.BBDNetEstate-ea.SellNetEstate, ea.BBDAdvantage)
}
