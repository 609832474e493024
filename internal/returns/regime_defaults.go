package returns

import "github.com/bbdsim/core/internal/domain"

// Regime is one of the four latent market states the regime-switching
// model cycles through.
type Regime int

const (
	RegimeBull Regime = iota
	RegimeBear
	RegimeCrash
	RegimeRecovery
	numRegimes = 4
)

// TransitionMatrix governs year-to-year regime transitions; each row
// sums to 1. Calibrated loosely to the documented shape of bull-market
// persistence, bear-to-crash contagion, and crash-to-recovery snapback.
var TransitionMatrix = [numRegimes][numRegimes]float64{
	RegimeBull:      {0.85, 0.10, 0.02, 0.03},
	RegimeBear:      {0.15, 0.60, 0.15, 0.10},
	RegimeCrash:     {0.05, 0.20, 0.50, 0.25},
	RegimeRecovery:  {0.30, 0.10, 0.05, 0.55},
}

// classStats holds the mean/stddev of one asset class in one regime.
type classStats struct {
	Mean   float64
	StdDev float64
}

// regimeDefaults is regime -> asset class -> (mean, stddev), the
// "historical" calibration. These are documented configuration
// constants (spec.md §9 Open Questions), not law; conservativeAdjust
// derives the "conservative" calibration from them.
var regimeDefaults = map[Regime]map[domain.AssetClass]classStats{
	RegimeBull: {
		domain.AssetClassEquityIndex: {0.14, 0.12},
		domain.AssetClassEquityStock: {0.16, 0.20},
		domain.AssetClassFixedIncome: {0.05, 0.04},
		domain.AssetClassCommodity:   {0.08, 0.18},
		domain.AssetClassCrypto:      {0.50, 0.70},
	},
	RegimeBear: {
		domain.AssetClassEquityIndex: {-0.05, 0.18},
		domain.AssetClassEquityStock: {-0.08, 0.25},
		domain.AssetClassFixedIncome: {0.03, 0.05},
		domain.AssetClassCommodity:   {-0.02, 0.20},
		domain.AssetClassCrypto:      {-0.20, 0.80},
	},
	RegimeCrash: {
		domain.AssetClassEquityIndex: {-0.30, 0.30},
		domain.AssetClassEquityStock: {-0.40, 0.40},
		domain.AssetClassFixedIncome: {0.01, 0.08},
		domain.AssetClassCommodity:   {-0.25, 0.35},
		domain.AssetClassCrypto:      {-0.60, 1.00},
	},
	RegimeRecovery: {
		domain.AssetClassEquityIndex: {0.20, 0.15},
		domain.AssetClassEquityStock: {0.25, 0.22},
		domain.AssetClassFixedIncome: {0.04, 0.04},
		domain.AssetClassCommodity:   {0.12, 0.20},
		domain.AssetClassCrypto:      {0.60, 0.75},
	},
}

// survivorshipDrag is the annual mean haircut applied per asset class
// to correct for survivorship bias in historical-period returns.
// Single stocks carry a larger drag than broad indices.
var survivorshipDrag = map[domain.AssetClass]float64{
	domain.AssetClassEquityIndex: 0.001,
	domain.AssetClassEquityStock: 0.005,
	domain.AssetClassFixedIncome: 0.0005,
	domain.AssetClassCommodity:   0.002,
	domain.AssetClassCrypto:      0.010,
}

// conservativeDragIncrease is the additional drag applied across every
// asset class in "conservative" calibration mode (spec.md §4.B: "by
// roughly +0.5 percentage points across classes").
const conservativeDragIncrease = 0.005

// conservativeMeanHaircut and conservativeStdWiden implement the
// "conservative" calibration's uniform reduction of means and
// widening of variances.
const (
	conservativeMeanHaircut = 0.02
	conservativeStdWiden    = 1.15
)

// studentTDegreesOfFreedom is the per-asset-class degrees of freedom
// for the Student-t fat-tail mixing component.
var studentTDegreesOfFreedom = map[domain.AssetClass]float64{
	domain.AssetClassEquityIndex: 6,
	domain.AssetClassEquityStock: 5,
	domain.AssetClassFixedIncome: 10,
	domain.AssetClassCommodity:   6,
	domain.AssetClassCrypto:      4,
}

// fatTailWeight is the mixing weight given to the Student-t component
// versus the correlated Gaussian component when constructing each
// asset's shock (spec.md §4.B step 2).
const fatTailWeight = 0.35

func classStatsFor(regime Regime, class domain.AssetClass, calibration domain.RegimeCalibration) classStats {
	stats, ok := regimeDefaults[regime][class]
	if !ok {
		stats = classStats{Mean: 0.06, StdDev: 0.15}
	}
	if calibration == domain.CalibrationConservative {
		stats.Mean -= conservativeMeanHaircut
		stats.StdDev *= conservativeStdWiden
	}
	return stats
}

func dragFor(class domain.AssetClass, calibration domain.RegimeCalibration) float64 {
	drag := survivorshipDrag[class]
	if drag == 0 {
		drag = 0.002
	}
	if calibration == domain.CalibrationConservative {
		drag += conservativeDragIncrease
	}
	return drag
}

func degreesOfFreedomFor(class domain.AssetClass) float64 {
	if dof, ok := studentTDegreesOfFreedom[class]; ok {
		return dof
	}
	return 6
}
