// Package analytics derives summary metrics from a completed
// SimulationOutput: CAGR, time-weighted rate of return, annualized
// volatility, salary-equivalent gross-up, BBD estate analysis, the
// Sell-strategy counterfactual, and drawdown tracking. Nothing here
// mutates its input; every function produces a new derived record.
package analytics

import (
	"math"

	"github.com/bbdsim/core/internal/domain"
	"github.com/bbdsim/core/internal/numeric"
)

// CAGR computes the compound annual growth rate from V0 to the median
// terminal value over years periods. A non-positive terminal value
// yields -1 by definition (total loss).
func CAGR(v0, medianTerminal float64, years int) float64 {
	if medianTerminal <= 0 {
		return -1
	}
	if years <= 0 || v0 <= 0 {
		return math.NaN()
	}
	return math.Pow(medianTerminal/v0, 1.0/float64(years)) - 1
}

// AnnualizedVolatility is the sample standard deviation of each
// iteration's annualized return, (terminal/V0)^(1/years) - 1.
func AnnualizedVolatility(terminals []float64, v0 float64, years int) float64 {
	if years <= 0 || v0 <= 0 {
		return math.NaN()
	}
	annualized := make([]float64, len(terminals))
	for i, terminal := range terminals {
		ratio := terminal / v0
		if ratio < 0 {
			ratio = 0
		}
		annualized[i] = math.Pow(ratio, 1.0/float64(years)) - 1
	}
	return numeric.StdDev(annualized)
}

// TWRR computes the time-weighted rate of return from a yearly value
// path (path[0] is the starting value) by geometrically chaining each
// period's simple return. Invalid inputs (a non-positive starting
// value, or fewer than two points) yield NaN.
func TWRR(path []float64) float64 {
	if len(path) < 2 || path[0] <= 0 {
		return math.NaN()
	}
	product := 1.0
	for y := 1; y < len(path); y++ {
		if path[y-1] == 0 {
			return math.NaN()
		}
		r := (path[y] - path[y-1]) / path[y-1]
		product *= 1 + r
	}
	years := len(path) - 1
	return math.Pow(product, 1.0/float64(years)) - 1
}

// SalaryEquivalent converts an after-tax withdrawal into its
// pre-tax-salary equivalent at marginal rate t. t == 1 yields +Inf by
// IEEE-754 division, which is the spec'd sentinel rather than an
// error.
func SalaryEquivalent(afterTaxWithdrawal, marginalTaxRate float64) float64 {
	return afterTaxWithdrawal / (1 - marginalTaxRate)
}

// EstateAnalysisFromOutput derives the BBD-vs-Sell estate comparison
// from a completed run: BBD's net estate is the median terminal
// portfolio value less the median terminal loan balance; the Sell
// counterfactual replays the same median market-return path under the
// Sell order of operations (dividend tax, then withdrawal plus
// capital-gains tax, then growth).
func EstateAnalysisFromOutput(out domain.SimulationOutput, v0, annualWithdrawal float64, sellCfg domain.SellCalculationConfig) *domain.EstateAnalysis {
	if len(out.YearlyPercentiles) == 0 {
		return nil
	}
	lastYear := out.YearlyPercentiles[len(out.YearlyPercentiles)-1]
	medianTerminal := lastYear.P50

	medianLoan := 0.0
	if out.SBLOCTrajectory != nil && len(out.SBLOCTrajectory.LoanBalanceP50) > 0 {
		medianLoan = out.SBLOCTrajectory.LoanBalanceP50[len(out.SBLOCTrajectory.LoanBalanceP50)-1]
	}

	bbdNetEstate := medianTerminal - medianLoan
	sellNetEstate := SellCounterfactual(v0, out.MedianMarketReturns, annualWithdrawal, sellCfg)

	return &domain.EstateAnalysis{
		BBDNetEstate:  bbdNetEstate,
		SellNetEstate: sellNetEstate,
		BBDAdvantage:  bbdNetEstate - sellNetEstate,
	}
}

// EmbeddedGainsAndStepUp computes the unrealized capital gain in a
// terminal portfolio value and the tax savings the stepped-up basis
// erases at death.
func EmbeddedGainsAndStepUp(terminal, costBasisRatio, capitalGainsRate float64) (embeddedGains, steppedUpSavings float64) {
	costBasis := terminal * costBasisRatio
	embeddedGains = math.Max(0, terminal-costBasis)
	steppedUpSavings = embeddedGains * capitalGainsRate
	return embeddedGains, steppedUpSavings
}

// DrawdownFromPath finds the worst peak-to-trough decline on a yearly
// value path, reporting whether the path recovered to a new high
// afterward.
func DrawdownFromPath(years []int, path []float64) *domain.DrawdownSummary {
	if len(path) == 0 {
		return nil
	}
	peakIdx := 0
	worstLoss := 0.0
	worstPeakIdx, worstTroughIdx := 0, 0

	for i := 1; i < len(path); i++ {
		if path[i] > path[peakIdx] {
			peakIdx = i
			continue
		}
		if path[peakIdx] <= 0 {
			continue
		}
		loss := (path[peakIdx] - path[i]) / path[peakIdx]
		if loss > worstLoss {
			worstLoss = loss
			worstPeakIdx = peakIdx
			worstTroughIdx = i
		}
	}

	recovered := false
	for i := worstTroughIdx + 1; i < len(path); i++ {
		if path[i] >= path[worstPeakIdx] {
			recovered = true
			break
		}
	}

	return &domain.DrawdownSummary{
		PeakYear:    years[worstPeakIdx],
		TroughYear:  years[worstTroughIdx],
		LossPercent: worstLoss,
		Recovered:   recovered,
	}
}
