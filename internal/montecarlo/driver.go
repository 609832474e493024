// Package montecarlo implements the data-parallel Monte Carlo driver:
// it owns the seeded RNG derivation, calls the return generator and
// SBLOC engine once per iteration, and aggregates terminal values,
// path-coherent yearly percentiles, and margin-call statistics across
// iterations. Parallelized with golang.org/x/sync/errgroup, one
// goroutine per iteration, bounded to a worker limit; the aggregate
// result is schedule-independent because every iteration's RNG stream
// depends only on (masterSeed, k).
package montecarlo

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bbdsim/core/internal/domain"
	"github.com/bbdsim/core/internal/logging"
	"github.com/bbdsim/core/internal/numeric"
	"github.com/bbdsim/core/internal/returns"
	"github.com/bbdsim/core/internal/sbloc"
)

var trackedPercentiles = []float64{10, 25, 50, 75, 90}

// Driver runs simulation iterations and aggregates their results.
type Driver struct {
	Logger logging.Logger
}

// NewDriver constructs a Driver with a no-op logger.
func NewDriver() *Driver {
	return &Driver{Logger: logging.NopLogger{}}
}

// iterationResult is one iteration's complete trajectory, kept only
// long enough to feed aggregation.
type iterationResult struct {
	path               []float64 // len T+1, path[0] = V0
	loanBalance        []float64 // len T+1, zero when SBLOC is absent
	cumulativeWithdraw []float64
	cumulativeInterest []float64
	marketReturns      []float64 // len T, the raw weighted+inflation-adjusted return used each year
	marginCallYear     int       // 0 means no call
	liquidations       []domain.LiquidationEvent
	choleskyFallback   bool
	nanSubstituted     bool
}

// Run executes cfg.Iterations independent paths over portfolio and
// aggregates the result. ctx is checked cooperatively between
// iterations; on cancellation, Run returns the partial aggregate with
// Cancelled set rather than an error, per the core's advisory (not
// fatal) cancellation semantics.
func (d *Driver) Run(ctx context.Context, cfg domain.SimulationConfig, portfolio domain.Portfolio) (domain.SimulationOutput, error) {
	if cfg.Iterations <= 0 {
		return domain.SimulationOutput{}, domain.NewConfigurationError("iterations", "must be positive")
	}
	if cfg.Years <= 0 {
		return domain.SimulationOutput{}, domain.NewConfigurationError("years", "must be positive")
	}

	n := cfg.Iterations
	results := make([]iterationResult, n)
	cancelled := make([]bool, n)

	var g errgroup.Group
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for k := 0; k < n; k++ {
		k := k
		g.Go(func() error {
			if ctx.Err() != nil {
				cancelled[k] = true
				return nil
			}
			results[k] = d.runIteration(cfg, portfolio, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SimulationOutput{}, err
	}

	anyCancelled := false
	for _, c := range cancelled {
		if c {
			anyCancelled = true
			break
		}
	}

	out := aggregate(cfg, results, cancelled)
	out.Cancelled = anyCancelled
	return out, nil
}

// runIteration generates one return matrix and steps it through the
// SBLOC engine (or a plain compounding loop when SBLOC is absent)
// year by year.
func (d *Driver) runIteration(cfg domain.SimulationConfig, portfolio domain.Portfolio, k int) iterationResult {
	rng := rngForIteration(cfg.Seed, k)
	genResult := returns.Generate(rng, returns.Request{
		Portfolio:   portfolio,
		Method:      cfg.Method,
		BlockSize:   cfg.BlockSize,
		Calibration: cfg.Calibration,
		Years:       cfg.Years,
	})

	res := iterationResult{
		path:               make([]float64, cfg.Years+1),
		loanBalance:        make([]float64, cfg.Years+1),
		cumulativeWithdraw: make([]float64, cfg.Years+1),
		cumulativeInterest: make([]float64, cfg.Years+1),
		marketReturns:      make([]float64, cfg.Years),
		choleskyFallback:   genResult.CholeskyFallback,
	}
	res.path[0] = cfg.InitialValue

	state := sbloc.InitialState(cfg.InitialValue)
	failed := false

	for y := 1; y <= cfg.Years; y++ {
		ry := weightedReturn(portfolio, genResult.Matrix[y-1])
		if math.IsNaN(ry) {
			ry = 0
			res.nanSubstituted = true
		}
		if cfg.InflationAdjusted {
			ry = (1+ry)/(1+cfg.InflationRate) - 1
		}
		res.marketReturns[y-1] = ry

		if failed {
			res.path[y] = 0
			res.loanBalance[y] = res.loanBalance[y-1]
			res.cumulativeWithdraw[y] = res.cumulativeWithdraw[y-1]
			res.cumulativeInterest[y] = res.cumulativeInterest[y-1]
			continue
		}

		if cfg.SBLOC != nil {
			var yr sbloc.YearResult
			if cfg.MonthlyWithdrawal {
				state, yr = sbloc.StepYearMonthly(state, *cfg.SBLOC, ry, y)
			} else {
				state, yr = sbloc.StepYear(state, *cfg.SBLOC, ry, y)
			}
			res.path[y] = state.PortfolioValue
			res.loanBalance[y] = state.LoanBalance
			res.cumulativeWithdraw[y] = state.CumulativeWithdraw
			res.cumulativeInterest[y] = state.CumulativeInterest
			if yr.MarginCall && res.marginCallYear == 0 {
				res.marginCallYear = y
			}
			if yr.Liquidation && yr.LiquidationEvent != nil {
				res.liquidations = append(res.liquidations, *yr.LiquidationEvent)
			}
			if yr.PortfolioFailed {
				failed = true
			}
		} else {
			state.PortfolioValue *= 1 + ry
			res.path[y] = state.PortfolioValue
			if state.PortfolioValue <= 0 {
				failed = true
			}
		}
	}
	return res
}

func weightedReturn(portfolio domain.Portfolio, row []float64) float64 {
	sum := 0.0
	for i, a := range portfolio.Assets {
		if i < len(row) {
			sum += a.Weight * row[i]
		}
	}
	return sum
}

// aggregate computes terminal statistics, path-coherent percentiles,
// and margin-call statistics across all iteration results.
func aggregate(cfg domain.SimulationConfig, results []iterationResult, cancelled []bool) domain.SimulationOutput {
	completed := make([]iterationResult, 0, len(results))
	for k, r := range results {
		if !cancelled[k] {
			completed = append(completed, r)
		}
	}
	results = completed

	n := len(results)
	terminals := make([]float64, n)
	for k, r := range results {
		terminals[k] = r.path[len(r.path)-1]
	}

	stats := terminalStatistics(terminals, cfg.InitialValue)

	perm := rankByTerminalValue(terminals)
	yearly := pathCoherentPercentiles(cfg, results, perm)

	marginStats := marginCallStatistics(cfg.Years, n, results)

	var trajectory *domain.SBLOCTrajectory
	if cfg.SBLOC != nil {
		trajectory = sblocTrajectory(cfg, results, perm)
	}

	advisories := domain.Advisories{}
	for _, r := range results {
		if r.choleskyFallback {
			advisories.CholeskyFallback = true
		}
		if r.nanSubstituted {
			advisories.NaNSubstituted = true
		}
	}

	var medianReturns []float64
	if n > 0 {
		medianReturns = results[perm[representativeIndex(50, n)]].marketReturns
	}

	return domain.SimulationOutput{
		TerminalValues:      terminals,
		YearlyPercentiles:   yearly,
		Statistics:          stats,
		SBLOCTrajectory:     trajectory,
		MarginCallStats:     marginStats,
		Advisories:          advisories,
		MedianMarketReturns: medianReturns,
	}
}

func terminalStatistics(terminals []float64, initialValue float64) domain.TerminalStatistics {
	sorted := append([]float64(nil), terminals...)
	sort.Float64s(sorted)

	successes := 0
	for _, v := range terminals {
		if v > initialValue {
			successes++
		}
	}
	n := len(terminals)
	successRate := 0.0
	if n > 0 {
		successRate = float64(successes) / float64(n) * 100
	}

	return domain.TerminalStatistics{
		Mean:        numeric.Mean(terminals),
		Median:      numeric.Percentile(50, sorted),
		StdDev:      numeric.StdDev(terminals),
		SuccessRate: successRate,
	}
}

// rankByTerminalValue returns the permutation perm such that
// terminals[perm[0]] <= terminals[perm[1]] <= ... <= terminals[perm[n-1]].
func rankByTerminalValue(terminals []float64) []int {
	perm := make([]int, len(terminals))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(i, j int) bool {
		return terminals[perm[i]] < terminals[perm[j]]
	})
	return perm
}

// representativeIndex maps a percentile rank to an iteration index
// within perm, per spec.md §4.D: idx = round((p/100)*(N-1)).
func representativeIndex(p float64, n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round(p / 100 * float64(n-1)))
}

// pathCoherentPercentiles reconstructs each tracked percentile's
// yearly values from a single representative path (the iteration
// whose terminal value sits at that percentile rank), rather than
// sorting each year independently. Year 0 is forced to V0 for every
// percentile so downstream growth-rate calculations have a valid base.
func pathCoherentPercentiles(cfg domain.SimulationConfig, results []iterationResult, perm []int) []domain.YearlyPercentiles {
	out := make([]domain.YearlyPercentiles, cfg.Years+1)
	out[0] = domain.YearlyPercentiles{Year: 0, P10: cfg.InitialValue, P25: cfg.InitialValue, P50: cfg.InitialValue, P75: cfg.InitialValue, P90: cfg.InitialValue}

	n := len(results)
	repFor := func(p float64) []float64 {
		if n == 0 {
			return nil
		}
		idx := representativeIndex(p, n)
		return results[perm[idx]].path
	}
	p10, p25, p50, p75, p90 := repFor(10), repFor(25), repFor(50), repFor(75), repFor(90)

	for y := 1; y <= cfg.Years; y++ {
		yp := domain.YearlyPercentiles{Year: y}
		if p10 != nil {
			yp.P10 = p10[y]
		}
		if p25 != nil {
			yp.P25 = p25[y]
		}
		if p50 != nil {
			yp.P50 = p50[y]
		}
		if p75 != nil {
			yp.P75 = p75[y]
		}
		if p90 != nil {
			yp.P90 = p90[y]
		}
		out[y] = yp
	}
	return out
}

// marginCallStatistics computes per-year margin-call probability and
// a monotonic running-max cumulative probability.
func marginCallStatistics(years, n int, results []iterationResult) []domain.MarginCallYearStat {
	if n == 0 {
		return nil
	}
	counts := make([]int, years+1)
	for _, r := range results {
		if r.marginCallYear > 0 {
			counts[r.marginCallYear]++
		}
	}

	out := make([]domain.MarginCallYearStat, years)
	partialSum := 0.0
	cumMax := 0.0
	for y := 1; y <= years; y++ {
		probability := float64(counts[y]) / float64(n) * 100
		partialSum += probability
		if partialSum > cumMax {
			cumMax = partialSum
		}
		out[y-1] = domain.MarginCallYearStat{
			Year:                  y,
			Probability:           probability,
			CumulativeProbability: cumMax,
		}
	}
	return out
}

// sblocTrajectory builds the loan-balance percentile bands and
// cumulative withdrawal/interest series using the same representative
// paths chosen for the portfolio-value percentiles, so every reported
// quantity at a given percentile rank describes one coherent scenario.
func sblocTrajectory(cfg domain.SimulationConfig, results []iterationResult, perm []int) *domain.SBLOCTrajectory {
	n := len(results)
	if n == 0 {
		return nil
	}
	years := make([]int, cfg.Years+1)
	for y := range years {
		years[y] = y
	}

	loanAt := func(p float64) []float64 {
		idx := representativeIndex(p, n)
		return results[perm[idx]].loanBalance
	}
	medianIdx := representativeIndex(50, n)
	median := results[perm[medianIdx]]

	return &domain.SBLOCTrajectory{
		Years:                 years,
		LoanBalanceP10:        loanAt(10),
		LoanBalanceP25:        loanAt(25),
		LoanBalanceP50:        loanAt(50),
		LoanBalanceP75:        loanAt(75),
		LoanBalanceP90:        loanAt(90),
		CumulativeWithdrawals: median.cumulativeWithdraw,
		CumulativeInterestP50: median.cumulativeInterest,
	}
}
