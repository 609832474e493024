// Package returns implements the three return-generation methods a
// simulation iteration can draw from: simple correlated bootstrap,
// stationary block bootstrap, and a four-regime Markov-switching model
// with fat-tailed innovations and survivorship-bias drag.
//
// Every method returns a T x len(assets) matrix of annual simple
// returns for one iteration, sharing the iteration's *rand.Rand so the
// whole run stays reproducible from a single derived seed.
package returns

import (
	"math"
	"math/rand"

	"github.com/bbdsim/core/internal/domain"
	"github.com/bbdsim/core/internal/numeric"
)

// Request bundles everything Generate needs for one iteration. Method
// is a closed Go string enum (domain.ResamplingMethod), switched once
// here rather than dispatched by ad hoc string comparisons deeper in
// the call tree.
type Request struct {
	Portfolio   domain.Portfolio
	Method      domain.ResamplingMethod
	BlockSize   *int
	Calibration domain.RegimeCalibration
	Years       int
}

// Result is one iteration's generated return matrix plus any advisory
// raised while building it (currently: Cholesky fallback to
// independent draws).
type Result struct {
	Matrix           [][]float64 // [year][asset]
	CholeskyFallback bool
}

// Generate produces one iteration's return matrix under req.Method.
func Generate(rng *rand.Rand, req Request) Result {
	switch req.Method {
	case domain.ResamplingBlock:
		return generateBlock(rng, req)
	case domain.ResamplingRegime:
		return generateRegime(rng, req)
	default:
		return generateSimple(rng, req)
	}
}

func minHistoryLength(p domain.Portfolio) int {
	min := -1
	for _, a := range p.Assets {
		if min < 0 || len(a.Historical) < min {
			min = len(a.Historical)
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// generateSimple draws, for each simulated year, a single shared
// historical-year index across all assets (preserving joint
// co-movement) uniformly at random without replacement constraints
// (i.e. with replacement across years).
func generateSimple(rng *rand.Rand, req Request) Result {
	n := len(req.Portfolio.Assets)
	matrix := make([][]float64, req.Years)
	L := minHistoryLength(req.Portfolio)
	for y := 0; y < req.Years; y++ {
		row := make([]float64, n)
		if L > 0 {
			idx := rng.Intn(L)
			for i, a := range req.Portfolio.Assets {
				row[i] = a.Historical[idx]
			}
		}
		matrix[y] = row
	}
	return Result{Matrix: matrix}
}

// blockLength picks the stationary block length: clamp(round(L^(1/3)),
// 3, floor(L/4)), falling back to 3 when the reference series is
// constant (a degenerate lag-1 autocorrelation, spec.md §9 Open
// Question 3).
func blockLength(p domain.Portfolio, configured *int) int {
	if configured != nil && *configured > 0 {
		return *configured
	}
	L := minHistoryLength(p)
	if L <= 3 {
		return maxInt(1, L)
	}
	if len(p.Assets) > 0 && numeric.PopulationStdDev(p.Assets[0].Historical) == 0 {
		return 3
	}
	b := int(math.Round(math.Cbrt(float64(L))))
	if b < 3 {
		b = 3
	}
	if maxLen := L / 4; maxLen >= 3 && b > maxLen {
		b = maxLen
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// generateBlock draws overlapping contiguous blocks of b historical
// years, shared across assets, concatenating them until Years rows are
// produced (truncating the final block). Grounded on the
// CircularBootstrap shape from the pack's portfolio-metrics.go:
// contiguous windows sampled by start index, preserving within-block
// serial correlation that simple resampling destroys.
func generateBlock(rng *rand.Rand, req Request) Result {
	n := len(req.Portfolio.Assets)
	L := minHistoryLength(req.Portfolio)
	matrix := make([][]float64, 0, req.Years)
	if L == 0 {
		for y := 0; y < req.Years; y++ {
			matrix = append(matrix, make([]float64, n))
		}
		return Result{Matrix: matrix}
	}

	b := blockLength(req.Portfolio, req.BlockSize)
	if b > L {
		b = L
	}
	maxStart := L - b
	for len(matrix) < req.Years {
		start := 0
		if maxStart > 0 {
			start = rng.Intn(maxStart + 1)
		}
		for offset := 0; offset < b && len(matrix) < req.Years; offset++ {
			row := make([]float64, n)
			for i, a := range req.Portfolio.Assets {
				row[i] = a.Historical[start+offset]
			}
			matrix = append(matrix, row)
		}
	}
	return Result{Matrix: matrix}
}

// generateRegime draws a year-by-year trajectory through the four
// latent regimes (TransitionMatrix), and for each year constructs a
// correlated, fat-tailed shock per asset: a Cholesky-correlated
// Gaussian vector mixed with an independent Student-t draw, scaled to
// the active regime's mean/stddev, then reduced by the asset's
// survivorship drag and clamped to [-0.99, 10.0].
func generateRegime(rng *rand.Rand, req Request) Result {
	n := len(req.Portfolio.Assets)
	matrix := make([][]float64, req.Years)

	l, ok := numeric.CholeskyFactor(req.Portfolio.Correlation)
	if !ok || l == nil {
		l = numeric.IdentityFactor(n)
	}

	regime := RegimeBull
	for y := 0; y < req.Years; y++ {
		z := make([]float64, n)
		for i := range z {
			z[i] = numeric.StandardNormal(rng)
		}
		correlated := numeric.MatVec(l, z)

		row := make([]float64, n)
		for i, asset := range req.Portfolio.Assets {
			stats := classStatsFor(regime, asset.Class, req.Calibration)
			dof := degreesOfFreedomFor(asset.Class)
			t := numeric.StudentT(dof, rng)
			if dof > 2 {
				t /= math.Sqrt(dof / (dof - 2))
			}
			shock := (1-fatTailWeight)*correlated[i] + fatTailWeight*t
			ret := stats.Mean - dragFor(asset.Class, req.Calibration) + shock*stats.StdDev
			row[i] = clampReturn(ret)
		}
		matrix[y] = row

		regime = nextRegime(rng, regime)
	}
	return Result{Matrix: matrix, CholeskyFallback: !ok}
}

func nextRegime(rng *rand.Rand, current Regime) Regime {
	row := TransitionMatrix[current]
	u := rng.Float64()
	cum := 0.0
	for j, p := range row {
		cum += p
		if u <= cum {
			return Regime(j)
		}
	}
	return current
}

func clampReturn(r float64) float64 {
	if r < -0.99 {
		return -0.99
	}
	if r > 10.0 {
		return 10.0
	}
	return r
}
