// Package numeric implements the deterministic, pure numeric
// primitives shared by the return generator, the Monte Carlo driver,
// and the analytics layer: Kahan summation, sample statistics,
// percentile interpolation, Pearson correlation, Cholesky
// decomposition, and the normal/Student-t samplers that feed the
// fat-tailed regime model.
package numeric

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KahanSum compensates for floating-point drift when accumulating long
// sequences (multi-decade compounding, long historical series).
func KahanSum(values []float64) float64 {
	sum := 0.0
	c := 0.0
	for _, v := range values {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// Mean returns the arithmetic mean of values, or 0 for an empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, _ := stat.MeanVariance(values, nil)
	return mean
}

// SampleVariance returns the n-1 (Bessel-corrected) sample variance.
// Use PopulationVariance for the n-denominator variant.
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	_, variance := stat.MeanVariance(values, nil)
	return variance
}

// PopulationVariance returns the n-denominator variance.
func PopulationVariance(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n)
}

// StdDev returns the sample (n-1) standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(SampleVariance(values))
}

// PopulationStdDev returns the population (n) standard deviation.
func PopulationStdDev(values []float64) float64 {
	return math.Sqrt(PopulationVariance(values))
}

// Percentile returns the pth percentile (0-100) of sorted using linear
// interpolation between adjacent order statistics:
//
//	h = (n-1) * p/100
//	value = x[floor(h)] + (h-floor(h)) * (x[ceil(h)] - x[floor(h)])
//
// sorted must already be sorted ascending. Empty input returns 0 by
// convention; single-element input returns that element.
func Percentile(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	h := (float64(n) - 1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Correlation returns the Pearson correlation of x and y, clamped to
// [-1, 1] to neutralize floating-point overshoot.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// CholeskyFactor computes the lower-triangular Cholesky factor L of a
// symmetric positive-semidefinite matrix c such that L*L^T = c. ok is
// false when c is not positive-definite (any on-diagonal pivot below
// epsilon); callers should fall back to the identity factor, meaning
// independent draws.
func CholeskyFactor(c [][]float64) (l [][]float64, ok bool) {
	n := len(c)
	if n == 0 {
		return nil, true
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, c[i][j])
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return IdentityFactor(n), false
	}

	var lDense mat.TriDense
	chol.LTo(&lDense)

	l = make([][]float64, n)
	for i := 0; i < n; i++ {
		l[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			l[i][j] = lDense.At(i, j)
		}
	}
	return l, true
}

// IdentityFactor returns the n x n identity matrix, used as the
// Cholesky fallback (independent draws).
func IdentityFactor(n int) [][]float64 {
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
		l[i][i] = 1
	}
	return l
}

// MatVec multiplies lower-triangular (or dense) matrix l by vector z.
func MatVec(l [][]float64, z []float64) []float64 {
	n := len(l)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		row := l[i]
		for j := 0; j < len(row) && j < len(z); j++ {
			sum += row[j] * z[j]
		}
		out[i] = sum
	}
	return out
}

// StandardNormal draws one standard-normal sample via the Box-Muller
// transform (two uniforms in, one normal out).
func StandardNormal(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Normal draws a N(mean, stddev) sample.
func Normal(mean, stddev float64, rng *rand.Rand) float64 {
	return mean + stddev*StandardNormal(rng)
}

// Lognormal draws exp(Normal(mean, stddev)).
func Lognormal(mean, stddev float64, rng *rand.Rand) float64 {
	return math.Exp(Normal(mean, stddev, rng))
}

// StudentT draws one sample from a standard Student-t distribution
// with nu degrees of freedom: Z * sqrt(nu / chiSq(nu)), where Z is
// standard normal and chiSq(nu) is the sum of nu squared independent
// standard normals.
func StudentT(nu float64, rng *rand.Rand) float64 {
	z := StandardNormal(rng)
	n := int(math.Round(nu))
	if n < 1 {
		n = 1
	}
	chiSq := 0.0
	for i := 0; i < n; i++ {
		x := StandardNormal(rng)
		chiSq += x * x
	}
	if chiSq == 0 {
		return z
	}
	return z * math.Sqrt(nu/chiSq)
}

// Round6 rounds x to 6 significant digits, the public-output precision
// policy boundary. Internal math always keeps full double precision;
// only values about to cross the core's output boundary are rounded.
func Round6(x float64) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	mag := math.Floor(math.Log10(math.Abs(x))) + 1
	scale := math.Pow(10, 6-mag)
	return math.Round(x*scale) / scale
}
