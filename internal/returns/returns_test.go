package returns

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bbdsim/core/internal/domain"
)

func samplePortfolio() domain.Portfolio {
	hist := make([]float64, 40)
	for i := range hist {
		hist[i] = 0.01 * float64(i%7-3)
	}
	return domain.Portfolio{
		Assets: []domain.Asset{
			{ID: "equities", Class: domain.AssetClassEquityIndex, Historical: append([]float64{}, hist...), Weight: 0.6},
			{ID: "bonds", Class: domain.AssetClassFixedIncome, Historical: append([]float64{}, hist...), Weight: 0.4},
		},
		Correlation: [][]float64{
			{1, 0.3},
			{0.3, 1},
		},
	}
}

func TestGenerateSimpleDeterministic(t *testing.T) {
	p := samplePortfolio()
	req := Request{Portfolio: p, Method: domain.ResamplingSimple, Years: 10}

	r1 := Generate(rand.New(rand.NewSource(42)), req)
	r2 := Generate(rand.New(rand.NewSource(42)), req)

	assert.Equal(t, r1.Matrix, r2.Matrix)
}

func TestGenerateSimpleSharesYearIndexAcrossAssets(t *testing.T) {
	p := samplePortfolio()
	// Make the two assets' series diverge so a shared index is
	// detectable: asset 1 is the negative of asset 0.
	p.Assets[1].Historical = make([]float64, len(p.Assets[0].Historical))
	for i, v := range p.Assets[0].Historical {
		p.Assets[1].Historical[i] = -v
	}
	req := Request{Portfolio: p, Method: domain.ResamplingSimple, Years: 20}
	res := Generate(rand.New(rand.NewSource(7)), req)
	for _, row := range res.Matrix {
		assert.InDelta(t, -row[1], row[0], 1e-12)
	}
}

func TestBlockLengthFallsBackToThreeForConstantSeries(t *testing.T) {
	p := samplePortfolio()
	constHist := make([]float64, 40)
	for i := range constHist {
		constHist[i] = 0.05
	}
	p.Assets[0].Historical = constHist
	p.Assets[1].Historical = constHist
	got := blockLength(p, nil)
	assert.Equal(t, 3, got)
}

func TestBlockLengthRespectsConfiguredOverride(t *testing.T) {
	p := samplePortfolio()
	override := 6
	got := blockLength(p, &override)
	assert.Equal(t, 6, got)
}

func TestGenerateBlockProducesRequestedYearCount(t *testing.T) {
	p := samplePortfolio()
	req := Request{Portfolio: p, Method: domain.ResamplingBlock, Years: 17}
	res := Generate(rand.New(rand.NewSource(3)), req)
	assert.Len(t, res.Matrix, 17)
}

func TestGenerateRegimeProducesRequestedYearCountAndFiniteReturns(t *testing.T) {
	p := samplePortfolio()
	req := Request{
		Portfolio:   p,
		Method:      domain.ResamplingRegime,
		Calibration: domain.CalibrationHistorical,
		Years:       50,
	}
	res := Generate(rand.New(rand.NewSource(9)), req)
	assert.Len(t, res.Matrix, 50)
	for _, row := range res.Matrix {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, -0.99)
			assert.LessOrEqual(t, v, 10.0)
		}
	}
}

func TestGenerateRegimeDeterministicGivenSameSeed(t *testing.T) {
	p := samplePortfolio()
	req := Request{
		Portfolio:   p,
		Method:      domain.ResamplingRegime,
		Calibration: domain.CalibrationConservative,
		Years:       30,
	}
	r1 := Generate(rand.New(rand.NewSource(123)), req)
	r2 := Generate(rand.New(rand.NewSource(123)), req)
	assert.Equal(t, r1.Matrix, r2.Matrix)
}

func TestConservativeCalibrationWidensStdDevAndIncreasesDrag(t *testing.T) {
	hist := classStatsFor(RegimeBull, domain.AssetClassEquityIndex, domain.CalibrationHistorical)
	cons := classStatsFor(RegimeBull, domain.AssetClassEquityIndex, domain.CalibrationConservative)
	assert.Less(t, cons.Mean, hist.Mean)
	assert.Greater(t, cons.StdDev, hist.StdDev)

	dragHist := dragFor(domain.AssetClassEquityIndex, domain.CalibrationHistorical)
	dragCons := dragFor(domain.AssetClassEquityIndex, domain.CalibrationConservative)
	assert.Greater(t, dragCons, dragHist)
}

func TestSurvivorshipDragLargerForSingleStocksThanIndex(t *testing.T) {
	stockDrag := dragFor(domain.AssetClassEquityStock, domain.CalibrationHistorical)
	indexDrag := dragFor(domain.AssetClassEquityIndex, domain.CalibrationHistorical)
	assert.Greater(t, stockDrag, indexDrag)
}

func TestTransitionMatrixRowsSumToOne(t *testing.T) {
	for _, row := range TransitionMatrix {
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}
