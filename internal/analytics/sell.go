package analytics

import "github.com/bbdsim/core/internal/domain"

// SellCounterfactual replays marketReturns under the Sell-strategy
// order of operations (spec.md §4.E): dividend tax first, then a
// withdrawal grossed up for capital-gains tax, then market growth
// applied to what remains. Growth is applied last deliberately —
// applying it first overstates the strategy's outcome.
//
// The capital-gains tax is computed against the withdrawal itself
// (gain = withdrawal * (1 - costBasisRatio)), not against the gross
// sale amount; this matches the worked example in spec.md §8 (S3)
// exactly and avoids solving an implicit equation for the gross sale.
func SellCounterfactual(initialValue float64, marketReturns []float64, annualWithdrawal float64, cfg domain.SellCalculationConfig) float64 {
	value := initialValue
	for _, r := range marketReturns {
		divTax := value * cfg.DividendYield * cfg.DividendTaxRate
		value -= divTax

		gain := annualWithdrawal * (1 - cfg.CostBasisRatio)
		tax := gain * cfg.CapitalGainsRate
		grossSale := annualWithdrawal + tax
		value -= grossSale

		value *= 1 + r
	}
	return value
}
