package sbloc

import (
	"math"

	"github.com/bbdsim/core/internal/domain"
)

func powf(base, exp float64) float64 {
	return math.Pow(base, exp)
}

// applyMarginLogic computes LTV, flags the warning zone, and performs
// forced liquidation when LTV has reached maxLTV. It is called once
// per annual step and once per monthly sub-step.
func applyMarginLogic(state domain.SBLOCState, cfg domain.SBLOCConfig, year int, result YearResult) (domain.SBLOCState, YearResult) {
	ltv := state.LTV()
	buffer := warningBuffer(cfg)
	state.InWarningZone = ltv >= cfg.MaintenanceMargin-buffer && ltv < cfg.MaxLTV

	if ltv < cfg.MaxLTV {
		return state, result
	}

	result.MarginCall = true
	result.MarginCallEvent = &domain.MarginCallEvent{
		Year:              year,
		PortfolioValue:    state.PortfolioValue,
		LoanBalance:       state.LoanBalance,
		LTV:               ltv,
		RequiredReduction: ltv - cfg.MaintenanceMargin*liquidationSafetyMultiplier,
	}

	state, liqEvent := forceLiquidate(state, cfg, year)
	if liqEvent != nil {
		result.Liquidation = true
		result.LiquidationEvent = liqEvent
	}
	return state, result
}

// forceLiquidate sells enough assets to bring LTV down to
// maintenanceMargin * liquidationSafetyMultiplier, per spec.md §4.C
// step 5: solving (loan - grossSale*(1-h)) / (value - grossSale) =
// target for grossSale.
//
//	loan - grossSale*(1-h) = target*(value - grossSale)
//	loan - target*value = grossSale*(1-h) - target*grossSale
//	loan - target*value = grossSale*(1 - h - target)
//	grossSale = (loan - target*value) / (1 - h - target)
func forceLiquidate(state domain.SBLOCState, cfg domain.SBLOCConfig, year int) (domain.SBLOCState, *domain.LiquidationEvent) {
	target := cfg.MaintenanceMargin * liquidationSafetyMultiplier
	denom := 1 - cfg.LiquidationHaircut - target
	var grossSale float64
	if denom <= 0 {
		// Degenerate configuration (haircut + target >= 1): sell
		// everything rather than divide by a non-positive denominator.
		grossSale = state.PortfolioValue
	} else {
		grossSale = (state.LoanBalance - target*state.PortfolioValue) / denom
	}
	if grossSale <= 0 {
		return state, nil
	}
	if grossSale > state.PortfolioValue {
		grossSale = state.PortfolioValue
	}

	haircutLoss := grossSale * cfg.LiquidationHaircut
	netProceeds := grossSale - haircutLoss

	state.PortfolioValue -= grossSale
	state.LoanBalance -= netProceeds
	if state.LoanBalance < 0 {
		state.LoanBalance = 0
	}

	return state, &domain.LiquidationEvent{
		Year:            year,
		AssetsSoldGross: grossSale,
		HaircutLoss:     haircutLoss,
	}
}

// checkFailure marks portfolioFailed when net worth (value - loan) has
// dropped to or below zero; net worth is the failure criterion, not
// gross portfolio value.
func checkFailure(state domain.SBLOCState, result YearResult) (domain.SBLOCState, YearResult) {
	if state.PortfolioValue-state.LoanBalance <= 0 {
		state.Failed = true
		result.PortfolioFailed = true
	}
	return state, result
}

// Recoverable reports whether a position at the given value/loan can
// still be rescued by forced liquidation: the maximum sale proceeds
// (value * (1-h)) must be at least the loan balance.
func Recoverable(value, loan, haircut float64) bool {
	return value*(1-haircut) >= loan
}
