// Package sbloc implements the securities-backed-line-of-credit state
// machine as a pure step function: apply return, withdraw, accrue
// interest, check LTV, force-liquidate on margin call, and detect
// portfolio failure. Every function here returns a new state; none
// mutate their arguments.
package sbloc

import "github.com/bbdsim/core/internal/domain"

// liquidationSafetyMultiplier is the cushion applied to the
// maintenance margin when computing the post-liquidation target LTV,
// preventing an immediate re-trigger on the next step.
const liquidationSafetyMultiplier = 0.8

// YearResult reports what happened during one StepYear/StepYearMonthly
// call: whether a margin call or liquidation occurred, and the events
// those produced.
type YearResult struct {
	MarginCall      bool
	Liquidation     bool
	PortfolioFailed bool
	MarginCallEvent *domain.MarginCallEvent
	LiquidationEvent *domain.LiquidationEvent
}

// InitialState returns the starting SBLOC state for a run: initial
// portfolio value, zero loan.
func InitialState(initialValue float64) domain.SBLOCState {
	return domain.SBLOCState{PortfolioValue: initialValue}
}

func warningBuffer(cfg domain.SBLOCConfig) float64 {
	if cfg.WarningBuffer == 0 {
		return 0.10
	}
	return cfg.WarningBuffer
}

// StepYear advances state by one year under an annual-compounding
// SBLOC: apply return, withdraw against the loan, accrue a year of
// interest, check LTV, force-liquidate if at/above maxLTV, and detect
// portfolio failure (net worth <= 0).
func StepYear(state domain.SBLOCState, cfg domain.SBLOCConfig, portfolioReturn float64, year int) (domain.SBLOCState, YearResult) {
	value := state.PortfolioValue * (1 + portfolioReturn)
	loan := state.LoanBalance + cfg.AnnualWithdrawal
	interest := loan * cfg.AnnualRate
	loan = loan * (1 + cfg.AnnualRate)

	next := state
	next.PortfolioValue = value
	next.LoanBalance = loan
	next.CumulativeInterest = state.CumulativeInterest + interest
	next.CumulativeWithdraw = state.CumulativeWithdraw + cfg.AnnualWithdrawal
	next.YearsSinceStart = state.YearsSinceStart + 1

	result := YearResult{}
	next, result = applyMarginLogic(next, cfg, year, result)
	next, result = checkFailure(next, result)
	return next, result
}

// StepYearMonthly advances state by one year using 12 monthly
// sub-steps (monthly withdrawal, monthly rate, geometric monthly
// return), per spec.md §4.C "Monthly mode": yearsSinceStart increments
// once (at the final sub-step), only year-end state is returned, and
// at most one MarginCallEvent is emitted for the year (its first
// occurrence).
func StepYearMonthly(state domain.SBLOCState, cfg domain.SBLOCConfig, annualReturn float64, year int) (domain.SBLOCState, YearResult) {
	monthlyWithdrawal := cfg.AnnualWithdrawal / 12
	monthlyRate := cfg.AnnualRate / 12
	monthlyReturn := pow1p(annualReturn, 1.0/12)

	cur := state
	result := YearResult{}
	firstMarginCall := true

	for month := 0; month < 12; month++ {
		value := cur.PortfolioValue * (1 + monthlyReturn)
		loan := cur.LoanBalance + monthlyWithdrawal
		interest := loan * monthlyRate
		loan = loan * (1 + monthlyRate)

		cur.PortfolioValue = value
		cur.LoanBalance = loan
		cur.CumulativeInterest += interest
		cur.CumulativeWithdraw += monthlyWithdrawal

		monthResult := YearResult{}
		cur, monthResult = applyMarginLogic(cur, cfg, year, monthResult)
		if monthResult.MarginCall && firstMarginCall {
			result.MarginCall = true
			result.MarginCallEvent = monthResult.MarginCallEvent
			firstMarginCall = false
		}
		if monthResult.Liquidation {
			result.Liquidation = true
			result.LiquidationEvent = monthResult.LiquidationEvent
		}

		cur, monthResult = checkFailure(cur, monthResult)
		if monthResult.PortfolioFailed {
			result.PortfolioFailed = true
			break
		}

		if month == 11 {
			cur.YearsSinceStart++
		}
	}
	return cur, result
}

// pow1p returns (1+base)^exp - 1, the geometric sub-period conversion
// used to split an annual return into equal compounding sub-periods.
func pow1p(base, exp float64) float64 {
	return powf(1+base, exp) - 1
}
