package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bbdsim/core/internal/domain"
	"github.com/bbdsim/core/pkg/money"
)

// ConsoleFormatter renders a concise human-readable summary.
type ConsoleFormatter struct{}

func (ConsoleFormatter) Name() string { return "console" }

func (ConsoleFormatter) Format(out domain.SimulationOutput) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "BUY-BORROW-DIE SIMULATION SUMMARY")
	fmt.Fprintln(&buf, "=================================")
	fmt.Fprintf(&buf, "Iterations: %d\n", len(out.TerminalValues))
	fmt.Fprintf(&buf, "Mean terminal value:   %s\n", FormatCurrency(out.Statistics.Mean))
	fmt.Fprintf(&buf, "Median terminal value: %s\n", FormatCurrency(out.Statistics.Median))
	fmt.Fprintf(&buf, "Std dev:               %s\n", FormatCurrency(out.Statistics.StdDev))
	fmt.Fprintf(&buf, "Success rate:          %s\n", FormatPercentage(out.Statistics.SuccessRate/100))

	if len(out.MarginCallStats) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Margin-call probability by year (cumulative):")
		for _, s := range out.MarginCallStats {
			fmt.Fprintf(&buf, "  year %3d: %6.2f%% (cumulative %6.2f%%)\n", s.Year, s.Probability, s.CumulativeProbability)
		}
	}

	if out.EstateAnalysis != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Estate analysis:")
		fmt.Fprintf(&buf, "  BBD net estate:  %s\n", FormatCurrency(out.EstateAnalysis.BBDNetEstate))
		fmt.Fprintf(&buf, "  Sell net estate: %s\n", FormatCurrency(out.EstateAnalysis.SellNetEstate))
		fmt.Fprintf(&buf, "  BBD advantage:   %s\n", FormatCurrency(out.EstateAnalysis.BBDAdvantage))
	}

	if out.Drawdown != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Worst drawdown: %.1f%% (year %d to %d, recovered=%t)\n",
			out.Drawdown.LossPercent*100, out.Drawdown.PeakYear, out.Drawdown.TroughYear, out.Drawdown.Recovered)
	}

	if out.Advisories.CholeskyFallback || out.Advisories.NaNSubstituted {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Advisories:")
		if out.Advisories.CholeskyFallback {
			fmt.Fprintln(&buf, "  - correlation matrix was not positive-definite; fell back to independent draws")
		}
		if out.Advisories.NaNSubstituted {
			fmt.Fprintln(&buf, "  - a non-finite return was substituted with 0 during at least one iteration")
		}
	}

	if out.Cancelled {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "NOTE: run was cancelled before all iterations completed; statistics reflect the iterations that finished.")
	}

	return buf.Bytes(), nil
}

// FormatCurrency renders a float64 as a thousands-grouped dollar amount.
// It rounds through pkg/money's decimal-backed Money (the same display
// boundary the teacher's output package rounds at, via
// shopspring/decimal) rather than the float64 arithmetic that formerly
// lived here, which could carry a cent over (e.g. 1234.995 rounding to
// ".100") since '+0.5'-then-truncate isn't exact in float64.
func FormatCurrency(v float64) string {
	m := money.New(v).Round()
	neg := m.IsNegative()
	s := m.String() // fixed 2 decimals, e.g. "1234567.89" or "-1234567.89"
	s = strings.TrimPrefix(s, "-")

	whole, cents, _ := strings.Cut(s, ".")
	out := fmt.Sprintf("$%s.%s", groupThousands(whole), cents)
	if neg {
		return "-" + out
	}
	return out
}

// groupThousands inserts comma separators into a decimal-digit string.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var out []byte
	pre := len(digits) % 3
	if pre > 0 {
		out = append(out, digits[:pre]...)
	}
	for i := pre; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}

// FormatPercentage renders a fraction (0.1234) as "12.34%".
func FormatPercentage(frac float64) string {
	return fmt.Sprintf("%.2f%%", frac*100)
}
