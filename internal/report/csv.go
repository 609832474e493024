package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/bbdsim/core/internal/domain"
)

// CSVFormatter exports the yearly percentile bands, one row per year.
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) Format(out domain.SimulationOutput) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"year", "p10", "p25", "p50", "p75", "p90"}
	if out.SBLOCTrajectory != nil {
		header = append(header, "loanBalanceP50", "cumulativeWithdrawals", "cumulativeInterestP50")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i, yp := range out.YearlyPercentiles {
		row := []string{
			strconv.Itoa(yp.Year),
			strconv.FormatFloat(yp.P10, 'f', 2, 64),
			strconv.FormatFloat(yp.P25, 'f', 2, 64),
			strconv.FormatFloat(yp.P50, 'f', 2, 64),
			strconv.FormatFloat(yp.P75, 'f', 2, 64),
			strconv.FormatFloat(yp.P90, 'f', 2, 64),
		}
		if out.SBLOCTrajectory != nil && i < len(out.SBLOCTrajectory.LoanBalanceP50) {
			row = append(row,
				strconv.FormatFloat(out.SBLOCTrajectory.LoanBalanceP50[i], 'f', 2, 64),
				strconv.FormatFloat(out.SBLOCTrajectory.CumulativeWithdrawals[i], 'f', 2, 64),
				strconv.FormatFloat(out.SBLOCTrajectory.CumulativeInterestP50[i], 'f', 2, 64),
			)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
