package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bbdsim/core/internal/domain"
)

func sampleOutput() domain.SimulationOutput {
	return domain.SimulationOutput{
		TerminalValues: []float64{100000, 200000, 300000},
		YearlyPercentiles: []domain.YearlyPercentiles{
			{Year: 0, P10: 100000, P25: 100000, P50: 100000, P75: 100000, P90: 100000},
			{Year: 1, P10: 90000, P25: 105000, P50: 110000, P75: 120000, P90: 140000},
		},
		Statistics: domain.TerminalStatistics{Mean: 200000, Median: 200000, StdDev: 81649, SuccessRate: 66.67},
		MarginCallStats: []domain.MarginCallYearStat{
			{Year: 1, Probability: 5, CumulativeProbability: 5},
		},
		EstateAnalysis: &domain.EstateAnalysis{BBDNetEstate: 900000, SellNetEstate: 700000, BBDAdvantage: 200000},
	}
}

func TestByNameReturnsRegisteredFormatters(t *testing.T) {
	assert.NotNil(t, ByName("console"))
	assert.NotNil(t, ByName("json"))
	assert.NotNil(t, ByName("csv"))
	assert.Nil(t, ByName("does-not-exist"))
}

func TestConsoleFormatterIncludesKeyMetrics(t *testing.T) {
	data, err := ConsoleFormatter{}.Format(sampleOutput())
	assert.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "Median terminal value"))
	assert.True(t, strings.Contains(text, "BBD advantage"))
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	data, err := JSONFormatter{}.Format(sampleOutput())
	assert.NoError(t, err)
	var decoded domain.SimulationOutput
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 200000.0, decoded.Statistics.Mean)
}

func TestCSVFormatterHasHeaderAndYearRows(t *testing.T) {
	data, err := CSVFormatter{}.Format(sampleOutput())
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, 3, len(lines)) // header + 2 years
	assert.Equal(t, "year,p10,p25,p50,p75,p90", lines[0])
}

func TestFormatCurrencyGroupsThousands(t *testing.T) {
	assert.Equal(t, "$1,234,567.89", FormatCurrency(1234567.89))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "-$500.00", FormatCurrency(-500))
}
