package report

import (
	"encoding/json"

	"github.com/bbdsim/core/internal/domain"
)

// JSONFormatter serializes the full SimulationOutput as pretty-printed
// JSON.
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

func (JSONFormatter) Format(out domain.SimulationOutput) ([]byte, error) {
	return json.MarshalIndent(out, "", "  ")
}
