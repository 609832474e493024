// Package report renders a completed domain.SimulationOutput through
// pluggable formatters (console, JSON, CSV), the same
// "Formatter" interface shape the teacher repo uses for its retirement
// reports, generalized from a ScenarioComparison to a SimulationOutput.
package report

import (
	"fmt"
	"os"
	"time"

	"github.com/bbdsim/core/internal/domain"
)

// Formatter renders a SimulationOutput to bytes. Implementations must
// be pure: no side effects beyond deterministic formatting.
type Formatter interface {
	Format(output domain.SimulationOutput) ([]byte, error)
	Name() string
}

var builtIn = []Formatter{
	ConsoleFormatter{},
	JSONFormatter{},
	CSVFormatter{},
}

// ByName returns the registered formatter matching name, or nil.
func ByName(name string) Formatter {
	for _, f := range builtIn {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Names lists every registered formatter's identifier.
func Names() []string {
	names := make([]string, len(builtIn))
	for i, f := range builtIn {
		names[i] = f.Name()
	}
	return names
}

// WriteToFile runs f and writes the result to a timestamped file with
// the given extension, returning the path written.
func WriteToFile(f Formatter, output domain.SimulationOutput, ext string) (string, error) {
	data, err := f.Format(output)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bbd_simulation_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}
