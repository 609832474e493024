package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bbdsim/core/internal/analytics"
	"github.com/bbdsim/core/internal/config"
	"github.com/bbdsim/core/internal/domain"
	"github.com/bbdsim/core/internal/logging"
	"github.com/bbdsim/core/internal/montecarlo"
	"github.com/bbdsim/core/internal/report"
	"github.com/bbdsim/core/pkg/dateutil"
)

func newRunCmd(logLevel *string) *cobra.Command {
	var (
		configPath        string
		format            string
		outFile           string
		startCalendarYear int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a configuration file and print or save a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewZerologLogger(os.Stderr, *logLevel)

			loader := config.NewLoader()
			cfg, err := loader.LoadFromFile(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Infof("running %d iterations over %d years (method=%s)", cfg.Simulation.Iterations, cfg.Simulation.Years, cfg.Simulation.Method)
			if startCalendarYear > 0 {
				endYear := dateutil.CalendarYearForSimulationYear(startCalendarYear, cfg.Simulation.Years)
				logger.Infof("calendar years %d-%d", startCalendarYear, endYear)
			}

			driver := montecarlo.NewDriver()
			driver.Logger = logger
			output, err := driver.Run(ctx, cfg.Simulation, cfg.Portfolio)
			if err != nil {
				return err
			}

			annotateOutput(&output, cfg)

			formatter := report.ByName(format)
			if formatter == nil {
				return fmt.Errorf("unknown output format %q (available: %v)", format, report.Names())
			}

			if outFile != "" {
				path, err := report.WriteToFile(formatter, output, extensionFor(format))
				if err != nil {
					return err
				}
				logger.Infof("wrote report to %s", path)
				return nil
			}

			data, err := formatter.Format(output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the run configuration file (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format: console, json, csv")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the report to a timestamped file instead of stdout")
	cmd.Flags().IntVar(&startCalendarYear, "start-calendar-year", 0, "calendar year simulation year 0 represents (only logged as the run's calendar-year range)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// annotateOutput fills in the analytics the Monte Carlo driver leaves
// for the caller to compute once terminal aggregation is done: estate
// comparison and the representative path's drawdown.
func annotateOutput(output *domain.SimulationOutput, cfg *config.RunConfig) {
	if cfg.Simulation.SBLOC != nil {
		output.EstateAnalysis = analytics.EstateAnalysisFromOutput(
			*output,
			cfg.Simulation.InitialValue,
			cfg.Simulation.SBLOC.AnnualWithdrawal,
			*cfg.Sell,
		)
	}

	if len(output.YearlyPercentiles) > 0 {
		years := make([]int, len(output.YearlyPercentiles))
		median := make([]float64, len(output.YearlyPercentiles))
		for i, yp := range output.YearlyPercentiles {
			years[i] = yp.Year
			median[i] = yp.P50
		}
		output.Drawdown = analytics.DrawdownFromPath(years, median)
	}
}

func extensionFor(format string) string {
	switch format {
	case "json":
		return "json"
	case "csv":
		return "csv"
	default:
		return "txt"
	}
}
