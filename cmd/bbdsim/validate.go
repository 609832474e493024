package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bbdsim/core/internal/config"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file without running a simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadFromFile(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration valid: %d assets, %d iterations, %d years\n",
				len(cfg.Portfolio.Assets), cfg.Simulation.Iterations, cfg.Simulation.Years)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
