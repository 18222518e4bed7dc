package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "svctimer",
		Short: "svctimer - duration estimates for service task queues",
		Long: `svctimer estimates how long a queue of service tasks will take.

Deterministic tasks (fixed-rate benchmarks, timed stress runs) are computed
exactly from their parameters; everything else gets a robust median estimate
from the recorded execution history, qualified with a confidence level.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newEstimateCommand())
	cmd.AddCommand(newRecordCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
