package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/autoservice/svctimer/internal/config"
	"github.com/autoservice/svctimer/internal/history"
	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/normalize"
)

func newRecordCommand() *cobra.Command {
	var configPath string
	var historyPath string
	var taskType string
	var paramsJSON string
	var duration float64

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an observed task execution",
		Long: `Record one observed task execution into the time history.

The service runner calls this after each successful task so future estimates
reflect the machine at hand. Old records are pruned automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskType == "" {
				return fmt.Errorf("--type is required")
			}
			if duration <= 0 {
				return fmt.Errorf("--duration must be a positive number of seconds")
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if historyPath == "" {
				historyPath = cfg.HistoryPath
			}

			params := map[string]any{}
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("parsing --params: %w", err)
				}
			}
			// Store only the duration-relevant parameters so records group
			// under the same keys the estimator queries with.
			relevant := normalize.Relevant(models.TaskDefinition{Type: taskType, Params: params})

			store := history.NewFileStore(historyPath)
			record := models.HistoricalRecord{
				TaskType:        taskType,
				Params:          relevant,
				DurationSeconds: duration,
				Timestamp:       time.Now().Unix(),
			}
			if err := store.Append(cmd.Context(), record); err != nil {
				return err
			}
			fmt.Printf("Recorded %s: %.1fs\n", taskType, duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", ".svctimer.yaml", "Configuration file")
	cmd.Flags().StringVar(&historyPath, "history", "", "Task time history file (overrides config)")
	cmd.Flags().StringVar(&taskType, "type", "", "Runtime task type that executed")
	cmd.Flags().StringVar(&paramsJSON, "params", "", "Task parameters as a JSON object")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Observed duration in seconds")

	return cmd
}
