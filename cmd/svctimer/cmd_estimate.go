package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autoservice/svctimer/internal/config"
	"github.com/autoservice/svctimer/internal/estimate"
	"github.com/autoservice/svctimer/internal/format"
	"github.com/autoservice/svctimer/internal/history"
	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/stats"
)

func newEstimateCommand() *cobra.Command {
	var configPath string
	var historyPath string

	cmd := &cobra.Command{
		Use:   "estimate <queue.json>",
		Short: "Estimate the total duration of a task queue",
		Long: `Estimate the total duration of a task queue.

The queue file is a JSON array of task objects (or an object with a "tasks"
array), each carrying a "type" or "handler_id" plus its parameters, either
nested under "params" or flattened onto the task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return estimateQueue(cmd.Context(), args[0], configPath, historyPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", ".svctimer.yaml", "Configuration file")
	cmd.Flags().StringVar(&historyPath, "history", "", "Task time history file (overrides config)")

	return cmd
}

func estimateQueue(ctx context.Context, queuePath, configPath, historyPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if historyPath == "" {
		historyPath = cfg.HistoryPath
	}

	tasks, err := loadQueue(queuePath)
	if err != nil {
		return err
	}

	store := history.NewFileStore(historyPath)
	accessor := history.NewAccessor(store, history.WithTTL(cfg.CacheTTL()))
	estimator := estimate.NewEstimator(
		stats.NewRecordAggregator(accessor),
		accessor,
		estimate.WithWorkers(cfg.Estimation.Workers),
		estimate.WithEnabledFlag(func(context.Context) (bool, error) {
			return cfg.EstimationEnabled(), nil
		}),
	)

	results := estimator.EstimateAll(ctx, tasks)
	batch := estimate.Summarize(tasks, results)

	for i, task := range tasks {
		name := task.EffectiveType()
		if name == "" {
			fmt.Printf("  %-28s (no type, skipped)\n", "?")
			continue
		}
		result := results[i]
		if result == nil {
			fmt.Printf("  %-28s no estimate\n", name)
			continue
		}
		basis := fmt.Sprintf("%d sample(s)", result.SampleCount)
		if result.IsParameterBased {
			basis = "from parameters"
		}
		fmt.Printf("  %-28s %-10s %-8s %s\n", name, format.Duration(result.Estimate), result.Confidence, basis)
	}

	fmt.Println()
	total := format.Duration(batch.TotalSeconds)
	if batch.HasPartial {
		fmt.Printf("Total: %s (partial: %d of %d tasks estimated)\n", total, batch.EstimatedCount, batch.TotalCount)
	} else {
		fmt.Printf("Total: %s (%d of %d tasks estimated)\n", total, batch.EstimatedCount, batch.TotalCount)
	}
	if batch.LowConfidenceCount > 0 {
		fmt.Printf("%d estimate(s) have low confidence; totals may shift as history accumulates.\n", batch.LowConfidenceCount)
	}
	return nil
}

// loadQueue reads a queue file shaped either as a bare task array or as an
// object carrying a "tasks" array.
func loadQueue(path string) ([]models.TaskDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading queue file: %w", err)
	}

	var tasks []models.TaskDefinition
	if err := json.Unmarshal(data, &tasks); err == nil {
		return tasks, nil
	}

	var wrapper struct {
		Tasks []models.TaskDefinition `json:"tasks"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing queue file %s: %w", path, err)
	}
	return wrapper.Tasks, nil
}
