package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/autoservice/svctimer/internal/config"
	"github.com/autoservice/svctimer/internal/format"
	"github.com/autoservice/svctimer/internal/history"
	"github.com/autoservice/svctimer/internal/models"
	"github.com/autoservice/svctimer/internal/normalize"
	"github.com/autoservice/svctimer/internal/stats"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the task time history",
	}

	cmd.AddCommand(newHistoryStatsCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

func newHistoryStatsCommand() *cobra.Command {
	var configPath string
	var historyPath string

	cmd := &cobra.Command{
		Use:   "stats [task-type]",
		Short: "Show per-task sample counts and median durations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if historyPath == "" {
				historyPath = cfg.HistoryPath
			}

			store := history.NewFileStore(historyPath)
			records, err := store.FetchRecords(cmd.Context())
			if err != nil {
				return err
			}

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			return printHistoryStats(records, filter)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", ".svctimer.yaml", "Configuration file")
	cmd.Flags().StringVar(&historyPath, "history", "", "Task time history file (overrides config)")

	return cmd
}

func printHistoryStats(records []models.HistoricalRecord, filter string) error {
	type group struct {
		taskType string
		params   map[string]any
	}
	groups := map[string]group{}
	for _, record := range records {
		if filter != "" && record.TaskType != filter {
			continue
		}
		key := record.TaskType + "|" + normalize.CanonicalParams(record.Params)
		if _, ok := groups[key]; !ok {
			groups[key] = group{taskType: record.TaskType, params: record.Params}
		}
	}
	if len(groups) == 0 {
		fmt.Println("No matching history records.")
		return nil
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		g := groups[key]
		stat := stats.Compute(records, g.taskType, g.params)
		if stat == nil {
			continue
		}
		fmt.Printf("%-28s %s  n=%-4d median=%-10s min=%s max=%s\n",
			g.taskType,
			normalize.CanonicalParams(g.params),
			stat.SampleCount,
			format.Duration(stat.Estimate),
			format.Duration(stat.Min),
			format.Duration(stat.Max),
		)
	}
	return nil
}

func newHistoryClearCommand() *cobra.Command {
	var configPath string
	var historyPath string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored task time records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if historyPath == "" {
				historyPath = cfg.HistoryPath
			}
			if err := history.NewFileStore(historyPath).Clear(); err != nil {
				return err
			}
			fmt.Printf("History cleared: %s\n", historyPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", ".svctimer.yaml", "Configuration file")
	cmd.Flags().StringVar(&historyPath, "history", "", "Task time history file (overrides config)")

	return cmd
}
