/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/difftran/internal/store"
)

var memoryDBPath string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and manage the translation memory",
	Long: `Manage the cell-level translation memory.

The memory caches translated cell text across runs so repeated phrases
are not re-sent to a provider. It is separate from the completion index,
which tracks whole units.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(memoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()

		entries, err := s.ListMemory(context.Background())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Translation memory is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANGS\tUSES\tSOURCE\tTRANSLATION")
		for _, e := range entries {
			status := ""
			if e.Invalidated {
				status = " (invalidated)"
			}
			fmt.Fprintf(w, "%s\t%s->%s\t%d\t%s\t%s%s\n",
				e.ID[:8], e.SourceLang, e.TargetLang, e.UsageCount,
				truncate(e.SourceText, 40), truncate(e.FinalText, 40), status)
		}
		return w.Flush()
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(memoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()

		stats, err := s.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalidated:     %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(memoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()

		if err := s.DeleteMemory(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %s\n", args[0])
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(memoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()

		n, err := s.ClearMemory(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries\n", n)
		return nil
	},
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(memoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()

		runs, err := s.ListRuns(context.Background(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tMODE\tTAG\tTRANSLATED\tSKIPPED\tFAILED\tSTATUS")
		for _, r := range runs {
			status := "running"
			if r.FinishedAt.Valid {
				status = "finished"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Tag,
				r.Translated, r.Skipped, r.Failed, status)
		}
		return w.Flush()
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(runsCmd)

	memoryCmd.PersistentFlags().StringVar(&memoryDBPath, "db", "./data/difftran.db", "Database path")
	runsCmd.Flags().StringVar(&memoryDBPath, "db", "./data/difftran.db", "Database path")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to show")

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}
