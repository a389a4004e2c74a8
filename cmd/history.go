package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/salestier-cli/internal/history"
	"github.com/KaramelBytes/salestier-cli/internal/logger"
	"github.com/KaramelBytes/salestier-cli/internal/report"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect runs recorded with 'run --history'",
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cmd.Context(), c.HistoryDriver, c.HistoryDSN, logger.Log)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		entries, err := store.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No runs recorded")
			return nil
		}
		for _, e := range entries {
			match := report.NoData
			if e.Summary.MatchDefined {
				match = fmt.Sprintf("%.2f%%", e.Summary.MatchPercent)
			}
			fmt.Fprintf(out, "%s  %s  %-24s records=%d match=%s\n",
				e.ID, e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.Source, e.Summary.Total, match)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the summary and tier profiles of one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		e, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Run: %s\n", e.ID)
		fmt.Fprintf(out, "Started: %s\n", e.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Source: %s\n", e.Source)
		for i, v := range e.Centroids {
			fmt.Fprintf(out, "Centroid %d: %s\n", i+1, report.Rupiah(v))
		}
		fmt.Fprintln(out)
		for _, m := range report.SummaryMetrics(e.Summary) {
			if f, ok := m.Value.(float64); ok {
				fmt.Fprintf(out, "%s: %.2f\n", m.Name, f)
				continue
			}
			fmt.Fprintf(out, "%s: %v\n", m.Name, m.Value)
		}
		for _, p := range e.Profiles {
			avg := report.NoData
			if p.HasData {
				avg = report.Rupiah(p.AverageRevenue)
			}
			fmt.Fprintf(out, "\nCluster %d (%s)\n", p.ClusterID, p.Characteristic)
			fmt.Fprintf(out, "Average revenue: %s\n", avg)
			fmt.Fprintf(out, "Dominant products: %s\n", strings.Join(p.DominantProducts, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 = all)")
}
