package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/KaramelBytes/salestier-cli/internal/history"
	"github.com/KaramelBytes/salestier-cli/internal/logger"
	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/KaramelBytes/salestier-cli/internal/report"
	"github.com/KaramelBytes/salestier-cli/internal/snapshot"
	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/KaramelBytes/salestier-cli/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	runOutput     string
	runOutputDir  string
	runCentroids  []float64
	runWorkers    int
	runSnapshot   string
	runHistory    bool
	runNoProgress bool
	runRecords    recordFlags
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Assign revenue tiers to a JSON/CSV/XLSX dataset and write the Excel report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := runRecords.options(cmd, c)
		if err != nil {
			return err
		}
		centroids, err := resolveCentroids(cmd, c, runCentroids, out)
		if err != nil {
			return err
		}

		ds, err := records.Load(args[0], opt)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Loaded %d records from %s\n", len(ds.Records), ds.Source)
		if len(ds.Skipped) > 0 {
			fmt.Fprintf(out, "⚠ Skipped %d malformed record(s)\n", len(ds.Skipped))
		}

		workers := c.Workers
		if cmd.Flags().Changed("workers") {
			workers = runWorkers
		}
		if workers < 0 {
			workers = runtime.NumCPU()
		}
		popt := tier.Options{Workers: workers, Logger: logger.Log}
		var bar *progressbar.ProgressBar
		if !runNoProgress && len(ds.Records) > 0 {
			bar = progressbar.NewOptions(len(ds.Records),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("assigning tiers"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			popt.OnProgress = func() { _ = bar.Add(1) }
		}
		run, err := tier.Process(cmd.Context(), *ds, centroids, popt)
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return err
		}
		fmt.Fprint(out, report.Text(run))

		path := runOutput
		if path == "" {
			dir := c.OutputDir
			if cmd.Flags().Changed("output-dir") {
				dir = runOutputDir
			}
			if dir, err = utils.ExpandHome(dir); err != nil {
				return err
			}
			path = filepath.Join(dir, report.FileName(run.StartedAt))
		}
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return err
		}
		if err := report.WriteXLSX(path, run); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✓ Results saved to %s\n", path)

		if runSnapshot != "" {
			if err := snapshot.Save(runSnapshot, snapshot.FromRun(run)); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			fmt.Fprintf(out, "✓ Snapshot saved to %s\n", runSnapshot)
		}
		if runHistory {
			store, err := history.Open(cmd.Context(), c.HistoryDriver, c.HistoryDSN, logger.Log)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SaveRun(cmd.Context(), run); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Run %s recorded in history\n", run.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "report path (default <output-dir>/clustering_analysis_YYYYMMDD_HHMMSS.xlsx)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for the report (overrides config output_dir)")
	runCmd.Flags().Float64SliceVar(&runCentroids, "centroids", nil, "three tier centroids, e.g. 424000,915000,689155580.85")
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "parallel workers for tier assignment (-1 = one per CPU)")
	runCmd.Flags().StringVar(&runSnapshot, "snapshot", "", "also write a compressed snapshot of the results to this path")
	runCmd.Flags().BoolVar(&runHistory, "history", false, "record the run in the history database")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable the progress bar")
	runRecords.register(runCmd)
}
