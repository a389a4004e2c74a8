package cmd

import (
	"fmt"

	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/KaramelBytes/salestier-cli/internal/report"
	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/spf13/cobra"
)

var (
	assignCentroids []float64
	assignRecords   recordFlags
)

var assignCmd = &cobra.Command{
	Use:   "assign <revenue>",
	Short: "Show the distances and tier for a single revenue value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt, err := assignRecords.options(cmd, c)
		if err != nil {
			return err
		}
		centroids, err := resolveCentroids(cmd, c, assignCentroids, out)
		if err != nil {
			return err
		}
		v, err := records.ParseRevenue(args[0], opt)
		if err != nil {
			return fmt.Errorf("revenue %q: %w", args[0], err)
		}
		distances, cluster := centroids.Assign(v)
		fmt.Fprintf(out, "Revenue: %s\n", report.Rupiah(v))
		for i, d := range distances {
			fmt.Fprintf(out, "  Cluster %d (centroid %s): distance %s\n", i+1, report.Rupiah(centroids[i]), report.Rupiah(d))
		}
		fmt.Fprintf(out, "✓ Cluster %d: %s\n", cluster, tier.Characteristic(cluster))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)
	assignCmd.Flags().Float64SliceVar(&assignCentroids, "centroids", nil, "three tier centroids, e.g. 424000,915000,689155580.85")
	assignRecords.register(assignCmd)
}
