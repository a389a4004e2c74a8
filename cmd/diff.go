package cmd

import (
	"fmt"

	"github.com/KaramelBytes/salestier-cli/internal/snapshot"
	"github.com/spf13/cobra"
)

var diffFailOnChange bool

var diffCmd = &cobra.Command{
	Use:   "diff <a.snap> <b.snap>",
	Short: "Compare two result snapshots record by record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		a, err := snapshot.Load(args[0])
		if err != nil {
			return err
		}
		b, err := snapshot.Load(args[1])
		if err != nil {
			return err
		}
		diffs := snapshot.Diff(a, b)
		if len(diffs) == 0 {
			fmt.Fprintf(out, "✓ Snapshots match (%d records)\n", len(a.Results))
			return nil
		}
		fmt.Fprintf(out, "⚠ %d difference(s) between %s and %s:\n", len(diffs), args[0], args[1])
		for _, d := range diffs {
			fmt.Fprintf(out, "  - %s\n", d)
		}
		if diffFailOnChange {
			return fmt.Errorf("snapshots differ in %d place(s)", len(diffs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().BoolVar(&diffFailOnChange, "fail-on-change", false, "exit non-zero when the snapshots differ")
}
