package cmd

import (
	"fmt"
	"io"

	cfgpkg "github.com/KaramelBytes/salestier-cli/internal/config"
	"github.com/KaramelBytes/salestier-cli/internal/logger"
	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/spf13/cobra"
)

// currentConfig returns the configuration loaded at startup, loading it now
// if startup loading failed or was skipped.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// resolveCentroids picks --centroids when given, otherwise the configured
// centroids. Unordered centroids are used as given, with a warning.
func resolveCentroids(cmd *cobra.Command, c *cfgpkg.Global, flag []float64, out io.Writer) (tier.Centroids, error) {
	values := c.Centroids
	if cmd.Flags().Changed("centroids") {
		values = flag
	}
	centroids, err := tier.NewCentroids(values)
	if err != nil {
		return centroids, fmt.Errorf("centroids: %w", err)
	}
	if !centroids.Ascending() {
		logger.Log.WithField("centroids", centroids).Warn("centroids are not in ascending order; tier labels follow the given order")
		fmt.Fprintf(out, "⚠ Centroids %v are not ascending; tier 1 is the first value, not the lowest\n", centroids)
	}
	return centroids, nil
}

// recordFlags are the input-shaping flags shared by commands that load data.
type recordFlags struct {
	thousands   string
	decimal     string
	sheetName   string
	sheetIndex  int
	skipInvalid bool
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for revenue: ','|'.'|'space' (config default ',')")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for revenue: '.'|'comma' (config default '.')")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().BoolVar(&f.skipInvalid, "skip-invalid", false, "skip malformed records instead of failing the run")
}

// options merges config and flags into loader options.
func (f *recordFlags) options(cmd *cobra.Command, c *cfgpkg.Global) (records.Options, error) {
	opt := records.DefaultOptions()
	fields, err := fieldsFromConfig(c.Fields)
	if err != nil {
		return opt, err
	}
	opt.Fields = fields

	thousands, decimal := c.ThousandsSeparator, c.DecimalSeparator
	if cmd.Flags().Changed("thousands") {
		thousands = f.thousands
	}
	if cmd.Flags().Changed("decimal") {
		decimal = f.decimal
	}
	if opt.ThousandsSeparator, err = records.ParseSeparator(thousands); err != nil {
		return opt, fmt.Errorf("thousands separator: %w", err)
	}
	if opt.DecimalSeparator, err = records.ParseSeparator(decimal); err != nil {
		return opt, fmt.Errorf("decimal separator: %w", err)
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		return opt, fmt.Errorf("decimal and thousands separators are both %q", opt.DecimalSeparator)
	}

	opt.SheetName = f.sheetName
	opt.SheetIndex = f.sheetIndex
	opt.SkipInvalid = c.SkipInvalid
	if cmd.Flags().Changed("skip-invalid") {
		opt.SkipInvalid = f.skipInvalid
	}
	return opt, nil
}

func fieldsFromConfig(fc cfgpkg.Fields) (records.Fields, error) {
	f := records.DefaultFields()
	if len(fc.Flags) != tier.NumClusters && len(fc.Flags) != 0 {
		return f, fmt.Errorf("fields.flags must name %d keys, got %d", tier.NumClusters, len(fc.Flags))
	}
	for dst, src := range map[*string]string{&f.ID: fc.ID, &f.Store: fc.Store, &f.Product: fc.Product, &f.Revenue: fc.Revenue} {
		if src != "" {
			*dst = src
		}
	}
	for i, name := range fc.Flags {
		if name != "" {
			f.Flags[i] = name
		}
	}
	return f, nil
}
