package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/salestier-cli/internal/config"
	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set salestier configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		shown := *c
		shown.HistoryDSN = maskDSN(c.HistoryDSN)
		b, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		path, err := cfgpkg.Path(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, b)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "centroids":
		var vals []float64
		for _, part := range strings.Split(val, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return fmt.Errorf("invalid float in centroids: %q", part)
			}
			vals = append(vals, f)
		}
		if _, err := tier.NewCentroids(vals); err != nil {
			return fmt.Errorf("centroids: %w", err)
		}
		c.Centroids = vals
	case "output_dir":
		c.OutputDir = val
	case "thousands_separator", "decimal_separator":
		if _, err := records.ParseSeparator(val); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "thousands_separator" {
			c.ThousandsSeparator = val
		} else {
			c.DecimalSeparator = val
		}
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for workers: %w", err)
		}
		c.Workers = i
	case "skip_invalid":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for skip_invalid: %w", err)
		}
		c.SkipInvalid = b
	case "fields.id":
		c.Fields.ID = val
	case "fields.store":
		c.Fields.Store = val
	case "fields.product":
		c.Fields.Product = val
	case "fields.revenue":
		c.Fields.Revenue = val
	case "fields.flags":
		names := strings.Split(val, ",")
		if len(names) != tier.NumClusters {
			return fmt.Errorf("fields.flags needs %d comma-separated names", tier.NumClusters)
		}
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		c.Fields.Flags = names
	case "history_driver":
		switch strings.ToLower(val) {
		case "sqlite", "sqlite3", "mysql", "mariadb", "postgres", "postgresql":
			c.HistoryDriver = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid history_driver: %s (use sqlite, mysql or postgres)", val)
		}
	case "history_dsn":
		c.HistoryDSN = val
	case "log_level":
		c.LogLevel = val
	case "log_file":
		c.LogFile = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// maskDSN hides the password of a URL-style or key=value DSN.
func maskDSN(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		rest := dsn[i+3:]
		at := strings.LastIndex(rest, "@")
		colon := strings.Index(rest, ":")
		if at > 0 && colon >= 0 && colon < at {
			return dsn[:i+3] + rest[:colon] + ":****" + rest[at:]
		}
		return dsn
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon >= 0 {
			return dsn[:colon] + ":****" + dsn[at:]
		}
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
