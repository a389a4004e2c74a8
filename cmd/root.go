package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/salestier-cli/internal/config"
	"github.com/KaramelBytes/salestier-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string
	logFile  string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "salestier",
	Short: "salestier: assign sales records to revenue tiers and report against existing labels",
	Long: `salestier assigns every sales record to the nearest of three revenue tier
centroids, compares the result with the tier flags already present in the data,
and writes an Excel report with detailed results, summary statistics,
mismatches and the centroids used.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salestier/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults via currentConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
	} else {
		cfg = c
	}

	level, file := "warn", ""
	if cfg != nil {
		level, file = cfg.LogLevel, cfg.LogFile
	}
	if logLevel != "" {
		level = logLevel
	}
	if debug {
		level = "debug"
	}
	if logFile != "" {
		file = logFile
	}
	if err := logger.Init(level, file); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to open log file: %v\n", err)
		_ = logger.Init(level, "")
	}
}
