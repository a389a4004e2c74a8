package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/salestier-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Fields names the input keys (JSON keys or header columns) of a record.
type Fields struct {
	ID      string   `mapstructure:"id" yaml:"id"`
	Store   string   `mapstructure:"store" yaml:"store"`
	Product string   `mapstructure:"product" yaml:"product"`
	Revenue string   `mapstructure:"revenue" yaml:"revenue"`
	Flags   []string `mapstructure:"flags" yaml:"flags"`
}

// Global configuration structure.
type Global struct {
	Centroids          []float64 `mapstructure:"centroids" yaml:"centroids"`
	OutputDir          string    `mapstructure:"output_dir" yaml:"output_dir"`
	ThousandsSeparator string    `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	DecimalSeparator   string    `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	Workers            int       `mapstructure:"workers" yaml:"workers"`
	SkipInvalid        bool      `mapstructure:"skip_invalid" yaml:"skip_invalid"`
	Fields             Fields    `mapstructure:"fields" yaml:"fields"`

	// Run history; an empty DSN with the sqlite driver means
	// ~/.salestier/history.db.
	HistoryDriver string `mapstructure:"history_driver" yaml:"history_driver"`
	HistoryDSN    string `mapstructure:"history_dsn" yaml:"history_dsn"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("centroids", []float64{424000.00, 915000.00, 689155580.85})
	v.SetDefault("output_dir", ".")
	v.SetDefault("thousands_separator", ",")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("workers", 1)
	v.SetDefault("skip_invalid", false)
	v.SetDefault("fields.id", "Data id")
	v.SetDefault("fields.store", "Nama Toko")
	v.SetDefault("fields.product", "nama Produk")
	v.SetDefault("fields.revenue", "Omset")
	v.SetDefault("fields.flags", []string{"Kluster 1", "Kluster 2", "Kluster 3"})
	v.SetDefault("history_driver", "sqlite")
	v.SetDefault("history_dsn", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
}

// Path resolves the config file location: cfgFile when set, otherwise
// ~/.salestier/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := utils.AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path, or to
// ~/.salestier/config.yaml when cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESTIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := utils.AppDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// the default file is optional
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
