package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	applib "github.com/leibooks/leibooks/internal/application/library"
	"github.com/leibooks/leibooks/internal/config"
	"github.com/leibooks/leibooks/internal/log"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:   "leibooks",
	Short: "A small in-memory library of books",
	Long: `leibooks loads a YAML catalog of books into an in-memory library and
lets you list it, search titles by regular expression, and watch the
catalog for changes.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
			closeLog = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .leibooks/config.yaml, then ~/.config/leibooks/config.yaml)")
	rootCmd.PersistentFlags().String("catalog", "",
		"path to the catalog YAML file")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write debug logs to log_path")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("catalog.path", defaults.Catalog.Path)
	viper.SetDefault("catalog.watch", defaults.Catalog.Watch)
	viper.SetDefault("catalog.debounce", defaults.Catalog.Debounce)
	viper.SetDefault("search.cache_ttl", defaults.Search.CacheTTL)
	viper.SetDefault("search.cache_cleanup", defaults.Search.CacheCleanup)
	viper.SetDefault("search.disable_cache", defaults.Search.DisableCache)
	viper.SetDefault("audit.enabled", defaults.Audit.Enabled)
	viper.SetDefault("audit.db_path", defaults.Audit.DBPath)
	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.namespace", defaults.Metrics.Namespace)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("log_path", defaults.LogPath)

	_ = viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .leibooks/config.yaml (current directory)
		// 2. ~/.config/leibooks/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "leibooks"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere: create the default one.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
}

// setup validates the loaded config and starts debug logging when asked.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !cfg.Debug && os.Getenv(log.EnvDebug) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	cleanup, err := log.Init(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	closeLog = cleanup
	log.Info(log.CatConfig, "Starting", "command", cmd.Name(), "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// openService builds the library service from the loaded config and loads
// the catalog into it. Metrics, when enabled, are registered on the
// returned registry. Only long-running commands pass journal: a one-shot
// command would record the whole catalog as added on every run.
func openService(journal bool) (*applib.Service, *prometheus.Registry, error) {
	c := cfg
	if !journal {
		c.Audit.Enabled = false
		c.Metrics.Enabled = false
	}
	reg := prometheus.NewRegistry()
	svc, err := applib.New(c, applib.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	if _, err := svc.LoadCatalog(); err != nil {
		_ = svc.Close()
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	return svc, reg, nil
}

// configFileLabel names the config file in user-facing hints.
func configFileLabel() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "the config file"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
