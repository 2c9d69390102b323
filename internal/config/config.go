// Package config provides configuration types and defaults for leibooks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/leibooks/leibooks/internal/log"
)

// Config holds all configuration options for leibooks.
type Config struct {
	Catalog CatalogConfig   `mapstructure:"catalog"`
	Search  SearchConfig    `mapstructure:"search"`
	Audit   AuditConfig     `mapstructure:"audit"`
	Metrics MetricsConfig   `mapstructure:"metrics"`
	Tracing TracingConfig   `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
	Debug   bool            `mapstructure:"debug"`
	LogPath string          `mapstructure:"log_path"`
}

// CatalogConfig locates the YAML catalog the library is loaded from.
type CatalogConfig struct {
	Path string `mapstructure:"path"`

	// Watch reloads the catalog whenever the file changes.
	Watch bool `mapstructure:"watch"`

	// Debounce coalesces bursts of file events. Default: 500ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// SearchConfig tunes the compiled-pattern cache used by find.
type SearchConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheCleanup time.Duration `mapstructure:"cache_cleanup"`
	DisableCache bool          `mapstructure:"disable_cache"`
}

// AuditConfig controls the SQLite change journal.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// MetricsConfig controls the Prometheus change metrics.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// TracingConfig holds span export configuration.
type TracingConfig struct {
	// Enabled controls whether library events are traced.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/leibooks/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultCatalogPath is the catalog used when none is configured.
const DefaultCatalogPath = ".leibooks/catalog.yaml"

// DefaultConfigPath is where a default config is written on first run.
const DefaultConfigPath = ".leibooks/config.yaml"

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// configDir returns ~/.config/leibooks or empty string if home dir unavailable.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "leibooks")
}

// DefaultTracesFilePath returns ~/.config/leibooks/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultAuditDBPath returns ~/.config/leibooks/audit.db.
func DefaultAuditDBPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "audit.db")
}

// DefaultLogPath returns ~/.config/leibooks/debug.log.
func DefaultLogPath() string {
	dir := configDir()
	if dir == "" {
		return "debug.log"
	}
	return filepath.Join(dir, "debug.log")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Catalog: CatalogConfig{
			Path:     DefaultCatalogPath,
			Watch:    false,
			Debounce: 500 * time.Millisecond,
		},
		Search: SearchConfig{
			CacheTTL:     10 * time.Minute,
			CacheCleanup: 20 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled: false,
			DBPath:  DefaultAuditDBPath(),
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "leibooks",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Flags:   map[string]bool{},
		LogPath: DefaultLogPath(),
	}
}

// Validate checks every section and returns the first problem found.
func Validate(cfg Config) error {
	if err := ValidateCatalog(cfg.Catalog); err != nil {
		return err
	}
	if err := ValidateSearch(cfg.Search); err != nil {
		return err
	}
	if err := ValidateAudit(cfg.Audit); err != nil {
		return err
	}
	if err := ValidateMetrics(cfg.Metrics); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateCatalog checks catalog configuration for errors.
func ValidateCatalog(c CatalogConfig) error {
	if c.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("catalog.debounce must not be negative, got %s", c.Debounce)
	}
	return nil
}

// ValidateSearch checks search cache configuration for errors.
// Zero durations fall back to the cache defaults.
func ValidateSearch(s SearchConfig) error {
	if s.CacheTTL < 0 {
		return fmt.Errorf("search.cache_ttl must not be negative, got %s", s.CacheTTL)
	}
	if s.CacheCleanup < 0 {
		return fmt.Errorf("search.cache_cleanup must not be negative, got %s", s.CacheCleanup)
	}
	return nil
}

// ValidateAudit checks journal configuration for errors.
func ValidateAudit(a AuditConfig) error {
	if a.Enabled && a.DBPath == "" {
		return fmt.Errorf("audit.db_path is required when audit is enabled")
	}
	return nil
}

// ValidateMetrics checks that the namespace is a legal metric name prefix.
func ValidateMetrics(m MetricsConfig) error {
	if m.Namespace != "" && !namespacePattern.MatchString(m.Namespace) {
		return fmt.Errorf("metrics.namespace %q is not a valid metric name prefix", m.Namespace)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	switch tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
	}

	// Path requirements only matter when tracing is on.
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# leibooks configuration

# Catalog of books loaded into the library
catalog:
  path: .leibooks/catalog.yaml
  watch: false        # Reload when the catalog file changes (used by "leibooks watch")
  debounce: 500ms     # Wait this long after the last change before reloading

# Title search
search:
  cache_ttl: 10m          # How long compiled patterns stay cached
  cache_cleanup: 20m      # How often expired patterns are purged
  disable_cache: false

# Change journal (SQLite)
audit:
  enabled: false
  # db_path: ~/.config/leibooks/audit.db

# Prometheus change metrics
metrics:
  enabled: false
  namespace: leibooks

# Span per library change (OpenTelemetry)
# tracing:
#   enabled: true
#   exporter: file      # "none", "file", "stdout" or "otlp"
#   file_path: ~/.config/leibooks/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

# Feature flags
# flags:
#   title-diff: true    # Log a word diff when a reload renames a book
#   log-events: true    # Log every library change at debug level

# Debug logging (also enabled by --debug or LEIBOOKS_DEBUG=1)
debug: false
# log_path: ~/.config/leibooks/debug.log
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
