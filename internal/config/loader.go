package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of configuration environment variables.
// DATAENGINE_LOAD_MAX_WORKERS maps to load.max_workers.
const EnvPrefix = "DATAENGINE_"

// DefaultConfigFiles are searched in the working directory when no file is given.
var DefaultConfigFiles = []string{"dataengine.yaml", "dataengine.yml"}

// flagKeys maps command-line flag names to configuration keys.
// Flags not listed here are command options, not configuration.
var flagKeys = map[string]string{
	"data-dir":       "data.dir",
	"parallel":       "load.parallel",
	"max-workers":    "load.max_workers",
	"short-rows":     "load.short_rows",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"host":           "server.host",
	"port":           "server.port",
	"watch":          "server.watch",
	"database-url":   "export.database_url",
	"table":          "export.table",
	"xml-attributes": "data.xml_attributes",
}

func defaults() map[string]any {
	return map[string]any{
		"data.dir":                "data",
		"data.xml_footer":         "</state-county-wage-data>",
		"data.xml_attributes":     19,
		"data.xml_skip_lines":     2,
		"load.parallel":           false,
		"load.max_workers":        4,
		"load.short_rows":         "pad",
		"load.timeout":            "5m",
		"logging.level":           "info",
		"logging.format":          "text",
		"server.host":             "127.0.0.1",
		"server.port":             8080,
		"server.read_timeout":     "15s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "30s",
		"server.request_timeout":  "60s",
		"server.watch":            false,
		"server.watch_debounce":   "500ms",
		"export.table":            "dataset_records",
		"export.timeout":          "10m",
	}
}

// Load reads configuration from defaults, cfgFile (or a default file in the
// working directory), the environment and flags, then validates the result.
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "config load: defaults")
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config load: read %s", used)
		}
	}

	// DATAENGINE_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, "config load: environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "config load: flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "config load: decode")
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}

	return &cfg, nil
}

// findConfigFile returns explicit if set, else the first default file present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks all configuration values and returns an error if any are invalid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Data validation
	if strings.TrimSpace(c.Data.Dir) == "" {
		errs = append(errs, "data.dir is required")
	}
	if strings.TrimSpace(c.Data.XMLFooter) == "" {
		errs = append(errs, "data.xml_footer is required")
	}
	if c.Data.XMLAttributes <= 0 {
		errs = append(errs, fmt.Sprintf("data.xml_attributes (%d) must be positive", c.Data.XMLAttributes))
	}
	if c.Data.XMLSkipLines < 1 {
		// The footer closes a root element whose opening line is always skipped.
		errs = append(errs, fmt.Sprintf("data.xml_skip_lines (%d) must be at least 1", c.Data.XMLSkipLines))
	}

	// Load validation
	if c.Load.MaxWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("load.max_workers (%d) must be positive", c.Load.MaxWorkers))
	}
	validPolicies := map[string]bool{"pad": true, "reject": true}
	if !validPolicies[strings.ToLower(c.Load.ShortRows)] {
		errs = append(errs, fmt.Sprintf("load.short_rows (%q) must be one of: pad, reject", c.Load.ShortRows))
	}
	if c.Load.Timeout <= 0 {
		errs = append(errs, "load.timeout must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	if c.Server.Watch && c.Server.WatchDebounce <= 0 {
		errs = append(errs, "server.watch_debounce must be positive when watching")
	}

	// Export validation
	if strings.TrimSpace(c.Export.Table) == "" {
		errs = append(errs, "export.table is required")
	}
	if c.Export.Timeout <= 0 {
		errs = append(errs, "export.timeout must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("logging.format (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Newf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ValidateExport checks the settings only the export command needs.
func (c *Config) ValidateExport() error {
	if strings.TrimSpace(c.Export.DatabaseURL) == "" {
		return errors.New("export.database_url is required (set DATAENGINE_EXPORT_DATABASE_URL or --database-url)")
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Export.DatabaseURL != "" {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Data: {Dir: %q, Overrides: %d}, ", c.Data.Dir, len(c.Data.Files))
	fmt.Fprintf(&b, "Load: {Parallel: %v, MaxWorkers: %d, ShortRows: %q}, ",
		c.Load.Parallel, c.Load.MaxWorkers, c.Load.ShortRows)
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d, Watch: %v}, ", c.Server.Host, c.Server.Port, c.Server.Watch)
	fmt.Fprintf(&b, "Export: {DatabaseURL: %q, Table: %q}, ", dbURL, c.Export.Table)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
