// Package config provides centralized configuration management for the application.
//
// Values are layered, lowest priority first: built-in defaults, the YAML config
// file (dataengine.yaml), DATAENGINE_* environment variables, then command-line
// flags that were explicitly set. The result is validated on load to fail fast
// on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Data    DataConfig    `koanf:"data"`
	Load    LoadConfig    `koanf:"load"`
	Logging LoggingConfig `koanf:"logging"`
	Server  ServerConfig  `koanf:"server"`
	Export  ExportConfig  `koanf:"export"`

	// File is the config file that was read, if any
	File string `koanf:"-"`
}

// DataConfig locates the source files.
type DataConfig struct {
	// Dir is the directory holding the source files (default: data)
	Dir string `koanf:"dir"`

	// Files overrides the default file name per dataset, e.g. StateExports: exports-2013.xlsx
	Files map[string]string `koanf:"files"`

	// XMLFooter is the line that ends the fixed-schema XML file
	XMLFooter string `koanf:"xml_footer"`

	// XMLAttributes is the number of element lines per XML record (default: 19)
	XMLAttributes int `koanf:"xml_attributes"`

	// XMLSkipLines is the number of XML preamble lines to skip, at least 1 (default: 2)
	XMLSkipLines int `koanf:"xml_skip_lines"`
}

// LoadConfig controls how the catalog is loaded.
type LoadConfig struct {
	// Parallel reads files concurrently (default: false)
	Parallel bool `koanf:"parallel"`

	// MaxWorkers bounds concurrent reads in parallel mode (default: 4)
	MaxWorkers int `koanf:"max_workers"`

	// ShortRows is the policy for rows shorter than the header: pad or reject (default: pad)
	ShortRows string `koanf:"short_rows"`

	// Timeout is the maximum duration of one full load (default: 5m)
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `koanf:"level"`

	// Format is the log format: text or json (default: text)
	Format string `koanf:"format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `koanf:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `koanf:"port"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// Watch reloads the datasets when a source file changes (default: false)
	Watch bool `koanf:"watch"`

	// WatchDebounce is the quiet period before a reload starts (default: 500ms)
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// ExportConfig holds PostgreSQL export settings.
type ExportConfig struct {
	// DatabaseURL is the PostgreSQL connection string (required for export)
	DatabaseURL string `koanf:"database_url"`

	// Table is the target table (default: dataset_records)
	Table string `koanf:"table"`

	// Timeout is the maximum duration of one export (default: 10m)
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
