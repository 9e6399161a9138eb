// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Default configuration values.
const (
	DefaultLogLevel        = "INFO"
	DefaultExportDir       = "data/export"
	DefaultRejectLogPath   = "data/import_rejects.ndjson"
	DefaultSourceLabel     = "sqlite_migration"
	DefaultSampleSize      = 20
	DefaultPGPort          = 5432
	DefaultLambdaFunction  = "xmonitor-vpc-api"
	DefaultLambdaRegion    = "us-east-1"
	DefaultSnapshotDBName  = "x_monitor.db"
	DefaultSourceSubdir    = ".xmonitor"
	DefaultAPIBaseURL      = "https://www.zodldashboard.com/api/v1"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// PGParams holds discrete PostgreSQL connection parameters, used when no
// DATABASE_URL is supplied.
type PGParams struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// URL assembles a postgres:// connection URL from the discrete parameters.
func (p PGParams) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else if p.User != "" {
		u.User = url.User(p.User)
	}
	if p.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", p.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// missing returns the required discrete parameters that are unset.
func (p PGParams) missing() []string {
	var out []string
	if p.Host == "" {
		out = append(out, "PGHOST")
	}
	if p.Database == "" {
		out = append(out, "PGDATABASE")
	}
	if p.User == "" {
		out = append(out, "PGUSER")
	}
	return out
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	sourceDBPath  string
	exportDir     string
	rejectLogPath string
	databaseURL   string
	pg            PGParams
	sourceLabel   string
	skipSnapshots bool
	sampleSize    int
	apiBaseURL    string
	apiKey        string
	logLevel      string
	logFormat     LogFormat
}

// DefaultSourceDBPath returns the default path of the legacy collector
// SQLite database.
func DefaultSourceDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultSourceSubdir, DefaultSnapshotDBName)
	}
	return filepath.Join(home, DefaultSourceSubdir, DefaultSnapshotDBName)
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		sourceDBPath:  DefaultSourceDBPath(),
		exportDir:     DefaultExportDir,
		rejectLogPath: DefaultRejectLogPath,
		pg:            PGParams{Port: DefaultPGPort},
		sourceLabel:   DefaultSourceLabel,
		sampleSize:    DefaultSampleSize,
		apiBaseURL:    DefaultAPIBaseURL,
		logLevel:      DefaultLogLevel,
		logFormat:     LogFormatPretty,
	}
}

// SourceDBPath returns the legacy SQLite database path.
func (c AppConfig) SourceDBPath() string { return c.sourceDBPath }

// SourceDBURL returns the legacy SQLite database as a database URL.
func (c AppConfig) SourceDBURL() string { return "sqlite:///" + c.sourceDBPath }

// ExportDir returns the JSONL export directory.
func (c AppConfig) ExportDir() string { return c.exportDir }

// RejectLogPath returns the reject-log file path.
func (c AppConfig) RejectLogPath() string { return c.rejectLogPath }

// SourceLabel returns the label recorded on derived metric snapshots.
func (c AppConfig) SourceLabel() string { return c.sourceLabel }

// SkipSnapshots reports whether derived snapshot generation is disabled.
func (c AppConfig) SkipSnapshots() bool { return c.skipSnapshots }

// SampleSize returns the number of posts to spot-check during validation.
func (c AppConfig) SampleSize() int { return c.sampleSize }

// APIBaseURL returns the remote ops API base URL.
func (c AppConfig) APIBaseURL() string { return c.apiBaseURL }

// APIKey returns the remote ops API key.
func (c AppConfig) APIKey() string { return c.apiKey }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// DestinationURL resolves the PostgreSQL destination. An explicit
// DATABASE_URL wins; otherwise the discrete PG* parameters are assembled.
// Missing credentials are a configuration error, reported before any row
// is processed.
func (c AppConfig) DestinationURL() (string, error) {
	if c.databaseURL != "" {
		return c.databaseURL, nil
	}
	if missing := c.pg.missing(); len(missing) > 0 {
		return "", fmt.Errorf("missing destination config: set DATABASE_URL or %s", strings.Join(missing, ", "))
	}
	return c.pg.URL(), nil
}

// MaskedDestination returns a log-safe rendering of the destination.
func (c AppConfig) MaskedDestination() string {
	if c.databaseURL == "" && len(c.pg.missing()) > 0 {
		return "(not configured)"
	}
	return "postgres://***"
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithSourceDBPath sets the legacy SQLite database path.
func WithSourceDBPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.sourceDBPath = path }
}

// WithExportDir sets the JSONL export directory.
func WithExportDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.exportDir = dir }
}

// WithRejectLogPath sets the reject-log file path.
func WithRejectLogPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.rejectLogPath = path }
}

// WithDatabaseURL sets the destination database URL.
func WithDatabaseURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.databaseURL = url }
}

// WithPGParams sets the discrete PostgreSQL parameters.
func WithPGParams(p PGParams) AppConfigOption {
	return func(c *AppConfig) {
		if p.Port == 0 {
			p.Port = DefaultPGPort
		}
		c.pg = p
	}
}

// WithSourceLabel sets the derived-snapshot source label.
func WithSourceLabel(label string) AppConfigOption {
	return func(c *AppConfig) {
		if label != "" {
			c.sourceLabel = label
		}
	}
}

// WithSkipSnapshots disables derived snapshot generation.
func WithSkipSnapshots(skip bool) AppConfigOption {
	return func(c *AppConfig) { c.skipSnapshots = skip }
}

// WithSampleSize sets the validation spot-check sample size.
func WithSampleSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n >= 0 {
			c.sampleSize = n
		}
	}
}

// WithAPIBaseURL sets the remote ops API base URL.
func WithAPIBaseURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.apiBaseURL = url }
}

// WithAPIKey sets the remote ops API key.
func WithAPIKey(key string) AppConfigOption {
	return func(c *AppConfig) { c.apiKey = key }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ParseLogFormat parses a log format string.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
