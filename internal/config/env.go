package config

import (
	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Destination
// credentials follow the usual PostgreSQL conventions (DATABASE_URL or
// PG*); tool-specific settings carry the XMONITOR_ prefix.
type EnvConfig struct {
	// DatabaseURL is the full destination connection URL.
	// Env: DATABASE_URL
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// PGHost is the destination host when no DATABASE_URL is set.
	// Env: PGHOST
	PGHost string `envconfig:"PGHOST"`

	// PGPort is the destination port.
	// Env: PGPORT (default: 5432)
	PGPort int `envconfig:"PGPORT" default:"5432"`

	// PGDatabase is the destination database name.
	// Env: PGDATABASE
	PGDatabase string `envconfig:"PGDATABASE"`

	// PGUser is the destination user.
	// Env: PGUSER
	PGUser string `envconfig:"PGUSER"`

	// PGPassword is the destination password.
	// Env: PGPASSWORD
	PGPassword string `envconfig:"PGPASSWORD"`

	// PGSSLMode is the destination sslmode.
	// Env: PGSSLMODE
	PGSSLMode string `envconfig:"PGSSLMODE"`

	// SourceDBPath is the legacy collector SQLite database path.
	// Env: XMONITOR_SQLITE_PATH
	// Default: ~/.xmonitor/x_monitor.db
	SourceDBPath string `envconfig:"XMONITOR_SQLITE_PATH"`

	// ExportDir is the JSONL export directory.
	// Env: XMONITOR_EXPORT_DIR (default: data/export)
	ExportDir string `envconfig:"XMONITOR_EXPORT_DIR"`

	// RejectLogPath is the import reject-log path.
	// Env: XMONITOR_REJECT_LOG (default: data/import_rejects.ndjson)
	RejectLogPath string `envconfig:"XMONITOR_REJECT_LOG"`

	// SourceLabel is recorded on derived metric snapshots.
	// Env: XMONITOR_SOURCE_LABEL (default: sqlite_migration)
	SourceLabel string `envconfig:"XMONITOR_SOURCE_LABEL"`

	// APIBaseURL is the remote ops API base URL used by the omit command.
	// Env: XMONITOR_API_BASE_URL
	APIBaseURL string `envconfig:"XMONITOR_API_BASE_URL"`

	// APIKey authenticates remote ops API calls.
	// Env: XMONITOR_API_KEY
	APIKey string `envconfig:"XMONITOR_API_KEY"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	var opts []AppConfigOption
	if e.DatabaseURL != "" {
		opts = append(opts, WithDatabaseURL(e.DatabaseURL))
	}
	opts = append(opts, WithPGParams(PGParams{
		Host:     e.PGHost,
		Port:     e.PGPort,
		Database: e.PGDatabase,
		User:     e.PGUser,
		Password: e.PGPassword,
		SSLMode:  e.PGSSLMode,
	}))
	if e.SourceDBPath != "" {
		opts = append(opts, WithSourceDBPath(e.SourceDBPath))
	}
	if e.ExportDir != "" {
		opts = append(opts, WithExportDir(e.ExportDir))
	}
	if e.RejectLogPath != "" {
		opts = append(opts, WithRejectLogPath(e.RejectLogPath))
	}
	if e.SourceLabel != "" {
		opts = append(opts, WithSourceLabel(e.SourceLabel))
	}
	if e.APIBaseURL != "" {
		opts = append(opts, WithAPIBaseURL(e.APIBaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(ParseLogFormat(e.LogFormat)))
	}

	return cfg.Apply(opts...)
}
