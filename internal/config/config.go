// Package config provides relay and CLI configuration loaded from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/playfab-sdk/pkg/commsutil"
	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const logPrefix = "config:LoadConfig"

// Config holds playfab relay and CLI configuration.
type Config struct {
	// PlayFab title
	TitleID            string        `envconfig:"PLAYFAB_TITLE_ID"`
	DeveloperSecretKey string        `envconfig:"PLAYFAB_DEVELOPER_SECRET_KEY"`
	VerticalName       string        `envconfig:"PLAYFAB_VERTICAL"`
	BaseURL            string        `envconfig:"PLAYFAB_BASE_URL"`
	RequestTimeout     time.Duration `envconfig:"PLAYFAB_REQUEST_TIMEOUT" default:"30s"`
	CatalogFile        string        `envconfig:"PLAYFAB_CATALOG_FILE"`

	// Session credentials used by the CLI "call" commands.
	EntityToken   string `envconfig:"PLAYFAB_ENTITY_TOKEN"`
	SessionTicket string `envconfig:"PLAYFAB_SESSION_TICKET"`
	TelemetryKey  string `envconfig:"PLAYFAB_TELEMETRY_KEY"`

	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"playfab-relay"`

	// Subjects
	RelaySubject      string `envconfig:"RELAY_SUBJECT" default:"playfab.relay.v1"`
	ErrorEventSubject string `envconfig:"ERROR_EVENT_SUBJECT" default:"playfab.errors"`

	// RelayMaxInFlight caps concurrently forwarded relay calls per instance.
	RelayMaxInFlight int `envconfig:"RELAY_MAX_IN_FLIGHT" default:"64"`

	// Database (optional error journal; empty disables it)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH"`

	// HTTP health endpoint
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	return &c, nil
}

// Settings returns the title settings for the dispatcher and HTTP transport.
func (c *Config) Settings() playfab.Settings {
	return playfab.Settings{
		TitleID:                  c.TitleID,
		DeveloperSecretKey:       c.DeveloperSecretKey,
		VerticalName:             c.VerticalName,
		ProductionEnvironmentURL: c.BaseURL,
	}
}

// AuthContext returns the configured session credentials, or nil when none are set.
func (c *Config) AuthContext() *playfab.AuthContext {
	if c.EntityToken == "" && c.SessionTicket == "" && c.TelemetryKey == "" {
		return nil
	}
	return &playfab.AuthContext{
		EntityToken:         c.EntityToken,
		ClientSessionTicket: c.SessionTicket,
		TelemetryKey:        c.TelemetryKey,
	}
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateForCall checks required config when calling the backend directly.
func (c *Config) ValidateForCall() error {
	if c.TitleID == "" && c.BaseURL == "" {
		return fmt.Errorf("%s - PLAYFAB_TITLE_ID or PLAYFAB_BASE_URL is required", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - PLAYFAB_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForServe checks required config when running the relay server.
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForCall(); err != nil {
		return err
	}
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.RelaySubject == "" {
		return fmt.Errorf("%s - RELAY_SUBJECT must not be empty", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.RelayMaxInFlight <= 0 {
		return fmt.Errorf("%s - RELAY_MAX_IN_FLIGHT must be positive", logPrefix)
	}
	if c.RunMigrations && c.DatabaseURL == "" {
		return fmt.Errorf("%s - RUN_MIGRATIONS requires DATABASE_URL", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear, ensure-db).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}

// RelaySubjectOrDefault returns the relay subject, falling back to the built-in one.
func (c *Config) RelaySubjectOrDefault() string {
	if c.RelaySubject == "" {
		return commsutil.SubjectRelay
	}
	return c.RelaySubject
}
