// Package config loads workbench-engine configuration from YAML and
// environment variables. Environment variables override YAML values;
// secrets come only from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is the default YAML configuration path.
const ConfigFile = "config.yaml"

// Config holds all configuration for workbench-engine.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Auth      AuthConfig      `yaml:"auth"`
	Provider  ProviderConfig  `yaml:"provider"`
	Database  DatabaseConfig  `yaml:"database"`
	Workbench WorkbenchConfig `yaml:"workbench"`
}

// AuthConfig holds JWT verification settings.
type AuthConfig struct {
	// SigningKey verifies bearer tokens. Secret; environment only.
	SigningKey string `yaml:"-" env:"AUTH_SIGNING_KEY"`

	// EnableVerification controls whether bearer tokens are validated.
	// Set to false only for local development.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`
}

// ProviderConfig describes the first configured authentication provider,
// used to derive the identity namespace during self-registration.
type ProviderConfig struct {
	ID                         string   `yaml:"id" env:"AUTH_PROVIDER_ID" env-default:"internal"`
	Title                      string   `yaml:"title" env:"AUTH_PROVIDER_TITLE" env-default:"Internal"`
	FederatedIdentityProviders []string `yaml:"federated_identity_providers" env:"AUTH_PROVIDER_FEDERATED_IDPS" env-separator:","`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"workbench"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"workbench_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// WorkbenchConfig holds service-level tunables.
type WorkbenchConfig struct {
	// StreamingEnrichment toggles the derived isStreamingConfigured
	// flag on project reads.
	StreamingEnrichment bool `yaml:"streaming_enrichment" env:"STREAMING_ENRICHMENT" env-default:"false"`

	// ScanLimit bounds project list scans.
	ScanLimit int `yaml:"scan_limit" env:"SCAN_LIMIT" env-default:"1000"`

	// AuditListLimit bounds audit log reads.
	AuditListLimit int `yaml:"audit_list_limit" env:"AUDIT_LIST_LIMIT" env-default:"100"`
}

// URL builds the PostgreSQL connection URL.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Database,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Load reads configuration from config.yaml (when present) and the
// environment, then validates it.
func Load(version string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	cfg.Version = version

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.EnableVerification && c.Auth.SigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when auth verification is enabled")
	}
	if c.Workbench.ScanLimit <= 0 {
		return fmt.Errorf("scan_limit must be positive")
	}
	return nil
}
