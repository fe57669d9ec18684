package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"inhouse-lobby-bot/internal/domain"
)

// Config holds all application configuration. Keys are derived from field
// names, e.g. Timings.PickWindow is read from LOBBYBOT_TIMINGS_PICK_WINDOW.
type Config struct {
	Credentials  string        `split_words:"true" required:"true"`
	PollInterval time.Duration `split_words:"true" default:"60s"`
	FlagCacheTTL time.Duration `split_words:"true" default:"10s"`
	HTTPAddr     string        `split_words:"true" default:"0.0.0.0:8080"`
	LogLevel     string        `split_words:"true" default:"info"`
	LogJSON      bool          `split_words:"true" default:"false"`
	Database     DatabaseConfig
	Lobby        LobbyConfig
	Timings      TimingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `default:"localhost"`
	Port     string `default:"5432"`
	Name     string `default:"lobbybot"`
	User     string `default:"lobbybot"`
	Password string `required:"true"`
	SSLMode  string `split_words:"true" default:"disable"`
}

// LobbyConfig holds options applied to every hosted lobby
type LobbyConfig struct {
	ServerRegion uint32 `split_words:"true" default:"3"`
	GameMode     uint32 `split_words:"true" default:"2"`
}

// TimingConfig holds the session time budgets and retry policies
type TimingConfig struct {
	TotalBudget        time.Duration `split_words:"true" default:"30m"`
	ReadyReserve       time.Duration `split_words:"true" default:"5m"`
	WaitTick           time.Duration `split_words:"true" default:"30s"`
	PickWindow         time.Duration `split_words:"true" default:"60s"`
	PickTick           time.Duration `split_words:"true" default:"1s"`
	SettleDelay        time.Duration `split_words:"true" default:"5s"`
	ConnectRetryDelay  time.Duration `split_words:"true" default:"10s"`
	ConnectMaxAttempts int           `split_words:"true" default:"0"`
	LaunchTimeout      time.Duration `split_words:"true" default:"2m"`
	LaunchAttempts     int           `split_words:"true" default:"3"`
	OutcomeGrace       time.Duration `split_words:"true" default:"30s"`
}

// Load reads configuration from environment variables prefixed with LOBBYBOT_
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("lobbybot", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.ParsedCredentials(); err != nil {
		return err
	}
	if c.Timings.ReadyReserve >= c.Timings.TotalBudget {
		return fmt.Errorf("TIMINGS_READY_RESERVE (%s) must be shorter than TIMINGS_TOTAL_BUDGET (%s)",
			c.Timings.ReadyReserve, c.Timings.TotalBudget)
	}
	if c.Timings.LaunchAttempts < 1 {
		return fmt.Errorf("TIMINGS_LAUNCH_ATTEMPTS must be at least 1")
	}
	if c.Timings.ConnectMaxAttempts < 0 {
		return fmt.Errorf("TIMINGS_CONNECT_MAX_ATTEMPTS must not be negative")
	}
	return nil
}

// ParsedCredentials splits CREDENTIALS into login/password pairs
func (c *Config) ParsedCredentials() ([]domain.Credential, error) {
	creds, err := domain.ParseCredentials(strings.Fields(c.Credentials))
	if err != nil {
		return nil, fmt.Errorf("CREDENTIALS: %w", err)
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("CREDENTIALS: at least one login/password pair is required")
	}
	return creds, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
