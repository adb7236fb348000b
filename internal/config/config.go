// Package config loads kai runtime configuration from kai.yaml, KAI_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"kai/internal/notification"
	"kai/internal/observability"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config is the complete runtime configuration.
type Config struct {
	Server        ServerConfig         `mapstructure:"server" yaml:"server"`
	Store         StoreConfig          `mapstructure:"store" yaml:"store"`
	Assistant     AssistantConfig      `mapstructure:"assistant" yaml:"assistant"`
	Scheduler     SchedulerConfig      `mapstructure:"scheduler" yaml:"scheduler"`
	Observability observability.Config `mapstructure:"observability" yaml:"observability"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig selects and tunes the notification store.
type StoreConfig struct {
	Driver           string `mapstructure:"driver" yaml:"driver"` // memory, file, postgres
	DSN              string `mapstructure:"dsn" yaml:"dsn"`
	Dir              string `mapstructure:"dir" yaml:"dir"`
	MaxActivePerUser int    `mapstructure:"max_active_per_user" yaml:"max_active_per_user"`
	RetryAttempts    int    `mapstructure:"retry_attempts" yaml:"retry_attempts"`
}

// AssistantConfig tunes the confirm-or-clarify policy.
type AssistantConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	PendingTTL          time.Duration `mapstructure:"pending_ttl" yaml:"pending_ttl"`
	PendingSize         int           `mapstructure:"pending_size" yaml:"pending_size"`
	DeliveryMethod      string        `mapstructure:"delivery_method" yaml:"delivery_method"`
	Timezone            string        `mapstructure:"timezone" yaml:"timezone"`
}

// SchedulerConfig configures the due-notification dispatcher.
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	Schedule          string        `mapstructure:"schedule" yaml:"schedule"`
	BatchSize         int           `mapstructure:"batch_size" yaml:"batch_size"`
	DispatchTimeout   time.Duration `mapstructure:"dispatch_timeout" yaml:"dispatch_timeout"`
	ConcurrencyPolicy string        `mapstructure:"concurrency_policy" yaml:"concurrency_policy"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			RateLimitRPS:    5,
			RateLimitBurst:  10,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:           DriverMemory,
			Dir:              "~/.kai/notifications",
			MaxActivePerUser: notification.DefaultMaxActivePerUser,
			RetryAttempts:    3,
		},
		Assistant: AssistantConfig{
			ConfidenceThreshold: 0.6,
			PendingTTL:          15 * time.Minute,
			PendingSize:         1024,
			DeliveryMethod:      string(notification.DeliveryPush),
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			Schedule:          "@every 1m",
			BatchSize:         100,
			DispatchTimeout:   10 * time.Second,
			ConcurrencyPolicy: "skip",
		},
		Observability: observability.DefaultConfig(),
	}
}

// Validate rejects configurations the runtime cannot start with.
func (c Config) Validate() error {
	var problems []string
	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			problems = append(problems, "store.dsn is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be memory, file or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == DriverFile && strings.TrimSpace(c.Store.Dir) == "" {
		problems = append(problems, "store.dir is required for the file driver")
	}
	if t := c.Assistant.ConfidenceThreshold; t <= 0 || t > 1 {
		problems = append(problems, fmt.Sprintf("assistant.confidence_threshold must be within (0, 1], got %v", t))
	}
	if _, err := notification.ParseDeliveryMethod(c.Assistant.DeliveryMethod); err != nil {
		problems = append(problems, "assistant.delivery_method: "+err.Error())
	}
	if _, err := c.Assistant.Location(); err != nil {
		problems = append(problems, "assistant.timezone: "+err.Error())
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		problems = append(problems, "server rate limits must not be negative")
	}
	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.Schedule) == "" {
		problems = append(problems, "scheduler.schedule is required when the scheduler is enabled")
	}
	if err := c.Observability.Validate(); err != nil {
		problems = append(problems, "observability: "+err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves Timezone. Empty means the host's local zone.
func (a AssistantConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(a.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
