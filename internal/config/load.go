package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. KAI_STORE_DRIVER.
const EnvPrefix = "KAI"

// Option customises the loader behaviour.
type Option func(*loadOptions)

type loadOptions struct {
	viper       *viper.Viper
	configPath  string
	searchPaths []string
	homeDir     func() (string, error)
}

// WithViper loads through v, typically one with cobra flags already bound.
func WithViper(v *viper.Viper) Option {
	return func(o *loadOptions) {
		o.viper = v
	}
}

// WithConfigPath forces the loader to read configuration from a specific file.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) {
		o.configPath = path
	}
}

// WithSearchPaths replaces the directories searched for kai.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) {
		o.searchPaths = paths
	}
}

// WithHomeDir overrides how the loader resolves the user's home directory.
func WithHomeDir(resolver func() (string, error)) Option {
	return func(o *loadOptions) {
		o.homeDir = resolver
	}
}

// Load merges defaults, kai.yaml, KAI_* environment variables and any flags
// bound to the supplied viper instance, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{
		searchPaths: []string{".", "$HOME/.kai"},
		homeDir:     os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}
	v := options.viper
	if v == nil {
		v = viper.New()
	}

	SetDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if options.configPath != "" {
		v.SetConfigFile(options.configPath)
	} else {
		v.SetConfigName("kai")
		v.SetConfigType("yaml")
		for _, path := range options.searchPaths {
			v.AddConfigPath(path)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if options.configPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Store.Dir = expandHome(cfg.Store.Dir, options.homeDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers every key of cfg so environment variables can
// override keys that no file sets.
func SetDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("server.rate_limit_rps", cfg.Server.RateLimitRPS)
	v.SetDefault("server.rate_limit_burst", cfg.Server.RateLimitBurst)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("store.driver", cfg.Store.Driver)
	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("store.dir", cfg.Store.Dir)
	v.SetDefault("store.max_active_per_user", cfg.Store.MaxActivePerUser)
	v.SetDefault("store.retry_attempts", cfg.Store.RetryAttempts)

	v.SetDefault("assistant.confidence_threshold", cfg.Assistant.ConfidenceThreshold)
	v.SetDefault("assistant.pending_ttl", cfg.Assistant.PendingTTL)
	v.SetDefault("assistant.pending_size", cfg.Assistant.PendingSize)
	v.SetDefault("assistant.delivery_method", cfg.Assistant.DeliveryMethod)
	v.SetDefault("assistant.timezone", cfg.Assistant.Timezone)

	v.SetDefault("scheduler.enabled", cfg.Scheduler.Enabled)
	v.SetDefault("scheduler.schedule", cfg.Scheduler.Schedule)
	v.SetDefault("scheduler.batch_size", cfg.Scheduler.BatchSize)
	v.SetDefault("scheduler.dispatch_timeout", cfg.Scheduler.DispatchTimeout)
	v.SetDefault("scheduler.concurrency_policy", cfg.Scheduler.ConcurrencyPolicy)

	obs := cfg.Observability
	v.SetDefault("observability.logging.level", obs.Logging.Level)
	v.SetDefault("observability.logging.format", obs.Logging.Format)
	v.SetDefault("observability.metrics.enabled", obs.Metrics.Enabled)
	v.SetDefault("observability.metrics.prometheus_port", obs.Metrics.PrometheusPort)
	v.SetDefault("observability.tracing.enabled", obs.Tracing.Enabled)
	v.SetDefault("observability.tracing.exporter", obs.Tracing.Exporter)
	v.SetDefault("observability.tracing.otlp_endpoint", obs.Tracing.OTLPEndpoint)
	v.SetDefault("observability.tracing.zipkin_endpoint", obs.Tracing.ZipkinEndpoint)
	v.SetDefault("observability.tracing.sample_rate", obs.Tracing.SampleRate)
	v.SetDefault("observability.tracing.service_name", obs.Tracing.ServiceName)
	v.SetDefault("observability.tracing.service_version", obs.Tracing.ServiceVersion)
}

func expandHome(path string, homeDir func() (string, error)) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := homeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
