package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	apisrv "github.com/compose-network/rootchain/server/api"
	"github.com/compose-network/rootchain/x/rootchain"
	"github.com/compose-network/rootchain/x/store"
)

// Config holds the complete application configuration
type Config struct {
	API       apisrv.Config    `mapstructure:"api"       yaml:"api"`
	Metrics   MetricsConfig    `mapstructure:"metrics"   yaml:"metrics"`
	Log       LogConfig        `mapstructure:"log"       yaml:"log"`
	Store     store.Config     `mapstructure:"store"     yaml:"store"`
	RootChain rootchain.Config `mapstructure:"rootchain" yaml:"rootchain"`
	Finalizer FinalizerConfig  `mapstructure:"finalizer" yaml:"finalizer"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// FinalizerConfig controls the background exit finalizer
type FinalizerConfig struct {
	Enabled   bool          `mapstructure:"enabled"    yaml:"enabled"    env:"FINALIZER_ENABLED"`
	Interval  time.Duration `mapstructure:"interval"   yaml:"interval"   env:"FINALIZER_INTERVAL"`
	MaxRounds int           `mapstructure:"max_rounds" yaml:"max_rounds" env:"FINALIZER_MAX_ROUNDS"`
}

// Load loads configuration from file and environment. An empty path loads
// defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	api := apisrv.DefaultConfig()
	v.SetDefault("api.listen_addr", api.ListenAddr)
	v.SetDefault("api.read_header_timeout", api.ReadHeaderTimeout)
	v.SetDefault("api.read_timeout", api.ReadTimeout)
	v.SetDefault("api.write_timeout", api.WriteTimeout)
	v.SetDefault("api.idle_timeout", api.IdleTimeout)
	v.SetDefault("api.max_header_bytes", api.MaxHeaderBytes)
	v.SetDefault("api.cors", false)
	v.SetDefault("api.signature_domain", api.SignatureDomain)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	st := store.DefaultConfig()
	v.SetDefault("store.backend", st.Backend)
	v.SetDefault("store.path", st.Path)

	rc := rootchain.DefaultConfig()
	v.SetDefault("rootchain.operator", "")
	v.SetDefault("rootchain.child_block_interval", rc.ChildBlockInterval)
	v.SetDefault("rootchain.challenge_period", rc.ChallengePeriod)
	v.SetDefault("rootchain.priority_floor", rc.PriorityFloor)
	v.SetDefault("rootchain.fee_exit_delay", rc.FeeExitDelay)
	v.SetDefault("rootchain.max_exits_per_finalize", rc.MaxExitsPerFinalize)

	v.SetDefault("finalizer.enabled", true)
	v.SetDefault("finalizer.interval", "1m")
	v.SetDefault("finalizer.max_rounds", 16)
}

// Validate reports every invalid section at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	for _, fn := range []func() error{
		c.validateAPI,
		c.validateMetrics,
		c.validateStore,
		c.RootChain.Validate,
		c.validateFinalizer,
	} {
		if err := fn(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.ListenAddr) == "" {
		return fmt.Errorf("api.listen_addr is required")
	}
	if c.API.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("api.read_header_timeout must be positive")
	}
	if strings.TrimSpace(c.API.SignatureDomain) == "" {
		return fmt.Errorf("api.signature_domain is required")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case store.BackendMemory:
		return nil
	case store.BackendBolt:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store.path is required for the bolt backend")
		}
		return nil
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", store.BackendMemory, store.BackendBolt, c.Store.Backend)
	}
}

func (c *Config) validateFinalizer() error {
	if !c.Finalizer.Enabled {
		return nil
	}
	if c.Finalizer.Interval <= 0 {
		return fmt.Errorf("finalizer.interval must be positive when the finalizer is enabled")
	}
	if c.Finalizer.MaxRounds <= 0 {
		return fmt.Errorf("finalizer.max_rounds must be positive, got %d", c.Finalizer.MaxRounds)
	}
	return nil
}
