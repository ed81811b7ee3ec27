package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the orchestrator configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Liquidity  LiquidityConfig  `mapstructure:"liquidity"`
	Consensus  ConsensusConfig  `mapstructure:"consensus"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig contains cache connection settings
type RedisConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	MaxIdle        int           `mapstructure:"max_idle"`
	TransactionTTL time.Duration `mapstructure:"transaction_ttl"`
	ValidationTTL  time.Duration `mapstructure:"validation_ttl"`
}

// BridgeConfig contains bridge transaction processing settings
type BridgeConfig struct {
	BaseFeeRate              float64       `mapstructure:"base_fee_rate"`
	CrossEcosystemMultiplier float64       `mapstructure:"cross_ecosystem_multiplier"`
	TestnetDiscount          float64       `mapstructure:"testnet_discount"`
	AnnualYieldRate          float64       `mapstructure:"annual_yield_rate"`
	ConsensusTimeout         time.Duration `mapstructure:"consensus_timeout"`
	StalenessThreshold       time.Duration `mapstructure:"staleness_threshold"`
}

// LiquidityConfig contains liquidity pool settings
type LiquidityConfig struct {
	UtilizationCeiling float64       `mapstructure:"utilization_ceiling"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	Pools              []PoolConfig  `mapstructure:"pools"`
}

// PoolConfig seeds one liquidity pool at startup
type PoolConfig struct {
	SourceChain        string  `mapstructure:"source_chain"`
	DestinationChain   string  `mapstructure:"destination_chain"`
	Token              string  `mapstructure:"token"`
	SourceBalance      string  `mapstructure:"source_balance"`
	DestinationBalance string  `mapstructure:"destination_balance"`
	RebalanceThreshold float64 `mapstructure:"rebalance_threshold"`
	MinLiquidity       string  `mapstructure:"min_liquidity"`
	MaxLiquidity       string  `mapstructure:"max_liquidity"`
}

// ConsensusConfig contains validator set settings
type ConsensusConfig struct {
	Validators []ValidatorConfig `mapstructure:"validators"`
}

// ValidatorConfig describes one validator in the static set
type ValidatorConfig struct {
	ID         string  `mapstructure:"id"`
	Address    string  `mapstructure:"address"`
	Active     bool    `mapstructure:"active"`
	Reputation float64 `mapstructure:"reputation"`
}

// MonitoringConfig contains monitoring and background sweep settings
type MonitoringConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AuthConfig contains settings for the admin API guard
type AuthConfig struct {
	AdminSecret string `mapstructure:"admin_secret"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.request_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "bridge_orchestrator")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.max_idle", 5)
	viper.SetDefault("redis.transaction_ttl", "1h")
	viper.SetDefault("redis.validation_ttl", "10m")

	// Bridge defaults
	viper.SetDefault("bridge.base_fee_rate", 0.003)
	viper.SetDefault("bridge.cross_ecosystem_multiplier", 1.5)
	viper.SetDefault("bridge.testnet_discount", 0.5)
	viper.SetDefault("bridge.annual_yield_rate", 0.05)
	viper.SetDefault("bridge.consensus_timeout", "30s")
	viper.SetDefault("bridge.staleness_threshold", "24h")

	// Liquidity defaults
	viper.SetDefault("liquidity.utilization_ceiling", 0.8)
	viper.SetDefault("liquidity.retry_backoff", "1m")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.sweep_interval", "5m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	if config.Bridge.StalenessThreshold <= 0 {
		return fmt.Errorf("bridge.staleness_threshold must be positive")
	}
	if config.Liquidity.UtilizationCeiling <= 0 || config.Liquidity.UtilizationCeiling > 1 {
		return fmt.Errorf("liquidity.utilization_ceiling must be in (0, 1]")
	}
	return nil
}
