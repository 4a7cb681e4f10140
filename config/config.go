package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"coinlizard/internal/domain"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Exchanges ExchangesConfig `mapstructure:"exchanges"`
	Store     StoreConfig     `mapstructure:"store"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Pairs     PairsConfig     `mapstructure:"pairs"`
	Coins     []domain.Coin   `mapstructure:"coins"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type ExchangesConfig struct {
	// UpstreamTimeout bounds every single connector call made by the resolution service.
	UpstreamTimeout time.Duration  `mapstructure:"upstream_timeout"`
	Coinbase        CoinbaseConfig `mapstructure:"coinbase"`
	Binance         BinanceConfig  `mapstructure:"binance"`
}

type CoinbaseConfig struct {
	BaseURL           string        `mapstructure:"base_url"`     // retail API (spot prices)
	ExchangeURL       string        `mapstructure:"exchange_url"` // exchange API (candles, products)
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 disables pacing
}

type BinanceConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	WSURL             string        `mapstructure:"ws_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type StoreConfig struct {
	Backend         string        `mapstructure:"backend"`           // "memory" or "postgres"
	CurrentPriceTTL time.Duration `mapstructure:"current_price_ttl"` // snapshots older than this are a cache miss
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	CreateDatabase  bool          `mapstructure:"create_database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // empty disables the hot cache
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StreamConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Quotes  []string `mapstructure:"quotes"`
}

type PairsConfig struct {
	RefreshCron string `mapstructure:"refresh_cron"`
}

const envConfigDir = "COINLIZARD_CONFIG_DIR"

// Load loads application configuration using Viper.
// It reads config.yaml from the first matching search path (a missing file is allowed),
// then applies environment overrides (e.g., SERVER_PORT, POSTGRES_HOST).
func Load(paths ...string) (*Config, error) {
	// Optional .env for local runs
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir := os.Getenv(envConfigDir); dir != "" {
		v.AddConfigPath(dir)
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")

	// Support environment variables with dot notation (e.g., EXCHANGES_BINANCE_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config: %w", domain.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", domain.ErrConfig, err)
	}

	applyAPIAliases(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot enforce on its own.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrConfig, c.Store.Backend)
	}
	if c.Store.CurrentPriceTTL <= 0 {
		return fmt.Errorf("%w: store.current_price_ttl must be positive", domain.ErrConfig)
	}
	if c.Exchanges.UpstreamTimeout <= 0 {
		return fmt.Errorf("%w: exchanges.upstream_timeout must be positive", domain.ErrConfig)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("exchanges.upstream_timeout", 10*time.Second)
	v.SetDefault("exchanges.coinbase.base_url", "https://api.coinbase.com")
	v.SetDefault("exchanges.coinbase.exchange_url", "https://api.exchange.coinbase.com")
	v.SetDefault("exchanges.coinbase.timeout", 10*time.Second)
	v.SetDefault("exchanges.binance.base_url", "https://api.binance.com")
	v.SetDefault("exchanges.binance.ws_url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("exchanges.binance.timeout", 10*time.Second)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.current_price_ttl", 60*time.Second)
	v.SetDefault("store.read_timeout", 2*time.Second)
	v.SetDefault("store.write_timeout", 2*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.dbname", "coinlizard")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")

	v.SetDefault("stream.quotes", []string{"USDT"})
	v.SetDefault("pairs.refresh_cron", "0 0 * * *")
}

// applyAPIAliases honors the API_HOST / API_PORT variables used by earlier deployments.
func applyAPIAliases(cfg *Config) {
	if host := os.Getenv("API_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port, err := strconv.Atoi(os.Getenv("API_PORT")); err == nil && port > 0 {
		cfg.Server.Port = port
	}
}
