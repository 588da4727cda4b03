package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Service  ServiceConfig  `mapstructure:"service"`
}

type ServerConfig struct {
	HTTPPort string `mapstructure:"http_port"`
	GRPCPort string `mapstructure:"grpc_port"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the database file of the sqlite backend.
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
}

type UpstreamConfig struct {
	OMDbURL      string        `mapstructure:"omdb_url"`
	OMDbAPIKey   string        `mapstructure:"omdb_api_key"`
	CountriesURL string        `mapstructure:"countries_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SearchPages  int           `mapstructure:"search_pages"`
}

type ServiceConfig struct {
	Workers          int `mapstructure:"workers"`
	DefaultPageLimit int `mapstructure:"default_page_limit"`
	MaxPageLimit     int `mapstructure:"max_page_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("server.grpc_port", ":9090")

	v.SetDefault("cache.backend", BackendMemory)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "movies")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "movies.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})

	v.SetDefault("upstream.omdb_url", "https://www.omdbapi.com/")
	v.SetDefault("upstream.omdb_api_key", "")
	v.SetDefault("upstream.countries_url", "https://restcountries.com/v3.1/name")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.search_pages", 1)

	v.SetDefault("service.workers", 8)
	v.SetDefault("service.default_page_limit", 5)
	v.SetDefault("service.max_page_limit", 50)
}

// Load reads configs/config.yaml (or ./config.yaml) and applies
// MOVIE_SERVICE_* environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	return load(viper.New(), "")
}

// LoadFile reads the given config file instead of searching for one.
func LoadFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MOVIE_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka is enabled but no brokers are configured")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
