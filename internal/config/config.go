package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/currency"
)

// Config holds application configuration.
type Config struct {
	HTTP    HTTPConfig
	Storage StorageConfig
	Kafka   KafkaConfig
	Events  EventsConfig
	UI      UIConfig
	Log     LogConfig
}

type HTTPConfig struct {
	Addr string
}

// StorageConfig picks the ledger store. Driver is one of memory, sqlite or postgres.
type StorageConfig struct {
	Driver      string
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// KafkaConfig enables the Kafka publisher when Brokers is not empty.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type UIConfig struct {
	Currency string
}

type LogConfig struct {
	Level string
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads configuration from an optional .env file, an optional TOML file and the
// environment. Env var overrides use prefix BOT_, e.g. BOT_STORAGE_DRIVER.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// default values
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "balance.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "ledger")
	v.SetDefault("events.buffer_size", 100)
	v.SetDefault("ui.currency", "RUB")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BOT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("bot")
	}

	v.SetEnvPrefix("BOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicitly named file has to exist
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate reports the first setting the server cannot start with.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is empty")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is empty")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Events.BufferSize <= 0 {
		return fmt.Errorf("events.buffer_size must be positive, got %d", c.Events.BufferSize)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.TopicPrefix == "" {
		return errors.New("kafka.topic_prefix is empty")
	}
	if err := currency.Validate(c.UI.Currency); err != nil {
		return fmt.Errorf("ui.currency: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses log.level (debug, info, warn or error).
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
