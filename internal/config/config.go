package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	NewRelic NewRelicConfig `yaml:"newrelic"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Queue    QueueConfig    `yaml:"queue"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the driver storage backend.
type StoreConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Database   DatabaseConfig `yaml:"postgres"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	Enabled    bool   `yaml:"enabled"`
}

// WhatsAppConfig holds WhatsApp Cloud API configuration. Leaving Token or
// PhoneID empty simulates every message.
type WhatsAppConfig struct {
	APIURL  string        `yaml:"api_url"`
	Token   string        `yaml:"token"`
	PhoneID string        `yaml:"phone_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// QueueConfig holds driver queue behaviour.
type QueueConfig struct {
	NotifyTimeout time.Duration `yaml:"notify_timeout"`
	PickupMessage string        `yaml:"pickup_message"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
		Store: StoreConfig{
			Driver:     StoreMemory,
			SQLitePath: "driverqueue.db",
			Database: DatabaseConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Password: "postgres",
				DBName:   "driver_queue",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NewRelic: NewRelicConfig{
			AppName: "driver-queue-service",
		},
		WhatsApp: WhatsAppConfig{
			APIURL:  "https://graph.facebook.com/v18.0",
			Timeout: 10 * time.Second,
		},
		Queue: QueueConfig{
			NotifyTimeout: 10 * time.Second,
			PickupMessage: "🍕 New delivery order ready! Please come to the restaurant to pick up your delivery. Thank you!",
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and environment variables, in that order. A .env
// file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	switch cfg.Store.Driver {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Store.Driver)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.Database.Host = getEnv("DB_HOST", c.Store.Database.Host)
	c.Store.Database.Port = getEnv("DB_PORT", c.Store.Database.Port)
	c.Store.Database.User = getEnv("DB_USER", c.Store.Database.User)
	c.Store.Database.Password = getEnv("DB_PASSWORD", c.Store.Database.Password)
	c.Store.Database.DBName = getEnv("DB_NAME", c.Store.Database.DBName)
	c.Store.Database.SSLMode = getEnv("DB_SSLMODE", c.Store.Database.SSLMode)

	c.Redis.Enabled = getBoolEnv("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getIntEnv("REDIS_DB", c.Redis.DB)

	c.NewRelic.AppName = getEnv("NEW_RELIC_APP_NAME", c.NewRelic.AppName)
	c.NewRelic.LicenseKey = getEnv("NEW_RELIC_LICENSE_KEY", c.NewRelic.LicenseKey)
	c.NewRelic.Enabled = getBoolEnv("NEW_RELIC_ENABLED", c.NewRelic.Enabled)

	c.WhatsApp.APIURL = getEnv("WHATSAPP_API_URL", c.WhatsApp.APIURL)
	c.WhatsApp.Token = getEnv("WHATSAPP_TOKEN", getEnv("WHATSAPP_ACCESS_TOKEN", c.WhatsApp.Token))
	c.WhatsApp.PhoneID = getEnv("WHATSAPP_PHONE_ID", c.WhatsApp.PhoneID)
	c.WhatsApp.Timeout = getDurationEnv("WHATSAPP_TIMEOUT", c.WhatsApp.Timeout)

	c.Queue.NotifyTimeout = getDurationEnv("QUEUE_NOTIFY_TIMEOUT", c.Queue.NotifyTimeout)
	c.Queue.PickupMessage = getEnv("QUEUE_PICKUP_MESSAGE", c.Queue.PickupMessage)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
