package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

const (
	RemoteNone   = "none"
	RemoteHTTP   = "http"
	RemoteSpaces = "spaces"
)

// Config holds environment-based settings
type Config struct {
	Environment   string `mapstructure:"APP_ENV"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	SecretKey     string `mapstructure:"JWT_SECRET"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisUsername string `mapstructure:"REDIS_USERNAME"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	MQTTBroker string `mapstructure:"MQTT_BROKER"`

	SyncRemote   string        `mapstructure:"SYNC_REMOTE"`
	SyncEndpoint string        `mapstructure:"SYNC_ENDPOINT"`
	SyncPath     string        `mapstructure:"SYNC_PATH"`
	SyncUserID   string        `mapstructure:"SYNC_USER_ID"`
	SyncInterval time.Duration `mapstructure:"SYNC_INTERVAL"`

	SpacesEndpoint  string `mapstructure:"SPACES_ENDPOINT"`
	SpacesRegion    string `mapstructure:"SPACES_REGION"`
	SpacesBucket    string `mapstructure:"SPACES_BUCKET"`
	SpacesAccessKey string `mapstructure:"SPACES_ACCESS_KEY"`
	SpacesSecretKey string `mapstructure:"SPACES_SECRET_KEY"`

	AladhanURL    string `mapstructure:"ALADHAN_URL"`
	AladhanMethod int    `mapstructure:"ALADHAN_METHOD"`

	// Home is the fallback location for prayer times; nil when unset.
	Home *model.GeoPoint `mapstructure:"-"`
}

var defaults = map[string]any{
	"APP_ENV":           "development",
	"SERVER_ADDRESS":    ":8080",
	"JWT_SECRET":        "",
	"LOG_LEVEL":         "info",
	"STORE_DRIVER":      "sqlite",
	"DATABASE_URL":      "",
	"REDIS_ADDRESS":     "",
	"REDIS_USERNAME":    "",
	"REDIS_PASSWORD":    "",
	"MQTT_BROKER":       "",
	"SYNC_REMOTE":       RemoteNone,
	"SYNC_ENDPOINT":     "",
	"SYNC_PATH":         "/rpc/upsert_prayer_day",
	"SYNC_USER_ID":      "",
	"SYNC_INTERVAL":     "30m",
	"SPACES_ENDPOINT":   "",
	"SPACES_REGION":     "",
	"SPACES_BUCKET":     "",
	"SPACES_ACCESS_KEY": "",
	"SPACES_SECRET_KEY": "",
	"ALADHAN_URL":       "https://api.aladhan.com",
	"ALADHAN_METHOD":    2,
}

const defaultSQLitePath = "./data/sajda.db"

// Load reads .env files (if any) and then the process environment, which
// takes precedence.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if v.IsSet("HOME_LATITUDE") && v.IsSet("HOME_LONGITUDE") {
		cfg.Home = &model.GeoPoint{
			Latitude:  v.GetFloat64("HOME_LATITUDE"),
			Longitude: v.GetFloat64("HOME_LONGITUDE"),
		}
	}

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.SyncRemote = strings.ToLower(cfg.SyncRemote)
	if cfg.StoreDriver == "sqlite" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultSQLitePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.StoreDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.SyncRemote {
	case RemoteNone, "":
	case RemoteHTTP:
		if c.SyncEndpoint == "" || c.SyncUserID == "" {
			return errors.New("SYNC_ENDPOINT and SYNC_USER_ID are required for the http remote")
		}
	case RemoteSpaces:
		if c.SpacesBucket == "" || c.SpacesEndpoint == "" || c.SyncUserID == "" {
			return errors.New("SPACES_ENDPOINT, SPACES_BUCKET and SYNC_USER_ID are required for the spaces remote")
		}
	default:
		return fmt.Errorf("unknown SYNC_REMOTE %q", c.SyncRemote)
	}

	if c.Home != nil {
		if c.Home.Latitude < -90 || c.Home.Latitude > 90 || c.Home.Longitude < -180 || c.Home.Longitude > 180 {
			return errors.New("HOME_LATITUDE/HOME_LONGITUDE out of range")
		}
	}
	return nil
}

// IsDevelopment reports whether APP_ENV asks for developer-friendly output.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
