package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/at-ishikawa/cinelog/internal/featured"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	OMDb     OMDbConfig     `mapstructure:"omdb"`
	Search   SearchConfig   `mapstructure:"search"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Featured FeaturedConfig `mapstructure:"featured"`
	Log      LogConfig      `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout" validate:"duration_positive"`
}

type OMDbConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`
}

type SearchConfig struct {
	Debounce      time.Duration `mapstructure:"debounce" validate:"duration_positive"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"min=0"`
	Burst         int           `mapstructure:"burst" validate:"min=1"`
}

const (
	StoreDriverMemory = "memory"
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
	StoreDriverMySQL  = "mysql"
	StoreDriverRedis  = "redis"
)

type StoreConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory file sqlite mysql redis"`
	Directory  string `mapstructure:"directory" validate:"required_if=Driver file"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
	ConnectAttempts uint              `mapstructure:"connect_attempts" validate:"min=1"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
	Prefix   string `mapstructure:"prefix"`
}

type FeaturedConfig struct {
	Titles []string      `mapstructure:"titles" validate:"min=1,dive,required"`
	TTL    time.Duration `mapstructure:"ttl" validate:"duration_positive"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/cinelog")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("omdb.base_url", "https://www.omdbapi.com")
	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("search.rate_per_second", 5.0)
	v.SetDefault("search.burst", 1)
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.directory", filepath.Join("cache", "cinelog"))
	v.SetDefault("store.sqlite_path", filepath.Join("cache", "cinelog.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "cinelog")
	v.SetDefault("database.username", "user")
	v.SetDefault("database.connect_attempts", 3)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "cinelog:")
	v.SetDefault("featured.titles", featured.DefaultTitles)
	v.SetDefault("featured.ttl", featured.DefaultTTL)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Secrets are bound to environment variables so they can stay out of the config file
	for key, env := range map[string]string{
		"api.token":         "CINELOG_API_TOKEN",
		"omdb.api_key":      "OMDB_API_KEY",
		"database.password": "CINELOG_DB_PASSWORD",
		"redis.password":    "CINELOG_REDIS_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
