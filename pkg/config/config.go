package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string `mapstructure:"name"`
		Port string `mapstructure:"port"`
	} `mapstructure:"app"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Postgres struct {
		Host          string `mapstructure:"host"`
		Port          string `mapstructure:"port"`
		DBName        string `mapstructure:"dbname"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		SSLMode       string `mapstructure:"sslmode"`
		MigrationsURL string `mapstructure:"migrations_url"`
	} `mapstructure:"postgres"`

	CBR struct {
		BaseURL        string `mapstructure:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		CacheTTLHours  int    `mapstructure:"cache_ttl_hours"`
		MaxDaysBack    int    `mapstructure:"max_days_back"`
		SyncSchedule   string `mapstructure:"sync_schedule"`
	} `mapstructure:"cbr"`

	Backfill struct {
		QueueSize      int   `mapstructure:"queue_size"`
		BackoffSeconds []int `mapstructure:"backoff_seconds"`
	} `mapstructure:"backfill"`
}

func (c *Config) CBRTimeout() time.Duration {
	return time.Duration(c.CBR.TimeoutSeconds) * time.Second
}

func (c *Config) CBRCacheTTL() time.Duration {
	return time.Duration(c.CBR.CacheTTLHours) * time.Hour
}

func (c *Config) BackfillBackoff() []time.Duration {
	backoff := make([]time.Duration, 0, len(c.Backfill.BackoffSeconds))
	for _, s := range c.Backfill.BackoffSeconds {
		backoff = append(backoff, time.Duration(s)*time.Second)
	}
	return backoff
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("cbr.base_url", "https://www.cbr.ru/scripts")
	v.SetDefault("cbr.timeout_seconds", 15)
	v.SetDefault("cbr.cache_ttl_hours", 24)
	v.SetDefault("cbr.max_days_back", 365)
	v.SetDefault("cbr.sync_schedule", "0 13 * * *")
	v.SetDefault("postgres.migrations_url", "file://migrations")
	v.SetDefault("backfill.queue_size", 1024)
	v.SetDefault("backfill.backoff_seconds", []int{60, 300})

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
