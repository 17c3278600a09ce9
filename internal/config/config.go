package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	StaticDir string `mapstructure:"static_dir"`
	// Seconds a fully disconnected room is kept alive for reconnects.
	GracePeriodSec int `mapstructure:"grace_period_sec"`
	// Seconds between registry sweeps.
	SweepIntervalSec int `mapstructure:"sweep_interval_sec"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3001)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "./public")
	v.SetDefault("grace_period_sec", 120)
	v.SetDefault("sweep_interval_sec", 60)

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetEnvPrefix("UNDERCOVER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			panic(fmt.Errorf("failed to load config: %w", err))
		}
		// Missing file is fine, defaults and env cover everything.
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("failed to parse config: %w", err))
	}

	return &config
}
