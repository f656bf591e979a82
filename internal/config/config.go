package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server
	ServerPort string

	// Timezone the broadcast is scheduled in. Every date-to-instant
	// conversion in the resolution pipeline uses this location.
	Timezone string
	Location *time.Location

	// Paths
	DatabaseFile string // $CONFIG_DIR/goshowarr.db

	// Scheduler
	StatsSchedule string // cron spec for the store snapshot job

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TIMEZONE", "Europe/London")
	viper.SetDefault("STATS_SCHEDULE", "0 * * * *")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "goshowarr")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Timezone
		Timezone: viper.GetString("TIMEZONE"),

		// Paths
		DatabaseFile: filepath.Join(configDir, "goshowarr.db"),

		// Scheduler
		StatsSchedule: viper.GetString("STATS_SCHEDULE"),

		// Logging
		LogLevel:  viper.GetString("LOG_LEVEL"),
		LogFormat: viper.GetString("LOG_FORMAT"),
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", config.Timezone, err)
	}
	config.Location = loc

	return config, nil
}
