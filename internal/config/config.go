package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds all application configuration
type Config struct {
	// Trakt
	TraktClientID string
	TraktAPIURL   string

	// TMDB (optional primary metadata provider)
	TMDBAPIKey       string
	TMDBAPIURL       string
	MetadataLanguage language.Tag

	// Store
	StoreDriver  string // "bolt" or "sqlite"
	DatabaseFile string // $CONFIG_DIR/traktcache.db

	// Refresh
	RefreshWorkers int           // Maximum concurrent refreshes per batch (default: 10)
	LockTimeout    time.Duration // Maximum wait for the store guard (default: 10s)
	RetrySchedule  string        // Cron spec for retrying unresolved records

	// Server
	ServerPort string

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
	viper.SetDefault("TRAKT_API_URL", "https://api.trakt.tv")
	viper.SetDefault("TMDB_API_URL", "https://api.themoviedb.org/3")
	viper.SetDefault("METADATA_LANGUAGE", "en-US")
	viper.SetDefault("STORE_DRIVER", "bolt")
	viper.SetDefault("REFRESH_WORKERS", 10)
	viper.SetDefault("LOCK_TIMEOUT", "10s")
	viper.SetDefault("RETRY_SCHEDULE", "0 */6 * * *")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "traktcache")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	lang, err := language.Parse(viper.GetString("METADATA_LANGUAGE"))
	if err != nil {
		return nil, fmt.Errorf("invalid METADATA_LANGUAGE: %w", err)
	}

	driver := viper.GetString("STORE_DRIVER")
	dbName := "traktcache.db"
	if driver == "sqlite" {
		dbName = "traktcache.sqlite"
	}

	config := &Config{
		// Trakt
		TraktClientID: viper.GetString("TRAKT_CLIENT_ID"),
		TraktAPIURL:   viper.GetString("TRAKT_API_URL"),

		// TMDB
		TMDBAPIKey:       viper.GetString("TMDB_API_KEY"),
		TMDBAPIURL:       viper.GetString("TMDB_API_URL"),
		MetadataLanguage: lang,

		// Store
		StoreDriver:  driver,
		DatabaseFile: filepath.Join(configDir, dbName),

		// Refresh
		RefreshWorkers: viper.GetInt("REFRESH_WORKERS"),
		LockTimeout:    viper.GetDuration("LOCK_TIMEOUT"),
		RetrySchedule:  viper.GetString("RETRY_SCHEDULE"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Logging
		LogLevel:  viper.GetString("LOG_LEVEL"),
		LogFormat: viper.GetString("LOG_FORMAT"),
	}

	// Validate required fields
	if config.TraktClientID == "" {
		return nil, fmt.Errorf("TRAKT_CLIENT_ID is required")
	}
	if config.StoreDriver != "bolt" && config.StoreDriver != "sqlite" {
		return nil, fmt.Errorf("STORE_DRIVER must be \"bolt\" or \"sqlite\", got %q", config.StoreDriver)
	}
	if config.RefreshWorkers < 1 {
		return nil, fmt.Errorf("REFRESH_WORKERS must be at least 1")
	}
	if config.LockTimeout <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT must be positive")
	}

	return config, nil
}
