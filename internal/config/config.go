package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath          string
	ServerPort      string
	LogLevel        string
	CharacterAPIURL string
	CharacterAPIKey string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "arena.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CharacterAPIURL: getEnv("CHARACTER_API_URL", ""),
		CharacterAPIKey: getEnv("CHARACTER_API_KEY", ""),
	}

	if cfg.CharacterAPIURL == "" {
		return nil, fmt.Errorf("CHARACTER_API_URL is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("character_api_url", cfg.CharacterAPIURL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
