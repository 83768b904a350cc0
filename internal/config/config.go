package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken          string `envconfig:"TELEGRAM_TOKEN" required:"true"`
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY" required:"true"`
	TimezoneDBAPIKey  string `envconfig:"TIMEZONEDB_API_KEY"`

	DBPath    string `envconfig:"DB_PATH" default:"./data/weatherbot.db"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"Europe/Moscow"` // fallback for cities without a resolved timezone
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`           // debug|info|warn|error
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`          // healthz
}

// Load reads an optional .env file, then environment variables.
func Load() (Config, error) {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
