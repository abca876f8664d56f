// Package config loads runtime configuration from the environment, with an
// optional .env overlay.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the bridge needs.
type Config struct {
	// DiscordToken authenticates the bot session. Required.
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	// HealthCheckChannelID is the Discord channel the healthcheck
	// subcommand round-trips a probe message through. Required.
	HealthCheckChannelID uint64 `env:"HEALTH_CHECK_CHANNEL_ID,required"`

	ListenAddr  string `env:"LISTEN_ADDR" envDefault:"0.0.0.0:23416"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9095"`

	cloudServer bool
}

// IsCloudServer reports whether CLOUD_SERVER is present in the environment
// at all, regardless of its value — even an exported-but-empty
// CLOUD_SERVER= counts as set.
func (c Config) IsCloudServer() bool {
	return c.cloudServer
}

// Load reads a .env file if present (ignored if absent) and then parses the
// process environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	_, cfg.cloudServer = os.LookupEnv("CLOUD_SERVER")
	return cfg, nil
}
