package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	RemoteBaseURL string
	Owner         string
	DBPath        string
	ProbeInterval time.Duration
	HTTPTimeout   time.Duration
	HealthAddr    string
	LogLevel      string
	LogFile       string

	DiscordBotToken  string
	DiscordChannelID string
}

// Load reads configuration from the environment. Call godotenv.Load first to
// pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_PATH", "wallet.db")
	v.SetDefault("PROBE_INTERVAL", 5*time.Second)
	v.SetDefault("HTTP_TIMEOUT", 10*time.Second)
	v.SetDefault("HEALTH_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		RemoteBaseURL:    v.GetString("REMOTE_BASE_URL"),
		Owner:            v.GetString("WALLET_OWNER"),
		DBPath:           v.GetString("DB_PATH"),
		ProbeInterval:    v.GetDuration("PROBE_INTERVAL"),
		HTTPTimeout:      v.GetDuration("HTTP_TIMEOUT"),
		HealthAddr:       v.GetString("HEALTH_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFile:          v.GetString("LOG_FILE"),
		DiscordBotToken:  v.GetString("DISCORD_BOT_TOKEN"),
		DiscordChannelID: v.GetString("DISCORD_CHANNEL_ID"),
	}

	if cfg.RemoteBaseURL == "" {
		return nil, fmt.Errorf("Remote base URL is not set")
	}
	if cfg.Owner == "" {
		return nil, fmt.Errorf("Wallet owner is not set")
	}
	if cfg.ProbeInterval <= 0 {
		return nil, fmt.Errorf("Probe interval must be positive, got %s", cfg.ProbeInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	return cfg, nil
}

// RequireDiscord checks the settings only the bot needs.
func (c *Config) RequireDiscord() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("Bot token is not set")
	}
	if c.DiscordChannelID == "" {
		return fmt.Errorf("Channel ID is not set")
	}
	return nil
}
