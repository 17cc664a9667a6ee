package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	TelegramToken  string        `env:"TELEGRAM_TOKEN"`
	TelegramMode   string        `env:"TELEGRAM_MODE" envDefault:"polling"`
	WebhookBaseURL string        `env:"WEBHOOK_BASE_URL"`
	WebhookSecret  string        `env:"WEBHOOK_SECRET"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT" envDefault:"30s"`

	DurationVoteWindow   time.Duration `env:"DURATION_VOTE_WINDOW" envDefault:"60s"`
	AccusationVoteWindow time.Duration `env:"ACCUSATION_VOTE_WINDOW" envDefault:"60s"`
	ResetGrace           time.Duration `env:"RESET_GRACE" envDefault:"5s"`
	AllowedDurations     []int         `env:"ALLOWED_DURATIONS" envDefault:"5,7,10" envSeparator:","`
	WordsFile            string        `env:"WORDS_FILE"`

	LogLevel         string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string   `env:"LOG_FORMAT" envDefault:"console"`
	SpectatorEnabled bool     `env:"SPECTATOR_ENABLED" envDefault:"true"`
	CORSOrigins      []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.TelegramMode {
	case "polling":
	case "webhook":
		if c.WebhookBaseURL == "" {
			return fmt.Errorf("WEBHOOK_BASE_URL is required in webhook mode")
		}
	default:
		return fmt.Errorf("unknown TELEGRAM_MODE %q", c.TelegramMode)
	}
	if len(c.AllowedDurations) == 0 {
		return fmt.Errorf("ALLOWED_DURATIONS must not be empty")
	}
	seen := make(map[int]bool, len(c.AllowedDurations))
	for _, d := range c.AllowedDurations {
		if d <= 0 {
			return fmt.Errorf("ALLOWED_DURATIONS contains %d", d)
		}
		if seen[d] {
			return fmt.Errorf("ALLOWED_DURATIONS lists %d more than once", d)
		}
		seen[d] = true
	}
	return nil
}
