package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"attendance-report/internal/rules"
)

// Store backends
const (
	StorePocketBase = "pocketbase"
	StoreMemory     = "memory"
)

type Config struct {
	// PocketBase External Server
	PocketBaseURL   string  `envconfig:"POCKETBASE_URL" default:"http://192.168.100.100:8090"`
	PocketBaseToken string  `envconfig:"POCKETBASE_TOKEN"` // Auth token for API access
	PocketBaseRPS   float64 `envconfig:"POCKETBASE_RPS" default:"20"`
	Store           string  `envconfig:"STORE" default:"pocketbase"`

	// Telegram Bot
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	AuthorizedChatID string `envconfig:"AUTHORIZED_CHAT_ID"`

	// HTTP
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Working-hours policy, HH:MM
	MorningInLateAfter      string `envconfig:"SLOT1_LATE_AFTER" default:"07:15"`
	MorningOutEarlyBefore   string `envconfig:"SLOT2_EARLY_BEFORE" default:"11:15"`
	AfternoonInLateAfter    string `envconfig:"SLOT3_LATE_AFTER" default:"13:00"`
	AfternoonOutEarlyBefore string `envconfig:"SLOT4_EARLY_BEFORE" default:"17:00"`
	IncludeSaturday         bool   `envconfig:"INCLUDE_SATURDAY" default:"false"`

	// PDF printing; empty lets chromedp find Chrome
	ChromePath string `envconfig:"CHROME_PATH"`

	Thresholds rules.Thresholds `ignored:"true"`
}

func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("godotenv.Load() error: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePocketBase:
		if c.PocketBaseURL == "" {
			return fmt.Errorf("POCKETBASE_URL is required when STORE=%s", StorePocketBase)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePocketBase, StoreMemory, c.Store)
	}
	if c.PocketBaseRPS <= 0 {
		return fmt.Errorf("POCKETBASE_RPS must be positive")
	}

	th, err := rules.ParseThresholds(c.MorningInLateAfter, c.MorningOutEarlyBefore, c.AfternoonInLateAfter, c.AfternoonOutEarlyBefore)
	if err != nil {
		return err
	}
	c.Thresholds = th
	return nil
}
