package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL    string
	MirrorURL      string
	MirrorToken    string
	MirrorTimeout  time.Duration
	TelegramToken  string
	TelegramChatID int64
	ReminderLead   time.Duration
	Timezone       string
	BadgePoll      time.Duration
}

// fileConfig is the optional YAML config file shape; environment variables
// override whatever it sets.
type fileConfig struct {
	DatabaseURL       string `yaml:"database_url"`
	MirrorURL         string `yaml:"mirror_url"`
	MirrorToken       string `yaml:"mirror_token"`
	MirrorTimeoutSecs int    `yaml:"mirror_timeout_seconds"`
	TelegramToken     string `yaml:"telegram_token"`
	TelegramChatID    int64  `yaml:"telegram_chat_id"`
	ReminderLeadMins  int    `yaml:"reminder_lead_minutes"`
	Timezone          string `yaml:"timezone"`
	BadgePollSecs     int    `yaml:"badge_poll_seconds"`
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and
// environment variables, with sane defaults. A .env file is honored if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := Config{
		DatabaseURL:    firstOf(os.Getenv("DATABASE_URL"), fc.DatabaseURL, "class_planner.db"),
		MirrorURL:      firstOf(os.Getenv("MIRROR_URL"), fc.MirrorURL, ""),
		MirrorToken:    firstOf(os.Getenv("MIRROR_TOKEN"), fc.MirrorToken, ""),
		MirrorTimeout:  secondsOf(os.Getenv("MIRROR_TIMEOUT_SECONDS"), fc.MirrorTimeoutSecs, 10*time.Second),
		TelegramToken:  firstOf(os.Getenv("TELEGRAM_TOKEN"), fc.TelegramToken, ""),
		TelegramChatID: chatIDOf(os.Getenv("TELEGRAM_CHAT_ID"), fc.TelegramChatID),
		ReminderLead:   minutesOf(os.Getenv("REMINDER_LEAD_MINUTES"), fc.ReminderLeadMins, 10*time.Minute),
		Timezone:       firstOf(os.Getenv("TIMEZONE"), fc.Timezone, ""),
		BadgePoll:      secondsOf(os.Getenv("BADGE_POLL_SECONDS"), fc.BadgePollSecs, time.Minute),
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

// Location resolves the configured timezone, defaulting to the host's.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func firstOf(env, file, def string) string {
	if v := strings.TrimSpace(env); v != "" {
		return v
	}
	if file != "" {
		return file
	}
	return def
}

func secondsOf(env string, file int, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(env)); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if file > 0 {
		return time.Duration(file) * time.Second
	}
	return def
}

func minutesOf(env string, file int, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(env)); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	if file > 0 {
		return time.Duration(file) * time.Minute
	}
	return def
}

func chatIDOf(env string, file int64) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(env), 10, 64); err == nil && n != 0 {
		return n
	}
	return file
}
