package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MarketConfig configures one market's clock, scan pool and schedule.
type MarketConfig struct {
	Timezone string   `yaml:"timezone"`
	Calendar string   `yaml:"calendar"`
	ScanCron string   `yaml:"scan_cron"`
	Pool     []string `yaml:"pool"`
	PoolURL  string   `yaml:"pool_url"`
	Holidays []string `yaml:"holidays"` // extra closures, YYYY-MM-DD
}

// Clock builds the market clock described by mc.
func (mc MarketConfig) Clock(m model.Market) (*market.Clock, error) {
	c, err := market.NewClock(m, mc.Timezone, mc.Calendar)
	if err != nil {
		return nil, err
	}
	if err := c.AddHolidays(mc.Holidays...); err != nil {
		return nil, fmt.Errorf("markets.%s.holidays: %w", strings.ToLower(string(m)), err)
	}
	return c, nil
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Mode string `yaml:"mode"` // gin mode: debug, release, test
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`
	Markets struct {
		TW MarketConfig `yaml:"tw"`
		US MarketConfig `yaml:"us"`
	} `yaml:"markets"`
	Scan struct {
		DelayMS   int `yaml:"delay_ms"`
		Limit     int `yaml:"limit"`
		MinWeekly int `yaml:"min_weekly"`
	} `yaml:"scan"`
	History struct {
		Days int `yaml:"days"`
	} `yaml:"history"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"` // empty uses the SDK default
	} `yaml:"alpaca"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location from CONFIG_PATH or the default.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// Load reads a .env file if present, then the YAML file at path, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Seeded before the file and env so an explicit 0 is kept.
	cfg := &Config{}
	cfg.Scan.DelayMS = 100
	cfg.Scan.Limit = 20
	cfg.Scan.MinWeekly = 60

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("SERVER_HOST", &c.Server.Host)
	setInt("PORT", &c.Server.Port)
	setString("GIN_MODE", &c.Server.Mode)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("APCA_API_KEY_ID", &c.Alpaca.APIKey)
	setString("APCA_API_SECRET_KEY", &c.Alpaca.APISecret)
	setString("APCA_API_DATA_URL", &c.Alpaca.BaseURL)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("DATABASE_URL", &c.Database.PostgresDSN)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("CRON_SCAN_TW", &c.Markets.TW.ScanCron)
	setString("CRON_SCAN_US", &c.Markets.US.ScanCron)
	setInt("SCAN_DELAY_MS", &c.Scan.DelayMS)
	setInt("SCAN_LIMIT", &c.Scan.Limit)
	setInt("SCAN_MIN_WEEKLY", &c.Scan.MinWeekly)
	if v := os.Getenv("SCAN_POOL_US"); v != "" {
		c.Markets.US.Pool = splitCodes(v)
	}
	if v := os.Getenv("SCAN_POOL_TW"); v != "" {
		c.Markets.TW.Pool = splitCodes(v)
	}
}

func splitCodes(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Markets.TW.Timezone == "" {
		c.Markets.TW.Timezone = "Asia/Taipei"
	}
	if c.Markets.TW.Calendar == "" {
		c.Markets.TW.Calendar = "xtai"
	}
	if c.Markets.US.Timezone == "" {
		c.Markets.US.Timezone = "America/New_York"
	}
	if c.Markets.US.Calendar == "" {
		c.Markets.US.Calendar = "xnys"
	}
	if len(c.Markets.US.Pool) == 0 {
		c.Markets.US.Pool = []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "TSLA", "AMD", "AVGO", "TSM"}
	}
	if c.History.Days == 0 {
		c.History.Days = 120
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.History.Days < 30 {
		return fmt.Errorf("history.days must be at least 30, got %d", c.History.Days)
	}
	if c.Scan.MinWeekly < 0 || c.Scan.MinWeekly > 100 {
		return fmt.Errorf("scan.min_weekly must be within 0..100")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Scan.Limit < 0 || c.Scan.DelayMS < 0 {
		return fmt.Errorf("scan.limit and scan.delay_ms must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if (c.Alpaca.APIKey == "") != (c.Alpaca.APISecret == "") {
		return fmt.Errorf("alpaca.api_key and alpaca.api_secret must be set together")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CacheTTL is the history cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ScanDelay is the pause between scanned codes.
func (c *Config) ScanDelay() time.Duration {
	return time.Duration(c.Scan.DelayMS) * time.Millisecond
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// AlpacaEnabled reports whether the Alpaca quote source is configured.
func (c *Config) AlpacaEnabled() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// NewLogger builds the zap logger described by the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}
