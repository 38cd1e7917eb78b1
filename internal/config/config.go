package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"RibbonSentinel/internal/analyzer"
	"RibbonSentinel/internal/calculator"
	"RibbonSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		HomeSuffix  string `yaml:"home_suffix"`
		HistoryDays int    `yaml:"history_days"`
		HourlyBars  int    `yaml:"hourly_bars"`
	} `yaml:"data_source"`
	Watchlist []string `yaml:"watchlist"`
	Schedule  struct {
		ScanCron   string `yaml:"scan_cron"`
		VolumeCron string `yaml:"volume_cron"`
	} `yaml:"schedule"`
	Scan struct {
		Concurrency int     `yaml:"concurrency"`
		RVThreshold float64 `yaml:"rv_threshold"`
	} `yaml:"scan"`
	Signals  strategy.SignalConfig     `yaml:"signals"`
	WideBand calculator.WideBandConfig `yaml:"wideband"`
	Wave     analyzer.WaveConfig       `yaml:"wave"`
	Chart    analyzer.ChartConfig      `yaml:"chart"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// newDefault returns a Config with the nested strategy sections pre-filled, so
// a YAML file only needs to name the fields it changes.
func newDefault() *Config {
	return &Config{
		Signals:  strategy.DefaultSignalConfig(),
		WideBand: calculator.DenseWideBand(),
		Wave:     analyzer.DefaultWaveConfig(),
		Chart:    analyzer.DefaultChartConfig(),
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := newDefault()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BARS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BARS_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = splitList(v)
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("SCAN_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Concurrency = n
		}
	}

	// Defaults
	if cfg.DataSource.HomeSuffix == "" {
		cfg.DataSource.HomeSuffix = ".WA"
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 400
	}
	if cfg.DataSource.HourlyBars == 0 {
		cfg.DataSource.HourlyBars = 24 * 60
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 30 17 * * 1-5"
	}
	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = 4
	}
	if cfg.Scan.RVThreshold == 0 {
		cfg.Scan.RVThreshold = 2.0
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/ribbon_sentinel.db"
	}

	for i, t := range cfg.Watchlist {
		cfg.Watchlist[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the pipeline settings shared by the bot and the CLI.
func (c *Config) Validate() error {
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for _, t := range c.Watchlist {
		if t == "" {
			return fmt.Errorf("watchlist contains an empty ticker")
		}
	}
	if c.DataSource.HistoryDays < 2 {
		return fmt.Errorf("data_source.history_days must be at least 2")
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be positive")
	}
	if c.Scan.RVThreshold <= 0 {
		return fmt.Errorf("scan.rv_threshold must be positive")
	}
	if err := c.Signals.Validate(); err != nil {
		return err
	}
	if err := c.WideBand.Validate(); err != nil {
		return err
	}
	if err := c.Wave.Validate(); err != nil {
		return fmt.Errorf("wave: %w", err)
	}
	return nil
}

// ValidateTelegram checks the fields the bot needs on top of Validate.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
