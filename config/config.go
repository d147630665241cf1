package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wavewatch/internal/handlers"
	"wavewatch/internal/operations/binance"
	"wavewatch/internal/services/strategy"
)

// Load reads .env when present, then the environment, and validates the
// result. Every returned error is a *ConfigurationError.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigurationError{Field: ".env", Reason: err.Error()}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := &envReader{get: getenv}

	cfg := &Config{
		Exchange: ExchangeConfig{
			Market:    strings.ToLower(e.str("BINANCE_MARKET", binance.MarketSpot)),
			APIKey:    e.str("BINANCE_API_KEY", ""),
			SecretKey: e.str("BINANCE_SECRET_KEY", ""),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(e.str("DB_DRIVER", "")),
			Host:       e.str("DB_HOST", "localhost"),
			Port:       e.int("DB_PORT", 5432),
			User:       e.str("DB_USER", ""),
			Password:   e.str("DB_PASSWORD", ""),
			DBName:     e.str("DB_NAME", "wavewatch"),
			SQLitePath: e.str("SQLITE_PATH", "data/signals.db"),
		},
		Notify: NotifyConfig{
			TelegramToken:  e.str("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID: e.str("TELEGRAM_CHAT_ID", ""),
			WebhookURL:     e.str("WEBHOOK_URL", ""),
			RedisAddr:      e.str("REDIS_ADDR", ""),
			RedisPassword:  e.str("REDIS_PASSWORD", ""),
			RedisChannel:   e.str("REDIS_CHANNEL", "wavewatch:signals"),
		},
		Monitor: MonitorConfig{
			Symbols:      getSymbols(e.str("TRADING_SYMBOLS", "")),
			Timeframe:    e.str("TIMEFRAME", "15m"),
			Strategy:     e.str("STRATEGY", strategy.NameWave),
			RSIBuy:       float64(e.int("RSI_BUY", 30)),
			RSISell:      float64(e.int("RSI_SELL", 70)),
			MinNotional:  e.float("MIN_NOTIONAL", 0),
			PollInterval: time.Duration(e.int("POLL_INTERVAL_SECONDS", 30)) * time.Second,
			CandleLimit:  e.int("CANDLE_LIMIT", 100),
			TradeLimit:   e.int("TRADE_LIMIT", 500),
			Workers:      e.int("WORKERS", 1),
		},
		Log: LogConfig{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "console"),
		},
		HTTPAddr: e.str("HTTP_ADDR", ":8080"),
	}

	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	m := c.Monitor
	if len(m.Symbols) == 0 {
		return &ConfigurationError{Field: "TRADING_SYMBOLS", Reason: "no symbols"}
	}
	if _, ok := binance.IntervalDuration(m.Timeframe); !ok {
		return &ConfigurationError{Field: "TIMEFRAME", Reason: fmt.Sprintf("unsupported interval %q", m.Timeframe)}
	}
	name, err := strategy.ParseName(m.Strategy)
	if err != nil {
		return &ConfigurationError{Field: "STRATEGY", Reason: err.Error()}
	}
	c.Monitor.Strategy = name

	if m.RSIBuy < 0 || m.RSIBuy > 100 || m.RSISell < 0 || m.RSISell > 100 {
		return &ConfigurationError{Field: "RSI_BUY/RSI_SELL", Reason: "thresholds must be within 0..100"}
	}
	if m.RSIBuy >= m.RSISell {
		return &ConfigurationError{Field: "RSI_BUY/RSI_SELL", Reason: "buy threshold must be below sell threshold"}
	}
	if m.MinNotional < 0 {
		return &ConfigurationError{Field: "MIN_NOTIONAL", Reason: "must not be negative"}
	}
	if m.PollInterval < time.Second || m.PollInterval > time.Hour {
		return &ConfigurationError{Field: "POLL_INTERVAL_SECONDS", Reason: "must be within 1..3600"}
	}
	if m.CandleLimit < 30 || m.CandleLimit > 1000 {
		return &ConfigurationError{Field: "CANDLE_LIMIT", Reason: "must be within 30..1000"}
	}
	if m.TradeLimit < 0 || m.TradeLimit > 1000 {
		return &ConfigurationError{Field: "TRADE_LIMIT", Reason: "must be within 0..1000"}
	}
	if m.Workers < 1 {
		return &ConfigurationError{Field: "WORKERS", Reason: "must be at least 1"}
	}

	switch c.Exchange.Market {
	case binance.MarketSpot, binance.MarketFutures:
	default:
		return &ConfigurationError{Field: "BINANCE_MARKET", Reason: fmt.Sprintf("unknown market %q", c.Exchange.Market)}
	}

	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return &ConfigurationError{Field: "DB_DRIVER", Reason: fmt.Sprintf("unknown driver %q", c.Database.Driver)}
	}

	n := c.Notify
	if (n.TelegramToken == "") != (n.TelegramChatID == "") {
		return &ConfigurationError{Field: "TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID", Reason: "both or neither must be set"}
	}
	return nil
}

// Settings derives the monitor settings.
func (c *Config) Settings() handlers.Settings {
	params := strategy.DefaultParams()
	params.Strategy = c.Monitor.Strategy
	params.RSIBuy = c.Monitor.RSIBuy
	params.RSISell = c.Monitor.RSISell
	params.MinNotional = c.Monitor.MinNotional

	return handlers.Settings{
		Symbols:      append([]string(nil), c.Monitor.Symbols...),
		Timeframe:    c.Monitor.Timeframe,
		PollInterval: c.Monitor.PollInterval,
		CandleLimit:  c.Monitor.CandleLimit,
		TradeLimit:   c.Monitor.TradeLimit,
		Workers:      c.Monitor.Workers,
		Params:       params,
	}
}

// PostgresDSN returns the connection string for the journal database.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

type envReader struct {
	get func(string) string
	err error
}

func (e *envReader) str(key, fallback string) string {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return fallback
	}
	return v
}

func (e *envReader) int(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil && e.err == nil {
		e.err = &ConfigurationError{Field: key, Reason: fmt.Sprintf("not an integer: %q", v)}
	}
	return i
}

func (e *envReader) float(key string, fallback float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && e.err == nil {
		e.err = &ConfigurationError{Field: key, Reason: fmt.Sprintf("not a number: %q", v)}
	}
	return f
}

// helper to get symbols
func getSymbols(raw string) []string {
	if raw == "" {
		return []string{"BTCUSDT", "ETHUSDT"} // Default pairs if none specified
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}
