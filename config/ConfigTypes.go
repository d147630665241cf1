package config

import (
	"fmt"
	"time"
)

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Notify   NotifyConfig
	Monitor  MonitorConfig
	Log      LogConfig
	HTTPAddr string
}

type ExchangeConfig struct {
	Market    string
	APIKey    string
	SecretKey string
}

// DatabaseConfig configures the optional signal journal. An empty Driver
// disables it.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

func (d DatabaseConfig) Enabled() bool {
	return d.Driver != ""
}

type NotifyConfig struct {
	TelegramToken  string
	TelegramChatID string
	WebhookURL     string
	RedisAddr      string
	RedisPassword  string
	RedisChannel   string
}

type MonitorConfig struct {
	Symbols      []string
	Timeframe    string
	Strategy     string
	RSIBuy       float64
	RSISell      float64
	MinNotional  float64
	PollInterval time.Duration
	CandleLimit  int
	TradeLimit   int
	Workers      int
}

type LogConfig struct {
	Level  string
	Format string
}

// ConfigurationError is a fatal startup error.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
