package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Binance API
	BinanceApiKey    string
	BinanceSecretKey string
	BinanceTestnet   bool

	// Symbol Cache
	CacheFile       string
	CacheTTLHours   int
	TickersFile     string
	DefaultLeverage int

	// Signal API
	SignalApiURL     string
	SignalApiTimeout int // seconds
	SignalModelType  string
	SignalLang       string

	// Position sizing for the analysis report
	PositionQty float64

	// Telegram
	TelegramToken  string
	TelegramChatID string

	// Scheduler
	IntervalMinutes int
	Timezone        string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{}
	var err error

	cfg.BinanceApiKey = os.Getenv("BINANCE_API_KEY")
	cfg.BinanceSecretKey = os.Getenv("BINANCE_API_SECRET")
	if cfg.BinanceApiKey == "" || cfg.BinanceSecretKey == "" {
		return nil, fmt.Errorf("BINANCE_API_KEY and BINANCE_API_SECRET are required")
	}

	if val := os.Getenv("BINANCE_TESTNET"); val == "true" {
		cfg.BinanceTestnet = true
	}

	cfg.CacheFile = os.Getenv("CACHE_FILE")
	if cfg.CacheFile == "" {
		cfg.CacheFile = "symbol_filters.json"
	}

	valTTL := os.Getenv("CACHE_TTL_HOURS")
	if valTTL != "" {
		cfg.CacheTTLHours, err = parseInt(valTTL, "CACHE_TTL_HOURS")
		if err != nil {
			return nil, err
		}
	} else {
		cfg.CacheTTLHours = 24 // Default
	}

	cfg.TickersFile = os.Getenv("TICKERS_FILE")
	if cfg.TickersFile == "" {
		cfg.TickersFile = "tickers.txt"
	}

	valLev := os.Getenv("FUTURES_LEVERAGE")
	if valLev != "" {
		cfg.DefaultLeverage, err = parseInt(valLev, "FUTURES_LEVERAGE")
		if err != nil {
			return nil, err
		}
	} else {
		cfg.DefaultLeverage = 20 // Default
	}

	cfg.SignalApiURL = os.Getenv("SIGNAL_API_URL")
	if cfg.SignalApiURL == "" {
		return nil, fmt.Errorf("SIGNAL_API_URL is required")
	}

	valTimeout := os.Getenv("SIGNAL_API_TIMEOUT")
	if valTimeout != "" {
		cfg.SignalApiTimeout, err = parseInt(valTimeout, "SIGNAL_API_TIMEOUT")
		if err != nil {
			return nil, err
		}
	} else {
		cfg.SignalApiTimeout = 30 // Default, XGBoost upstream is slow
	}

	cfg.SignalModelType = os.Getenv("SIGNAL_MODEL_TYPE")
	if cfg.SignalModelType == "" {
		cfg.SignalModelType = "xgb"
	}

	cfg.SignalLang = os.Getenv("SIGNAL_LANG")
	if cfg.SignalLang == "" {
		cfg.SignalLang = "uk"
	}

	valQty := os.Getenv("POSITION_QTY")
	if valQty != "" {
		cfg.PositionQty, err = parseFloat(valQty, "POSITION_QTY")
		if err != nil {
			return nil, err
		}
	} else {
		cfg.PositionQty = 0.01
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	valInterval := os.Getenv("INTERVAL_MINUTES")
	if valInterval != "" {
		cfg.IntervalMinutes, err = parseInt(valInterval, "INTERVAL_MINUTES")
		if err != nil {
			return nil, err
		}
		if cfg.IntervalMinutes <= 0 {
			return nil, fmt.Errorf("INTERVAL_MINUTES must be positive")
		}
	} else {
		cfg.IntervalMinutes = 15 // Default
	}

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Kyiv"
	}

	return cfg, nil
}

func parseFloat(value, name string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return f, nil
}

func parseInt(value, name string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return i, nil
}
