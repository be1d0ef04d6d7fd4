package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Server struct {
	Port              string `json:"port" env:"PORT"`
	RequestTimeoutSec int    `json:"request_timeout_sec" env:"REQUEST_TIMEOUT_SEC"`
}

type CoinGecko struct {
	BaseURL        string   `json:"base_url" env:"COINGECKO_BASE_URL"`
	APIKey         string   `json:"api_key" env:"COINGECKO_API_KEY"`
	InstrumentIDs  []string `json:"instrument_ids" env:"INSTRUMENT_IDS" envSeparator:","`
	SnapshotTTLSec int      `json:"snapshot_ttl_sec" env:"SNAPSHOT_TTL_SEC"`
	HistoryTTLSec  int      `json:"history_ttl_sec" env:"HISTORY_TTL_SEC"`
	HistoryDays    int      `json:"history_days" env:"HISTORY_DAYS"`
}

type Config struct {
	Server    Server    `json:"server"`
	CoinGecko CoinGecko `json:"coingecko"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		CoinGecko: CoinGecko{
			InstrumentIDs: []string{
				"bitcoin", "ethereum", "solana", "sui",
				"pyth-network", "cardano", "polkadot",
			},
			SnapshotTTLSec: 60,
			HistoryTTLSec:  3600,
			HistoryDays:    90,
		},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. A .env file, when present, is loaded first;
// environment variables override file values.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
