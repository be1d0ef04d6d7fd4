package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	require.Equal(t, 60, cfg.CoinGecko.SnapshotTTLSec)
	require.Equal(t, 3600, cfg.CoinGecko.HistoryTTLSec)
	require.Contains(t, cfg.CoinGecko.InstrumentIDs, "bitcoin")
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": "9090", "request_timeout_sec": 5},
		"coingecko": {"history_days": 30}
	}`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("INSTRUMENT_IDS", "bitcoin,ethereum")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Server.Port, "env must override the file")
	require.Equal(t, 5, cfg.Server.RequestTimeoutSec, "file must override defaults")
	require.Equal(t, 30, cfg.CoinGecko.HistoryDays)
	require.Equal(t, []string{"bitcoin", "ethereum"}, cfg.CoinGecko.InstrumentIDs)
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
