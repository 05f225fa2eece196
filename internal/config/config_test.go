package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.LogLevel = "loud"
	cfg.Edge.MinEdge = 0
	cfg.Scanner.PageSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "min_edge")
	assert.Contains(t, err.Error(), "page_size")
}

func TestValidateLiveTradingRequiresKey(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Execution.DryRun = false

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet")

	cfg.Wallet.PrivateKey = "0xabc123"
	require.NoError(t, cfg.Validate())
}

func TestValidateDryRunNeedsNoKey(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Execution.DryRun = true
	require.NoError(t, cfg.Validate())
}

func TestValidateSignatureTypes(t *testing.T) {
	// 0 = EOA, 1 = proxy, 2 = Gnosis Safe.
	for _, sigType := range []int{0, 1, 2} {
		cfg := Defaults()
		cfg.Polymarket.SignatureType = sigType
		require.NoError(t, cfg.Validate(), "signature_type %d", sigType)
	}

	cfg := Defaults()
	cfg.Polymarket.SignatureType = 3
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature_type")
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	cfg := Defaults()
	cfg.Scanner.Categories = []string{"sports", "weather"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "weather"`)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "trade"
log_level = "debug"

[scanner]
poll_interval = "1m"
page_size = 50

[edge]
buffer = 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trade", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.Scanner.PollInterval.Duration)
	assert.Equal(t, 50, cfg.Scanner.PageSize)
	assert.InDelta(t, 0.05, cfg.Edge.Buffer, 1e-12)
	// Untouched fields keep their defaults.
	assert.InDelta(t, 0.01, cfg.Edge.MinEdge, 1e-12)
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BASKETBOT_EDGE_BUFFER", "0.04")
	t.Setenv("BASKETBOT_EXECUTION_DRY_RUN", "false")
	t.Setenv("BASKETBOT_SCANNER_CATEGORIES", "crypto, politics")
	t.Setenv("BASKETBOT_SCANNER_POLL_INTERVAL", "45s")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.InDelta(t, 0.04, cfg.Edge.Buffer, 1e-12)
	assert.False(t, cfg.Execution.DryRun)
	assert.Equal(t, []string{"crypto", "politics"}, cfg.Scanner.Categories)
	assert.Equal(t, 45*time.Second, cfg.Scanner.PollInterval.Duration)
}

func TestEnvOverridesIgnoreEmptyAndInvalid(t *testing.T) {
	t.Setenv("BASKETBOT_EDGE_BUFFER", "")
	t.Setenv("BASKETBOT_SCANNER_PAGE_SIZE", "not-a-number")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.InDelta(t, 0.03, cfg.Edge.Buffer, 1e-12)
	assert.Equal(t, 100, cfg.Scanner.PageSize)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xdeadbeef"
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	// Originals untouched.
	assert.Equal(t, "0xdeadbeef", cfg.Wallet.PrivateKey)

	// Mutating the copy's slices must not reach the original.
	red.Scanner.Categories[0] = "mutated"
	assert.Equal(t, "sports", cfg.Scanner.Categories[0])
}
