package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.NotContains(t, cfg.Database.Path, "$HOME")
}

func TestLoadAnthropicDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	v := viper.New()
	v.Set("llm.provider", "anthropic")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
	assert.Equal(t, "anthropic-key", cfg.LLM.APIKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown provider", "llm.provider", "gemini"},
		{"bad log level", "logging.level", "verbose"},
		{"bad log format", "logging.format", "xml"},
		{"negative temperature", "llm.temperature", -1.0},
		{"bad base url", "llm.base_url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LEDGER_TEST_DIR", "/tmp/ledger")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/data/ledger.db", filepath.Join(home, "data/ledger.db")},
		{"$LEDGER_TEST_DIR/ledger.db", "/tmp/ledger/ledger.db"},
		{"/abs/path.db", "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
