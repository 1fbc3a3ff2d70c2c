package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("LLM_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresLLMKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/civic")
	t.Setenv("LLM_API_KEY", "")
	os.Unsetenv("LLM_API_KEY")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/civic")
	t.Setenv("LLM_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.RetryMaxAttempts)
	require.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
	require.Equal(t, 30*time.Second, cfg.FetchTimeout)
	require.Equal(t, 2000, cfg.LLMMaxInputChars)
	require.Equal(t, "@every 2h", cfg.GovernmentSchedule)
	require.False(t, cfg.ArchiveEnabled())
}
