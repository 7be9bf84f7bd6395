package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SEMRUSH_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("SCREAMING_FROG_PATH", "")
	t.Setenv("SEMRUSH_DATABASE", "")
	t.Setenv("SEOAUDIT_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.SemrushAPIKey)
	assert.Equal(t, "ak-test", cfg.AnthropicAPIKey)
	assert.Equal(t, "us", cfg.SemrushDatabase)
	assert.Equal(t, defaultModel, cfg.Model)
	assert.NotEmpty(t, cfg.ScreamingFrogPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEMRUSH_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("SCREAMING_FROG_PATH", "/opt/sf/cli")
	t.Setenv("SEMRUSH_DATABASE", "uk")
	t.Setenv("SEOAUDIT_MODEL", "claude-opus-4-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/opt/sf/cli", cfg.ScreamingFrogPath)
	assert.Equal(t, "uk", cfg.SemrushDatabase)
	assert.Equal(t, "claude-opus-4-1", cfg.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "all keys present",
			cfg: Config{
				SemrushAPIKey:     "sk",
				AnthropicAPIKey:   "ak",
				ScreamingFrogPath: "screamingfrogseospider",
			},
		},
		{
			name: "missing semrush key",
			cfg: Config{
				AnthropicAPIKey:   "ak",
				ScreamingFrogPath: "screamingfrogseospider",
			},
			wantErr: "SEMRUSH_API_KEY",
		},
		{
			name:    "missing both keys",
			cfg:     Config{ScreamingFrogPath: "screamingfrogseospider"},
			wantErr: "SEMRUSH_API_KEY, ANTHROPIC_API_KEY",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
