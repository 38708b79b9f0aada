package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable FromEnv reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "METADATA_PROVIDER", "YOUTUBE_API_KEY", "YOUTUBE_API_ENDPOINT",
		"LLM_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY", "LLM_MODEL", "LLM_BASE_URL",
		"UPSTREAM_TIMEOUT", "UPSTREAM_MAX_RETRIES", "RATE_LIMIT_ENABLED",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "JWT_SECRET", "JWT_EXPIRATION_HOURS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"port": 8080,
		"metadata_provider": "page",
		"llm_provider": "openai",
		"llm_model": "gpt-4o-mini",
		"upstream_timeout": "5s",
		"max_retries": 3
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, MetadataPage, cfg.MetadataProvider)
	assert.Equal(t, LLMOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, 3, cfg.Retries())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"upstream_timeout": "soon"}`), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, MetadataYouTube, cfg.MetadataProvider)
	assert.Equal(t, LLMGemini, cfg.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 2, cfg.Retries())
	assert.False(t, cfg.RateLimitDisabled)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"port": 8080, "llm_model": "gemini-2.5-flash", "youtube_api_key": "file-key"}`), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "yt-key", cfg.YouTubeAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.Equal(t, 2*time.Second, cfg.Timeout())
	assert.True(t, cfg.RateLimitDisabled)
}

func TestLoad_InvalidProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("METADATA_PROVIDER", "vimeo")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := Default()
	cfg.MaxRetries = intPtr(-1)

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRetries")
}

func TestRequireCredentials(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "youtube and gemini keys present",
			mutate: func(c *Config) {
				c.YouTubeAPIKey = "yt"
				c.GeminiAPIKey = "gem"
			},
		},
		{
			name:    "missing youtube key",
			mutate:  func(c *Config) { c.GeminiAPIKey = "gem" },
			wantErr: "YOUTUBE_API_KEY",
		},
		{
			name: "page provider needs no metadata key",
			mutate: func(c *Config) {
				c.MetadataProvider = MetadataPage
				c.GeminiAPIKey = "gem"
			},
		},
		{
			name: "openai selected without key",
			mutate: func(c *Config) {
				c.YouTubeAPIKey = "yt"
				c.GeminiAPIKey = "gem"
				c.LLMProvider = LLMOpenAI
			},
			wantErr: "openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.RequireCredentials()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		Port:           3000,
		LLMProvider:    LLMGemini,
		LLMModel:       "gemini-2.5-flash",
		MaxRetries:     intPtr(2),
		RateLimitBurst: 10,
	}

	partial := Config{
		Port:          8080,
		YouTubeAPIKey: "custom-key",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, "custom-key", merged.YouTubeAPIKey)

	// Default values should fill in empty fields
	assert.Equal(t, LLMGemini, merged.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", merged.LLMModel)
	assert.Equal(t, 2, merged.Retries())
	assert.Equal(t, 10, merged.RateLimitBurst)
}

func TestLoad_ProviderFromAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{"no keys", nil, LLMGemini},
		{"openai key only", map[string]string{"OPENAI_API_KEY": "oa"}, LLMOpenAI},
		{"gemini key only", map[string]string{"GEMINI_API_KEY": "gem"}, LLMGemini},
		{"both keys", map[string]string{"OPENAI_API_KEY": "oa", "GEMINI_API_KEY": "gem"}, LLMGemini},
		{"explicit provider wins", map[string]string{"LLM_PROVIDER": "gemini", "OPENAI_API_KEY": "oa"}, LLMGemini},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.LLMProvider)
		})
	}
}

func TestLoad_OpenAIKeyOnlySatisfiesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("METADATA_PROVIDER", "page")
	t.Setenv("OPENAI_API_KEY", "oa")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireCredentials())
	assert.Equal(t, "oa", cfg.CompletionAPIKey())
}

func TestLoad_ZeroUpstreamPolicy(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("UPSTREAM_MAX_RETRIES", "0")
		t.Setenv("UPSTREAM_TIMEOUT", "0s")

		cfg, err := Load("")
		require.NoError(t, err)
		require.NotNil(t, cfg.MaxRetries)
		assert.Equal(t, 0, cfg.Retries())
		require.NotNil(t, cfg.UpstreamTimeout)
		assert.Equal(t, time.Duration(0), cfg.Timeout())
	})

	t.Run("file", func(t *testing.T) {
		clearEnv(t)
		tmpFile := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(tmpFile, []byte(`{"max_retries": 0, "upstream_timeout": "0s"}`), 0644))

		cfg, err := Load(tmpFile)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Retries())
		assert.Equal(t, time.Duration(0), cfg.Timeout())
	})

	t.Run("env overrides file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("UPSTREAM_MAX_RETRIES", "0")
		tmpFile := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(tmpFile, []byte(`{"max_retries": 4}`), 0644))

		cfg, err := Load(tmpFile)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Retries())
		assert.Equal(t, 30*time.Second, cfg.Timeout())
	})
}

func TestMergeWithDefaults_ZeroIsKept(t *testing.T) {
	merged := Config{MaxRetries: intPtr(0), UpstreamTimeout: durationPtr(0)}.
		MergeWithDefaults(Default())

	assert.Equal(t, 0, merged.Retries())
	assert.Equal(t, time.Duration(0), merged.Timeout())
}

func TestMergeWithDefaults_DisableIsSticky(t *testing.T) {
	merged := Config{}.MergeWithDefaults(Config{RateLimitDisabled: true})
	assert.True(t, merged.RateLimitDisabled)

	merged = Config{RateLimitDisabled: true}.MergeWithDefaults(Config{})
	assert.True(t, merged.RateLimitDisabled)
}

func TestCompletionAPIKey(t *testing.T) {
	cfg := Config{LLMProvider: LLMOpenAI, OpenAIAPIKey: "oa", GeminiAPIKey: "gem"}
	assert.Equal(t, "oa", cfg.CompletionAPIKey())

	cfg.LLMProvider = LLMGemini
	assert.Equal(t, "gem", cfg.CompletionAPIKey())
}
