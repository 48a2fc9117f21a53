package blanket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProviderFromModel(t *testing.T) {
	tests := []struct {
		model    string
		expected ProviderID
	}{
		{"gpt-4o", ProviderOpenAI},
		{"gpt-4o-mini", ProviderOpenAI},
		{"o1-preview", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"claude-3-5-sonnet-20241022", ProviderAnthropic},
		{"claude-opus-4", ProviderAnthropic},
		{"gemini-1.5-pro", ProviderGemini},
		{"grok-2", ProviderXAI},
		{"grok", ProviderXAI},
		{"GPT-4o", ProviderOpenAI},
		{"  claude-3-haiku  ", ProviderAnthropic},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, err := ResolveProvider(tt.model, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, provider)
		})
	}
}

func TestResolveProviderExplicitWins(t *testing.T) {
	// Explicit provider beats the prefix rules outright.
	provider, err := ResolveProvider("gpt-4o", "groq")
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, provider)

	// Case-insensitive, whitespace-tolerant.
	provider, err = ResolveProvider("llama-3-70b-8192", "  GROQ ")
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, provider)
}

func TestResolveProviderUnknownExplicit(t *testing.T) {
	_, err := ResolveProvider("gpt-4o", "closedai")
	require.Error(t, err)

	var upErr *UnknownProviderError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "closedai", upErr.Provider)
}

func TestResolveProviderInferenceFailure(t *testing.T) {
	// Groq model names are not structurally distinctive; inference fails
	// and the caller must pass the provider explicitly.
	for _, model := range []string{"llama-3-70b-8192", "mixtral-8x7b", "deepseek-chat", ""} {
		_, err := ResolveProvider(model, "")
		require.Error(t, err, "model %q", model)

		var infErr *ProviderInferenceError
		require.ErrorAs(t, err, &infErr)
		assert.Equal(t, model, infErr.Model)
	}
}

func TestResolveProviderIdempotent(t *testing.T) {
	first, err1 := ResolveProvider("claude-3-5-sonnet", "")
	second, err2 := ResolveProvider("claude-3-5-sonnet", "")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestResolveBaseURLPrecedence(t *testing.T) {
	cfg := Config{
		BaseURL: "https://x.example/v1",
		BaseURLs: map[string]string{
			"gpt-4o": "https://y.example/v1",
			"openai": "https://z.example/v1",
		},
	}

	// Direct override wins.
	url, err := ResolveBaseURL(ProviderOpenAI, "gpt-4o", cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://x.example/v1", url)

	// Then the exact model entry.
	cfg.BaseURL = ""
	url, err = ResolveBaseURL(ProviderOpenAI, "gpt-4o", cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://y.example/v1", url)

	// Then the provider entry.
	delete(cfg.BaseURLs, "gpt-4o")
	url, err = ResolveBaseURL(ProviderOpenAI, "gpt-4o", cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://z.example/v1", url)

	// Then the built-in default.
	delete(cfg.BaseURLs, "openai")
	url, err = ResolveBaseURL(ProviderOpenAI, "gpt-4o", cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", url)
}

func TestResolveBaseURLTrimsTrailingSlash(t *testing.T) {
	url, err := ResolveBaseURL(ProviderOpenAI, "gpt-4o", Config{BaseURL: "https://proxy.example/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example/v1", url)
}

func TestResolveBaseURLCustomRequiresURL(t *testing.T) {
	_, err := ResolveBaseURL(ProviderCustom, "my-model", Config{})
	require.Error(t, err)

	var mbErr *MissingBaseURLError
	require.ErrorAs(t, err, &mbErr)
	assert.Equal(t, ProviderCustom, mbErr.Provider)

	// Any of the three override levels satisfies it.
	url, err := ResolveBaseURL(ProviderCustom, "my-model", Config{
		BaseURLs: map[string]string{"custom": "https://gateway.example/v1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/v1", url)
}

func TestResolveBaseURLDefaults(t *testing.T) {
	tests := []struct {
		provider ProviderID
		expected string
	}{
		{ProviderOpenAI, "https://api.openai.com/v1"},
		{ProviderGroq, "https://api.groq.com/openai/v1"},
		{ProviderXAI, "https://api.x.ai/v1"},
		{ProviderAnthropic, "https://api.anthropic.com"},
		{ProviderGemini, "https://generativelanguage.googleapis.com"},
	}
	for _, tt := range tests {
		url, err := ResolveBaseURL(tt.provider, "any-model", Config{})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, url)
	}
}

func TestResolveAPIKeyExplicitWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	key, err := ResolveAPIKey(ProviderOpenAI, Config{APIKey: "sk-explicit"})
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", key)
}

func TestResolveAPIKeyFromEnv(t *testing.T) {
	tests := []struct {
		provider ProviderID
		envVar   string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderGemini, "GOOGLE_API_KEY"},
		{ProviderXAI, "XAI_API_KEY"},
		{ProviderGroq, "GROQ_API_KEY"},
		{ProviderCustom, "OPENAI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			t.Setenv(tt.envVar, "sk-env-value")
			key, err := ResolveAPIKey(tt.provider, Config{})
			require.NoError(t, err)
			assert.Equal(t, "sk-env-value", key)
		})
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("XAI_API_KEY", "")

	_, err := ResolveAPIKey(ProviderXAI, Config{})
	require.Error(t, err)

	var mcErr *MissingCredentialError
	require.ErrorAs(t, err, &mcErr)
	assert.Equal(t, ProviderXAI, mcErr.Provider)
	assert.Equal(t, "XAI_API_KEY", mcErr.EnvVar)
}
