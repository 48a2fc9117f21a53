package blanket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInfersProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	llm, err := New("claude-3-5-sonnet-20241022")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, llm.Provider())
	assert.Equal(t, "claude-3-5-sonnet-20241022", llm.Model())
}

func TestNewGroqRequiresExplicitProvider(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")

	// Without a provider the model name cannot be inferred.
	_, err := New("llama-3-70b-8192")
	var infErr *ProviderInferenceError
	require.ErrorAs(t, err, &infErr)

	// With provider=groq construction succeeds at the Groq default endpoint.
	llm, err := New("llama-3-70b-8192", WithProvider("groq"))
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, llm.Provider())

	backend, ok := llm.(*OpenAICompatLLM)
	require.True(t, ok)
	assert.Equal(t, "https://api.groq.com/openai/v1", backend.baseURL)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("gpt-4o", WithProvider("closedai"))
	var upErr *UnknownProviderError
	require.ErrorAs(t, err, &upErr)
}

func TestNewFailsFastWithoutCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New("gpt-4o")
	var mcErr *MissingCredentialError
	require.ErrorAs(t, err, &mcErr)
	assert.Equal(t, ProviderOpenAI, mcErr.Provider)
}

func TestNewCustomProviderNeedsBaseURL(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := New("my-local-model", WithProvider("custom"))
	var mbErr *MissingBaseURLError
	require.ErrorAs(t, err, &mbErr)

	llm, err := New("my-local-model", WithProvider("custom"), WithBaseURL("https://gateway.example/v1"))
	require.NoError(t, err)
	assert.Equal(t, ProviderCustom, llm.Provider())
}

func TestNewOverridesWinOverConfig(t *testing.T) {
	cfg := Config{
		APIKey:  "sk-config",
		BaseURL: "https://config.example/v1",
	}

	llm, err := New("gpt-4o",
		WithConfig(cfg),
		WithAPIKey("sk-override"),
		WithBaseURL("https://override.example/v1"),
	)
	require.NoError(t, err)

	backend, ok := llm.(*OpenAICompatLLM)
	require.True(t, ok)
	assert.Equal(t, "sk-override", backend.apiKey)
	assert.Equal(t, "https://override.example/v1", backend.baseURL)
}

func TestNewDoesNotMutateCallerConfig(t *testing.T) {
	cfg := Config{
		APIKey:   "sk-config",
		BaseURLs: map[string]string{"openai": "https://a.example/v1"},
		Extra:    map[string]interface{}{"timeout": "30s"},
	}

	_, err := New("gpt-4o",
		WithConfig(cfg),
		WithBaseURLs(map[string]string{"openai": "https://b.example/v1", "groq": "https://c.example/v1"}),
		WithExtra("headers", map[string]string{"X-Team": "research"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "sk-config", cfg.APIKey)
	assert.Equal(t, map[string]string{"openai": "https://a.example/v1"}, cfg.BaseURLs)
	assert.Equal(t, map[string]interface{}{"timeout": "30s"}, cfg.Extra)
}

func TestNewBaseURLsMergeOptionWins(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg := Config{BaseURLs: map[string]string{
		"groq":   "https://config-proxy.example/v1",
		"openai": "https://config-openai.example/v1",
	}}

	llm, err := New("llama-3-70b-8192",
		WithConfig(cfg),
		WithProvider("groq"),
		WithBaseURLs(map[string]string{"groq": "https://option-proxy.example/v1"}),
	)
	require.NoError(t, err)

	backend := llm.(*OpenAICompatLLM)
	assert.Equal(t, "https://option-proxy.example/v1", backend.baseURL)
}

func TestNewModelEntryBeatsProviderEntry(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	llm, err := New("gpt-4o", WithBaseURLs(map[string]string{
		"gpt-4o": "https://model.example/v1",
		"openai": "https://provider.example/v1",
	}))
	require.NoError(t, err)

	backend := llm.(*OpenAICompatLLM)
	assert.Equal(t, "https://model.example/v1", backend.baseURL)
}

// stubBackend is a minimal Backend used to verify the registry extension
// point.
type stubBackend struct {
	cfg BackendConfig
}

func (s *stubBackend) Provider() ProviderID { return s.cfg.Provider }
func (s *stubBackend) Model() string        { return s.cfg.Model }
func (s *stubBackend) Invoke(ctx context.Context, messages []Message, opts ...CallOption) (*Response, error) {
	return &Response{Content: "stub", Model: s.cfg.Model}, nil
}
func (s *stubBackend) InvokeStream(ctx context.Context, messages []Message, opts ...CallOption) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Content: "stub", FinishReason: "stop"}
	close(ch)
	return ch, nil
}

func TestRegisterReplacesConstructor(t *testing.T) {
	t.Setenv("XAI_API_KEY", "xai-test")

	original, err := defaultRegistry.lookup(ProviderXAI)
	require.NoError(t, err)
	t.Cleanup(func() { Register(ProviderXAI, original) })

	Register(ProviderXAI, func(cfg BackendConfig) (Backend, error) {
		return &stubBackend{cfg: cfg}, nil
	})

	llm, err := New("grok-2")
	require.NoError(t, err)

	stub, ok := llm.(*stubBackend)
	require.True(t, ok)
	assert.Equal(t, "grok-2", stub.cfg.Model)
	assert.Equal(t, "https://api.x.ai/v1", stub.cfg.BaseURL)
	assert.Equal(t, "xai-test", stub.cfg.APIKey)

	resp, err := llm.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "stub", resp.Content)
}
