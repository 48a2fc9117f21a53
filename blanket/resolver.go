package blanket

import (
	"fmt"
	"os"
	"strings"
)

// ProviderID identifies one LLM vendor/API family.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
	ProviderXAI       ProviderID = "xai"
	ProviderGroq      ProviderID = "groq"
	// ProviderCustom is any generic OpenAI-compatible endpoint. It cannot
	// be inferred from a model name and has no default base URL.
	ProviderCustom ProviderID = "custom"
)

// knownProviders is the closed set accepted as an explicit provider.
var knownProviders = map[ProviderID]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderGemini:    true,
	ProviderXAI:       true,
	ProviderGroq:      true,
	ProviderCustom:    true,
}

// KnownProviders returns the built-in provider set in a stable order.
func KnownProviders() []ProviderID {
	return []ProviderID{
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderGemini,
		ProviderXAI,
		ProviderGroq,
		ProviderCustom,
	}
}

// modelPrefixRules maps model-name prefixes to providers, checked in order;
// first match wins. Order matters because some prefixes could overlap.
// Groq has no structurally distinctive model names (llama-*, mixtral-*),
// so it never appears here and must be selected explicitly.
var modelPrefixRules = []struct {
	prefix   string
	provider ProviderID
}{
	{"claude", ProviderAnthropic},
	{"gemini", ProviderGemini},
	{"grok", ProviderXAI},
	{"gpt-", ProviderOpenAI},
	{"o1-", ProviderOpenAI},
	{"o3-", ProviderOpenAI},
}

// ResolveProvider maps a model name and an optional explicit provider to a
// ProviderID. An explicit provider (case-insensitive) wins outright; an
// unknown one fails with UnknownProviderError. Otherwise the model name is
// matched against the prefix rules; no match fails with
// ProviderInferenceError. Pure and deterministic.
func ResolveProvider(model, explicit string) (ProviderID, error) {
	if explicit = strings.ToLower(strings.TrimSpace(explicit)); explicit != "" {
		p := ProviderID(explicit)
		if !knownProviders[p] {
			return "", &UnknownProviderError{
				SDKError: SDKError{Message: fmt.Sprintf("unknown provider %q", explicit)},
				Provider: explicit,
			}
		}
		return p, nil
	}

	name := strings.ToLower(strings.TrimSpace(model))
	for _, rule := range modelPrefixRules {
		if strings.HasPrefix(name, rule.prefix) {
			return rule.provider, nil
		}
	}

	return "", &ProviderInferenceError{
		SDKError: SDKError{Message: fmt.Sprintf("cannot infer provider from model %q; pass the provider explicitly", model)},
		Model:    model,
	}
}

// ResolveBaseURL derives the effective base URL for a provider/model pair.
// Precedence, first defined value wins: cfg.BaseURL, cfg.BaseURLs[model],
// cfg.BaseURLs[provider], the provider's built-in default. The custom
// provider has no default; when nothing else yields a URL, resolution fails
// with MissingBaseURLError. Pure: re-derivable from its three inputs.
func ResolveBaseURL(provider ProviderID, model string, cfg Config) (string, error) {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/"), nil
	}
	if model != "" {
		if url, ok := cfg.BaseURLs[model]; ok && url != "" {
			return strings.TrimRight(url, "/"), nil
		}
	}
	if url, ok := cfg.BaseURLs[string(provider)]; ok && url != "" {
		return strings.TrimRight(url, "/"), nil
	}
	if url, ok := defaultBaseURLs[provider]; ok {
		return url, nil
	}
	return "", &MissingBaseURLError{
		SDKError: SDKError{Message: fmt.Sprintf("provider %q has no default base URL; set BaseURL or BaseURLs", provider)},
		Provider: provider,
		Model:    model,
	}
}

// ResolveAPIKey derives the credential for a provider: cfg.APIKey wins,
// then the provider's environment variable, read at call time and never
// cached process-wide. Neither source yielding a non-empty value fails
// with MissingCredentialError.
func ResolveAPIKey(provider ProviderID, cfg Config) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	envVar, ok := defaultEnvKeys[provider]
	if !ok {
		envVar = "OPENAI_API_KEY"
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", &MissingCredentialError{
		SDKError: SDKError{Message: fmt.Sprintf("no API key for provider %q: set Config.APIKey or %s", provider, envVar)},
		Provider: provider,
		EnvVar:   envVar,
	}
}
