package blanket

// Config holds client settings: an explicit API key, base-URL overrides,
// and provider-specific extras. The zero value is usable; credentials then
// come from the environment and endpoints from the built-in defaults.
//
// Config is treated as immutable: the factory copies it (maps included)
// before applying per-call overrides, so a Config shared across several
// New calls is never mutated.
type Config struct {
	// APIKey is an explicit credential. When empty, the provider's
	// environment variable is consulted at resolution time.
	APIKey string

	// BaseURL overrides the endpoint for this client outright, taking
	// precedence over BaseURLs and the built-in defaults.
	BaseURL string

	// BaseURLs maps a provider name or an exact model name to a base URL,
	// e.g. {"groq": "https://my-proxy.internal/openai/v1"}. An exact model
	// match wins over a provider match.
	BaseURLs map[string]string

	// Extra holds provider-specific options forwarded verbatim to backend
	// construction. Validation of these values is the backend's
	// responsibility, not the core's. The HTTP backends recognize
	// "headers" (map of extra request headers) and "timeout" (request
	// timeout as a duration string or seconds).
	Extra map[string]interface{}
}

// clone deep-copies the config so override merging never mutates the
// caller's maps.
func (c Config) clone() Config {
	out := Config{APIKey: c.APIKey, BaseURL: c.BaseURL}
	if c.BaseURLs != nil {
		out.BaseURLs = make(map[string]string, len(c.BaseURLs))
		for k, v := range c.BaseURLs {
			out.BaseURLs[k] = v
		}
	}
	if c.Extra != nil {
		out.Extra = make(map[string]interface{}, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// DefaultBaseURL returns the built-in endpoint for a provider, or the
// empty string for providers without one (custom).
func DefaultBaseURL(p ProviderID) string {
	return defaultBaseURLs[p]
}

// CredentialEnvVar names the environment variable consulted for a
// provider's API key when Config.APIKey is unset.
func CredentialEnvVar(p ProviderID) string {
	if v, ok := defaultEnvKeys[p]; ok {
		return v
	}
	return "OPENAI_API_KEY"
}

// defaultEnvKeys names the environment variable consulted per provider when
// Config.APIKey is unset. Custom endpoints commonly reuse the OpenAI key
// name.
var defaultEnvKeys = map[ProviderID]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GOOGLE_API_KEY",
	ProviderXAI:       "XAI_API_KEY",
	ProviderGroq:      "GROQ_API_KEY",
	ProviderCustom:    "OPENAI_API_KEY",
}

// defaultBaseURLs holds the built-in endpoint per provider. ProviderCustom
// has no entry: a custom backend is meaningless without a caller-supplied
// URL.
var defaultBaseURLs = map[ProviderID]string{
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderGroq:      "https://api.groq.com/openai/v1",
	ProviderXAI:       "https://api.x.ai/v1",
	ProviderAnthropic: "https://api.anthropic.com",
	ProviderGemini:    "https://generativelanguage.googleapis.com",
}
