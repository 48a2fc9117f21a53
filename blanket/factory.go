package blanket

// factoryOptions collects the ad hoc overrides passed to New. Overrides are
// merged onto a copy of the base config, so the caller's Config is never
// mutated and option order does not matter.
type factoryOptions struct {
	config   *Config
	provider string
	apiKey   string
	baseURL  string
	baseURLs map[string]string
	extra    map[string]interface{}
}

// Option adjusts a single New call.
type Option func(*factoryOptions)

// WithConfig supplies a base Config. Other options override its fields.
func WithConfig(cfg Config) Option {
	return func(o *factoryOptions) { o.config = &cfg }
}

// WithProvider forces the provider instead of inferring it from the model
// name. Required for Groq and custom endpoints.
func WithProvider(name string) Option {
	return func(o *factoryOptions) { o.provider = name }
}

// WithAPIKey overrides the API key for this client.
func WithAPIKey(key string) Option {
	return func(o *factoryOptions) { o.apiKey = key }
}

// WithBaseURL overrides the base URL for this client outright.
func WithBaseURL(url string) Option {
	return func(o *factoryOptions) { o.baseURL = url }
}

// WithBaseURLs merges provider-or-model → base URL entries over the base
// config's mapping.
func WithBaseURLs(urls map[string]string) Option {
	return func(o *factoryOptions) {
		if o.baseURLs == nil {
			o.baseURLs = make(map[string]string, len(urls))
		}
		for k, v := range urls {
			o.baseURLs[k] = v
		}
	}
}

// WithExtra sets one provider-specific option forwarded to backend
// construction.
func WithExtra(key string, value interface{}) Option {
	return func(o *factoryOptions) {
		if o.extra == nil {
			o.extra = make(map[string]interface{})
		}
		o.extra[key] = value
	}
}

// New constructs a ready-to-use Backend for the given model. It resolves
// the provider, then the endpoint, then the credential, in that order; any
// resolver failure propagates unchanged and nothing is partially
// constructed. Construction never performs a network call.
func New(model string, opts ...Option) (Backend, error) {
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Config{}
	if o.config != nil {
		cfg = o.config.clone()
	}
	if o.apiKey != "" {
		cfg.APIKey = o.apiKey
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if len(o.baseURLs) > 0 {
		if cfg.BaseURLs == nil {
			cfg.BaseURLs = make(map[string]string, len(o.baseURLs))
		}
		for k, v := range o.baseURLs {
			cfg.BaseURLs[k] = v
		}
	}
	if len(o.extra) > 0 {
		if cfg.Extra == nil {
			cfg.Extra = make(map[string]interface{}, len(o.extra))
		}
		for k, v := range o.extra {
			cfg.Extra[k] = v
		}
	}

	provider, err := ResolveProvider(model, o.provider)
	if err != nil {
		return nil, err
	}

	baseURL, err := ResolveBaseURL(provider, model, cfg)
	if err != nil {
		return nil, err
	}

	apiKey, err := ResolveAPIKey(provider, cfg)
	if err != nil {
		return nil, err
	}

	construct, err := defaultRegistry.lookup(provider)
	if err != nil {
		return nil, err
	}

	return construct(BackendConfig{
		Model:    model,
		Provider: provider,
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Extra:    cfg.Extra,
	})
}
