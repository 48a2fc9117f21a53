package blanket

import "context"

// Backend is the common interface every provider adapter implements. A
// Backend is bound to one resolved provider, endpoint, and credential at
// construction time and is stateless thereafter aside from its HTTP
// client, which is safe for concurrent use.
type Backend interface {
	// Provider returns the resolved provider identifier.
	Provider() ProviderID

	// Model returns the model this backend was constructed for.
	Model() string

	// Invoke sends a blocking request and returns the unified response.
	// Messages may be nil when WithSystem/WithUser supply the prompt.
	Invoke(ctx context.Context, messages []Message, opts ...CallOption) (*Response, error)

	// InvokeStream sends a streaming request. The returned channel yields
	// chunks in order and is closed when the stream ends; the final chunk
	// carries a finish reason when the provider signals one. Cancelling
	// ctx releases the underlying connection.
	InvokeStream(ctx context.Context, messages []Message, opts ...CallOption) (<-chan StreamChunk, error)
}

// callOptions is the per-call state assembled from CallOptions.
type callOptions struct {
	system string
	user   string
	params map[string]interface{}
}

// CallOption adjusts a single Invoke or InvokeStream call.
type CallOption func(*callOptions)

// WithSystem prepends a system message to the call's message sequence.
func WithSystem(text string) CallOption {
	return func(o *callOptions) { o.system = text }
}

// WithUser appends a user message to the call's message sequence.
func WithUser(text string) CallOption {
	return func(o *callOptions) { o.user = text }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CallOption {
	return WithParam("temperature", t)
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) CallOption {
	return WithParam("max_tokens", n)
}

// WithParam forwards an arbitrary generation parameter verbatim to the
// underlying provider call. Validation is the provider's responsibility.
func WithParam(key string, value interface{}) CallOption {
	return func(o *callOptions) {
		if o.params == nil {
			o.params = make(map[string]interface{})
		}
		o.params[key] = value
	}
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// assembleMessages builds the effective message sequence for one call:
// system first when given, then the caller's messages, then the user
// message when given. An empty result is an error.
func assembleMessages(messages []Message, o callOptions) ([]Message, error) {
	out := make([]Message, 0, len(messages)+2)
	if o.system != "" {
		out = append(out, SystemMessage(o.system))
	}
	out = append(out, messages...)
	if o.user != "" {
		out = append(out, UserMessage(o.user))
	}
	if len(out) == 0 {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: "provide at least one of: messages, WithSystem, or WithUser",
		}}
	}
	return out, nil
}
