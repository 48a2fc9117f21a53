// Package blanket is a unified client facade over several LLM provider
// APIs (OpenAI, Anthropic, Gemini, xAI, Groq, and generic OpenAI-compatible
// endpoints). Given a model identifier, it resolves the provider, endpoint,
// and credential, and returns a Backend that exposes a single
// request/response shape regardless of vendor.
//
// # Quick Start
//
// Provider is inferred from the model name (gpt-* resolves to OpenAI,
// claude* to Anthropic, and so on):
//
//	llm, err := blanket.New("gpt-4o-mini")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := llm.Invoke(ctx, nil,
//	    blanket.WithSystem("You are a concise assistant."),
//	    blanket.WithUser("Say hello in one sentence."),
//	    blanket.WithTemperature(0.7),
//	)
//	fmt.Println(resp.Content)
//
// # Resolution
//
// Three pure resolvers run at construction time, in order:
//
//   - ResolveProvider: explicit provider wins; otherwise model-name prefix
//     rules; otherwise ProviderInferenceError (pass WithProvider for Groq
//     and custom endpoints, whose model names are not distinctive).
//   - ResolveBaseURL: Config.BaseURL, then BaseURLs[model], then
//     BaseURLs[provider], then the provider's built-in default. The
//     "custom" provider has no default and fails with MissingBaseURLError.
//   - ResolveAPIKey: Config.APIKey, then the provider's environment
//     variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY,
//     XAI_API_KEY, GROQ_API_KEY).
//
// All resolution failures surface at New, before any network activity.
// A Backend's provider, endpoint, and credential are fixed for its
// lifetime.
//
// # Streaming
//
// InvokeStream returns a channel of StreamChunk values. The channel is
// closed when the stream ends; the final chunk carries the provider's
// finish reason when one is signalled. Cancelling the context releases the
// underlying connection even when the channel is only partially consumed:
//
//	ch, err := llm.InvokeStream(ctx, nil, blanket.WithUser("Tell a story."))
//	for chunk := range ch {
//	    if chunk.Err != nil {
//	        log.Fatal(chunk.Err)
//	    }
//	    fmt.Print(chunk.Content)
//	}
//
// # Custom Backends
//
// A custom backend only needs to satisfy the Backend interface; it can be
// constructed directly or registered with Register to participate in
// provider resolution.
package blanket
