package blanket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAICompatLLM is the backend for OpenAI and any OpenAI-compatible chat
// completions API: OpenAI itself, Groq, xAI, and custom endpoints.
type OpenAICompatLLM struct {
	model    string
	provider ProviderID
	baseURL  string
	apiKey   string
	headers  map[string]string
	http     *httpClient
}

func newOpenAICompat(cfg BackendConfig) (Backend, error) {
	headers, timeout := backendHTTPOptions(cfg.Extra)
	return &OpenAICompatLLM{
		model:    cfg.Model,
		provider: cfg.Provider,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		headers:  headers,
		http:     newHTTPClient(timeout),
	}, nil
}

func (l *OpenAICompatLLM) Provider() ProviderID { return l.provider }

func (l *OpenAICompatLLM) Model() string { return l.model }

// Invoke sends a blocking chat completions request.
func (l *OpenAICompatLLM) Invoke(ctx context.Context, messages []Message, opts ...CallOption) (*Response, error) {
	body, err := l.buildRequestBody(messages, applyCallOptions(opts), false)
	if err != nil {
		return nil, err
	}

	resp, err := l.send(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, buildErrorFromResponse(resp, l.provider, l.model)
	}

	return l.parseResponse(resp)
}

// InvokeStream sends a streaming chat completions request.
func (l *OpenAICompatLLM) InvokeStream(ctx context.Context, messages []Message, opts ...CallOption) (<-chan StreamChunk, error) {
	body, err := l.buildRequestBody(messages, applyCallOptions(opts), true)
	if err != nil {
		return nil, err
	}

	resp, err := l.send(ctx, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, buildErrorFromResponse(resp, l.provider, l.model)
	}

	ch := make(chan StreamChunk, 64)
	go l.readStream(ctx, resp.Body, ch)
	return ch, nil
}

func (l *OpenAICompatLLM) send(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "failed to create request", Cause: err}}
	}
	httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range l.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := l.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "request failed", Cause: err}}
	}
	return resp, nil
}

func (l *OpenAICompatLLM) buildRequestBody(messages []Message, o callOptions, stream bool) ([]byte, error) {
	msgs, err := assembleMessages(messages, o)
	if err != nil {
		return nil, err
	}

	wire := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		wire = append(wire, m.AsMap())
	}

	body := map[string]interface{}{
		"model":    l.model,
		"messages": wire,
	}

	// Extra generation parameters are forwarded verbatim.
	for k, v := range o.params {
		body[k] = v
	}

	if stream {
		body["stream"] = true
	}

	return json.Marshal(body)
}

func (l *OpenAICompatLLM) parseResponse(resp *http.Response) (*Response, error) {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "failed to read response", Cause: err}}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		return nil, &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "failed to parse response JSON", Cause: err},
			Provider: l.provider,
			Model:    l.model,
		}}
	}

	response := &Response{
		Model: l.model,
		Raw:   raw,
	}
	if id, ok := raw["id"].(string); ok {
		response.ID = id
	}
	if model, ok := raw["model"].(string); ok && model != "" {
		response.Model = model
	}
	response.Usage = parseOpenAIUsage(raw)

	choices, _ := raw["choices"].([]interface{})
	if len(choices) == 0 {
		return response, nil
	}
	choice, _ := choices[0].(map[string]interface{})
	if choice == nil {
		return response, nil
	}

	if fr, ok := choice["finish_reason"].(string); ok {
		response.FinishReason = fr
	}

	message, _ := choice["message"].(map[string]interface{})
	if message == nil {
		return response, nil
	}

	switch content := message["content"].(type) {
	case string:
		response.Content = content
	case []interface{}:
		// Some compatible endpoints return content as a block list.
		var parts []string
		for _, block := range content {
			if bm, ok := block.(map[string]interface{}); ok {
				if text, ok := bm["text"].(string); ok {
					parts = append(parts, text)
					continue
				}
			}
			parts = append(parts, fmt.Sprint(block))
		}
		response.Content = strings.Join(parts, " ")
	}

	if toolCalls, ok := message["tool_calls"].([]interface{}); ok {
		for _, tc := range toolCalls {
			tcMap, ok := tc.(map[string]interface{})
			if !ok {
				continue
			}
			call := ToolCall{}
			if id, ok := tcMap["id"].(string); ok {
				call.ID = id
			}
			if fn, ok := tcMap["function"].(map[string]interface{}); ok {
				if name, ok := fn["name"].(string); ok {
					call.Name = name
				}
				if args, ok := fn["arguments"].(string); ok {
					call.Arguments = json.RawMessage(args)
				}
			}
			response.ToolCalls = append(response.ToolCalls, call)
		}
	}

	return response, nil
}

func parseOpenAIUsage(raw map[string]interface{}) *Usage {
	usageMap, ok := raw["usage"].(map[string]interface{})
	if !ok {
		return nil
	}
	usage := &Usage{Raw: usageMap}
	if v, ok := usageMap["prompt_tokens"].(float64); ok {
		usage.PromptTokens = int(v)
	}
	if v, ok := usageMap["completion_tokens"].(float64); ok {
		usage.CompletionTokens = int(v)
	}
	if v, ok := usageMap["total_tokens"].(float64); ok {
		usage.TotalTokens = int(v)
	} else {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func (l *OpenAICompatLLM) readStream(ctx context.Context, body io.ReadCloser, ch chan<- StreamChunk) {
	defer close(ch)
	defer body.Close()

	reader := newSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			ch <- StreamChunk{Err: &AbortError{SDKError: SDKError{Message: "stream cancelled", Cause: ctx.Err()}}}
			return
		default:
		}

		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			ch <- StreamChunk{Err: &StreamError{SDKError: SDKError{Message: "stream read error", Cause: err}}}
			return
		}
		if event.isDone() {
			return
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(event.Data), &data); err != nil {
			continue
		}

		choices, _ := data["choices"].([]interface{})
		if len(choices) == 0 {
			continue
		}
		choice, _ := choices[0].(map[string]interface{})
		if choice == nil {
			continue
		}

		chunk := StreamChunk{}
		if delta, ok := choice["delta"].(map[string]interface{}); ok {
			if content, ok := delta["content"].(string); ok {
				chunk.Content = content
			}
		}
		if fr, ok := choice["finish_reason"].(string); ok {
			chunk.FinishReason = fr
		}
		ch <- chunk

		if chunk.FinishReason != "" {
			return
		}
	}
}
