package blanket

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
)

// AnthropicLLM is the native backend for the Anthropic Messages API.
type AnthropicLLM struct {
	model   string
	baseURL string
	apiKey  string
	headers map[string]string
	http    *httpClient
}

func newAnthropic(cfg BackendConfig) (Backend, error) {
	headers, timeout := backendHTTPOptions(cfg.Extra)
	return &AnthropicLLM{
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		headers: headers,
		http:    newHTTPClient(timeout),
	}, nil
}

func (l *AnthropicLLM) Provider() ProviderID { return ProviderAnthropic }

func (l *AnthropicLLM) Model() string { return l.model }

// Invoke sends a blocking request to the Messages API.
func (l *AnthropicLLM) Invoke(ctx context.Context, messages []Message, opts ...CallOption) (*Response, error) {
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
		return nil, buildErrorFromResponse(resp, ProviderAnthropic, l.model)
	}

	return l.parseResponse(resp)
}

// InvokeStream sends a streaming request to the Messages API.
func (l *AnthropicLLM) InvokeStream(ctx context.Context, messages []Message, opts ...CallOption) (<-chan StreamChunk, error) {
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
		return nil, buildErrorFromResponse(resp, ProviderAnthropic, l.model)
	}

	ch := make(chan StreamChunk, 64)
	go l.readStream(ctx, resp.Body, ch)
	return ch, nil
}

func (l *AnthropicLLM) send(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "failed to create request", Cause: err}}
	}
	httpReq.Header.Set("x-api-key", l.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")
	for k, v := range l.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := l.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "request failed", Cause: err}}
	}
	return resp, nil
}

func (l *AnthropicLLM) buildRequestBody(messages []Message, o callOptions, stream bool) ([]byte, error) {
	msgs, err := assembleMessages(messages, o)
	if err != nil {
		return nil, err
	}

	// System messages are lifted into the top-level system field; anything
	// that is not user/assistant is coerced to user.
	var systemParts []string
	var wire []map[string]interface{}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleAssistant:
			wire = append(wire, map[string]interface{}{"role": "assistant", "content": m.Content})
		default:
			wire = append(wire, map[string]interface{}{"role": "user", "content": m.Content})
		}
	}

	body := map[string]interface{}{
		"model":    l.model,
		"messages": wire,
	}
	if len(systemParts) > 0 {
		body["system"] = strings.Join(systemParts, "\n\n")
	}

	// max_tokens is required by the Messages API.
	body["max_tokens"] = anthropicDefaultMaxTokens
	for k, v := range o.params {
		body[k] = v
	}

	if stream {
		body["stream"] = true
	}

	return json.Marshal(body)
}

func (l *AnthropicLLM) parseResponse(resp *http.Response) (*Response, error) {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "failed to read response", Cause: err}}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		return nil, &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "failed to parse response JSON", Cause: err},
			Provider: ProviderAnthropic,
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
	if stopReason, ok := raw["stop_reason"].(string); ok {
		response.FinishReason = stopReason
	}

	// Concatenate text blocks; tool_use blocks become unified tool calls.
	if content, ok := raw["content"].([]interface{}); ok {
		var text strings.Builder
		for _, block := range content {
			blockMap, ok := block.(map[string]interface{})
			if !ok {
				continue
			}
			switch blockMap["type"] {
			case "text":
				if t, ok := blockMap["text"].(string); ok {
					text.WriteString(t)
				}
			case "tool_use":
				call := ToolCall{}
				if id, ok := blockMap["id"].(string); ok {
					call.ID = id
				}
				if name, ok := blockMap["name"].(string); ok {
					call.Name = name
				}
				if input, ok := blockMap["input"]; ok {
					call.Arguments, _ = json.Marshal(input)
				}
				response.ToolCalls = append(response.ToolCalls, call)
			}
		}
		response.Content = text.String()
	}

	if usageMap, ok := raw["usage"].(map[string]interface{}); ok {
		usage := &Usage{Raw: usageMap}
		if v, ok := usageMap["input_tokens"].(float64); ok {
			usage.PromptTokens = int(v)
		}
		if v, ok := usageMap["output_tokens"].(float64); ok {
			usage.CompletionTokens = int(v)
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		response.Usage = usage
	}

	return response, nil
}

func (l *AnthropicLLM) readStream(ctx context.Context, body io.ReadCloser, ch chan<- StreamChunk) {
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

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(event.Data), &data); err != nil {
			continue
		}

		switch event.Event {
		case "content_block_delta":
			if delta, ok := data["delta"].(map[string]interface{}); ok {
				if delta["type"] == "text_delta" {
					if text, ok := delta["text"].(string); ok {
						ch <- StreamChunk{Content: text}
					}
				}
			}

		case "message_delta":
			if delta, ok := data["delta"].(map[string]interface{}); ok {
				if stopReason, ok := delta["stop_reason"].(string); ok && stopReason != "" {
					ch <- StreamChunk{FinishReason: stopReason}
					return
				}
			}

		case "message_stop":
			ch <- StreamChunk{FinishReason: "end_turn"}
			return

		case "error":
			errMsg := "stream error"
			if errData, ok := data["error"].(map[string]interface{}); ok {
				if msg, ok := errData["message"].(string); ok {
					errMsg = msg
				}
			}
			ch <- StreamChunk{Err: &StreamError{SDKError: SDKError{Message: errMsg}}}
			return
		}
	}
}
