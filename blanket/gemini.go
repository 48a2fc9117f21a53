package blanket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// GeminiLLM is the native backend for the Gemini generateContent API.
type GeminiLLM struct {
	model   string
	baseURL string
	apiKey  string
	headers map[string]string
	http    *httpClient
}

func newGemini(cfg BackendConfig) (Backend, error) {
	headers, timeout := backendHTTPOptions(cfg.Extra)
	return &GeminiLLM{
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		headers: headers,
		http:    newHTTPClient(timeout),
	}, nil
}

func (l *GeminiLLM) Provider() ProviderID { return ProviderGemini }

func (l *GeminiLLM) Model() string { return l.model }

// Invoke sends a blocking generateContent request.
func (l *GeminiLLM) Invoke(ctx context.Context, messages []Message, opts ...CallOption) (*Response, error) {
	body, err := l.buildRequestBody(messages, applyCallOptions(opts))
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", l.baseURL, l.model, l.apiKey)
	resp, err := l.send(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, buildErrorFromResponse(resp, ProviderGemini, l.model)
	}

	return l.parseResponse(resp)
}

// InvokeStream sends a streamGenerateContent request with SSE framing.
func (l *GeminiLLM) InvokeStream(ctx context.Context, messages []Message, opts ...CallOption) (<-chan StreamChunk, error) {
	body, err := l.buildRequestBody(messages, applyCallOptions(opts))
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s", l.baseURL, l.model, l.apiKey)
	resp, err := l.send(ctx, url, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, buildErrorFromResponse(resp, ProviderGemini, l.model)
	}

	ch := make(chan StreamChunk, 64)
	go l.readStream(ctx, resp.Body, ch)
	return ch, nil
}

func (l *GeminiLLM) send(ctx context.Context, url string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "failed to create request", Cause: err}}
	}
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

// geminiParamKeys maps unified generation parameter names to their
// generationConfig equivalents.
var geminiParamKeys = map[string]string{
	"temperature": "temperature",
	"top_p":       "topP",
	"top_k":       "topK",
	"max_tokens":  "maxOutputTokens",
	"stop":        "stopSequences",
}

func (l *GeminiLLM) buildRequestBody(messages []Message, o callOptions) ([]byte, error) {
	msgs, err := assembleMessages(messages, o)
	if err != nil {
		return nil, err
	}

	// System messages become systemInstruction; user stays user, everything
	// else maps to the model role.
	var systemParts []interface{}
	var contents []interface{}
	for _, m := range msgs {
		part := map[string]interface{}{"text": m.Content}
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, part)
		case RoleUser:
			contents = append(contents, map[string]interface{}{
				"role":  "user",
				"parts": []interface{}{part},
			})
		default:
			contents = append(contents, map[string]interface{}{
				"role":  "model",
				"parts": []interface{}{part},
			})
		}
	}

	body := map[string]interface{}{}
	if len(systemParts) > 0 {
		body["systemInstruction"] = map[string]interface{}{"parts": systemParts}
	}
	if len(contents) > 0 {
		body["contents"] = contents
	}

	genConfig := map[string]interface{}{}
	for k, v := range o.params {
		if mapped, ok := geminiParamKeys[k]; ok {
			genConfig[mapped] = v
		} else {
			genConfig[k] = v
		}
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}

	return json.Marshal(body)
}

func (l *GeminiLLM) parseResponse(resp *http.Response) (*Response, error) {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "failed to read response", Cause: err}}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		return nil, &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "failed to parse response JSON", Cause: err},
			Provider: ProviderGemini,
			Model:    l.model,
		}}
	}

	response := &Response{
		Model: l.model,
		Raw:   raw,
	}
	if model, ok := raw["modelVersion"].(string); ok && model != "" {
		response.Model = model
	}

	if candidates, ok := raw["candidates"].([]interface{}); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]interface{}); ok {
			text, calls := parseGeminiParts(candidate)
			response.Content = text
			response.ToolCalls = calls
			if fr, ok := candidate["finishReason"].(string); ok {
				response.FinishReason = fr
			}
		}
	}

	response.Usage = parseGeminiUsage(raw)
	return response, nil
}

// parseGeminiParts extracts the candidate's text and function calls.
// Gemini does not assign tool-call IDs, so one is synthesized per call.
func parseGeminiParts(candidate map[string]interface{}) (string, []ToolCall) {
	var text strings.Builder
	var calls []ToolCall

	content, _ := candidate["content"].(map[string]interface{})
	parts, _ := content["parts"].([]interface{})
	for _, p := range parts {
		pm, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if t, ok := pm["text"].(string); ok {
			text.WriteString(t)
		}
		if fc, ok := pm["functionCall"].(map[string]interface{}); ok {
			name, _ := fc["name"].(string)
			args, _ := json.Marshal(fc["args"])
			calls = append(calls, ToolCall{
				ID:        "call_" + uuid.New().String(),
				Name:      name,
				Arguments: args,
			})
		}
	}
	return text.String(), calls
}

func parseGeminiUsage(raw map[string]interface{}) *Usage {
	usageMap, ok := raw["usageMetadata"].(map[string]interface{})
	if !ok {
		return nil
	}
	usage := &Usage{Raw: usageMap}
	if v, ok := usageMap["promptTokenCount"].(float64); ok {
		usage.PromptTokens = int(v)
	}
	if v, ok := usageMap["candidatesTokenCount"].(float64); ok {
		usage.CompletionTokens = int(v)
	}
	if v, ok := usageMap["totalTokenCount"].(float64); ok {
		usage.TotalTokens = int(v)
	} else {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func (l *GeminiLLM) readStream(ctx context.Context, body io.ReadCloser, ch chan<- StreamChunk) {
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
			// Gemini streams end without an explicit terminal event when
			// the finish reason arrived on an earlier chunk; synthesize
			// the terminal signal the way the blocking path reports stop.
			ch <- StreamChunk{FinishReason: "stop"}
			return
		}
		if err != nil {
			ch <- StreamChunk{Err: &StreamError{SDKError: SDKError{Message: "stream read error", Cause: err}}}
			return
		}
		if event.isDone() {
			ch <- StreamChunk{FinishReason: "stop"}
			return
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(event.Data), &data); err != nil {
			continue
		}

		candidates, _ := data["candidates"].([]interface{})
		if len(candidates) == 0 {
			continue
		}
		candidate, _ := candidates[0].(map[string]interface{})
		if candidate == nil {
			continue
		}

		chunk := StreamChunk{}
		text, _ := parseGeminiParts(candidate)
		chunk.Content = text
		if fr, ok := candidate["finishReason"].(string); ok {
			chunk.FinishReason = fr
		}
		ch <- chunk

		if chunk.FinishReason != "" {
			return
		}
	}
}
