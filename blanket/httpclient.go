package blanket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultRequestTimeout = 120 * time.Second

// httpClient is a shared HTTP client wrapper with configurable timeouts.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second, // connect timeout
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &httpClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

func (hc *httpClient) Do(req *http.Request) (*http.Response, error) {
	return hc.client.Do(req)
}

// backendHTTPOptions interprets the recognized keys of BackendConfig.Extra
// for the HTTP backends: "headers" (extra request headers) and "timeout"
// (duration string or seconds). Unrecognized keys are ignored here; they
// belong to whichever backend understands them.
func backendHTTPOptions(extra map[string]interface{}) (headers map[string]string, timeout time.Duration) {
	if raw, ok := extra["headers"]; ok {
		switch h := raw.(type) {
		case map[string]string:
			headers = h
		case map[string]interface{}:
			headers = make(map[string]string, len(h))
			for k, v := range h {
				if s, ok := v.(string); ok {
					headers[k] = s
				}
			}
		}
	}
	switch t := extra["timeout"].(type) {
	case time.Duration:
		timeout = t
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	case int:
		timeout = time.Duration(t) * time.Second
	case float64:
		timeout = time.Duration(t * float64(time.Second))
	}
	return headers, timeout
}

// sseEvent is a single Server-Sent Event.
type sseEvent struct {
	Event string
	Data  string
}

// isDone reports the OpenAI-style [DONE] termination sentinel.
func (e *sseEvent) isDone() bool { return e.Data == "[DONE]" }

// sseReader parses SSE streams from an io.Reader.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// Next returns the next SSE event, or io.EOF when the stream ends.
func (r *sseReader) Next() (*sseEvent, error) {
	var event sseEvent
	var dataLines []string
	hasData := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line = event boundary
		if line == "" {
			if hasData {
				event.Data = strings.Join(dataLines, "\n")
				return &event, nil
			}
			continue
		}

		// Comment lines (starting with :) are ignored
		if strings.HasPrefix(line, ":") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			event.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(line, "data:")
			data = strings.TrimPrefix(data, " ") // trim optional single leading space
			dataLines = append(dataLines, data)
			hasData = true
		case strings.HasPrefix(line, "retry:"):
			// Retry directives are ignored
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended mid-event
	if hasData {
		event.Data = strings.Join(dataLines, "\n")
		return &event, nil
	}

	return nil, io.EOF
}

// parseRetryAfter parses a Retry-After header value into seconds.
// Supports both integer-seconds and HTTP-date formats.
func parseRetryAfter(value string) *float64 {
	if value == "" {
		return nil
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return &seconds
	}

	for _, layout := range []string{time.RFC1123, time.RFC850} {
		if t, err := time.Parse(layout, value); err == nil {
			seconds := time.Until(t).Seconds()
			if seconds < 0 {
				seconds = 0
			}
			return &seconds
		}
	}

	return nil
}

// buildErrorFromResponse turns a non-2xx provider response into a typed
// request error, extracting the message and code from the common vendor
// error body shapes.
func buildErrorFromResponse(resp *http.Response, provider ProviderID, model string) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{SDKError: SDKError{
			Message: "failed to read error response body",
			Cause:   err,
		}}
	}

	var raw map[string]interface{}
	var message, errorCode string

	if err := json.Unmarshal(body, &raw); err == nil {
		// OpenAI and Anthropic: {"error": {"message": "...", "code"/"type": "..."}}
		if errObj, ok := raw["error"].(map[string]interface{}); ok {
			if msg, ok := errObj["message"].(string); ok {
				message = msg
			}
			if code, ok := errObj["code"].(string); ok {
				errorCode = code
			}
			if code, ok := errObj["type"].(string); ok && errorCode == "" {
				errorCode = code
			}
			if code, ok := errObj["status"].(string); ok && errorCode == "" {
				errorCode = code
			}
		}
		// Gemini occasionally reports a bare top-level message
		if message == "" {
			if msg, ok := raw["message"].(string); ok {
				message = msg
			}
		}
	}

	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

	return ErrorFromStatusCode(resp.StatusCode, message, provider, model, errorCode, raw, retryAfter)
}
