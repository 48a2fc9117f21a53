package blanket

import (
	"fmt"
	"net/http"
)

// SDKError is the base error carried by every typed error in this package.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SDKError) Unwrap() error { return e.Cause }

// ConfigurationError indicates invalid caller-supplied configuration or
// arguments, detected before any network activity.
type ConfigurationError struct {
	SDKError
}

// ProviderInferenceError indicates that the model name matches no known
// prefix rule and no explicit provider was given. Pass WithProvider to
// select one explicitly.
type ProviderInferenceError struct {
	SDKError
	Model string
}

// UnknownProviderError indicates an explicit provider outside the known set.
type UnknownProviderError struct {
	SDKError
	Provider string
}

// MissingBaseURLError indicates that the custom provider was selected with
// no resolvable base URL.
type MissingBaseURLError struct {
	SDKError
	Provider ProviderID
	Model    string
}

// MissingCredentialError indicates that neither the config nor the
// provider's environment variable yielded an API key.
type MissingCredentialError struct {
	SDKError
	Provider ProviderID
	EnvVar   string
}

// ProviderError is a failure reported by the provider's API, carrying
// enough context (provider, model, status) to diagnose. More specific
// request errors embed it.
type ProviderError struct {
	SDKError
	Provider   ProviderID
	Model      string
	StatusCode int
	Code       string
	Raw        map[string]interface{}
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s %s)", e.SDKError.Error(), e.Provider, e.Model)
	}
	return e.SDKError.Error()
}

// AuthenticationError indicates a rejected or missing credential (401/403).
type AuthenticationError struct {
	ProviderError
}

// RateLimitError indicates the provider throttled the request (429).
// RetryAfter holds the Retry-After hint in seconds, when supplied.
type RateLimitError struct {
	ProviderError
	RetryAfter *float64
}

// InvalidRequestError indicates the provider rejected the request shape
// (400/404/422) or returned an unparseable body.
type InvalidRequestError struct {
	ProviderError
}

// ServerError indicates a provider-side failure (5xx).
type ServerError struct {
	ProviderError
}

// NetworkError indicates a transport-level failure before a provider
// response was received.
type NetworkError struct {
	SDKError
}

// StreamError indicates a failure while reading an in-flight stream.
type StreamError struct {
	SDKError
}

// AbortError indicates the caller cancelled the request context.
type AbortError struct {
	SDKError
}

// ErrorFromStatusCode classifies a non-2xx provider response into the
// request error taxonomy.
func ErrorFromStatusCode(statusCode int, message string, provider ProviderID, model, code string, raw map[string]interface{}, retryAfter *float64) error {
	pe := ProviderError{
		SDKError:   SDKError{Message: message},
		Provider:   provider,
		Model:      model,
		StatusCode: statusCode,
		Code:       code,
		Raw:        raw,
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthenticationError{ProviderError: pe}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{ProviderError: pe, RetryAfter: retryAfter}
	case statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound || statusCode == http.StatusUnprocessableEntity:
		return &InvalidRequestError{ProviderError: pe}
	case statusCode >= 500:
		return &ServerError{ProviderError: pe}
	default:
		return &pe
	}
}
