package blanket

import (
	"fmt"
	"sync"
)

// BackendConfig carries everything resolved at construction time: one
// provider, one endpoint, one credential, and the caller's extra options.
type BackendConfig struct {
	Model    string
	Provider ProviderID
	BaseURL  string
	APIKey   string
	Extra    map[string]interface{}
}

// Constructor builds a Backend from a fully resolved configuration.
// Constructors must not perform network calls.
type Constructor func(cfg BackendConfig) (Backend, error)

// registry maps provider identifiers to backend constructors.
type registry struct {
	mu           sync.RWMutex
	constructors map[ProviderID]Constructor
}

func (r *registry) register(p ProviderID, fn Constructor) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[p] = fn
}

func (r *registry) lookup(p ProviderID) (Constructor, error) {
	r.mu.RLock()
	fn := r.constructors[p]
	r.mu.RUnlock()
	if fn == nil {
		return nil, &UnknownProviderError{
			SDKError: SDKError{Message: fmt.Sprintf("no backend registered for provider %q", p)},
			Provider: string(p),
		}
	}
	return fn, nil
}

var defaultRegistry = &registry{constructors: map[ProviderID]Constructor{
	ProviderOpenAI:    newOpenAICompat,
	ProviderGroq:      newOpenAICompat,
	ProviderXAI:       newOpenAICompat,
	ProviderCustom:    newOpenAICompat,
	ProviderAnthropic: newAnthropic,
	ProviderGemini:    newGemini,
}}

// Register attaches or replaces the backend constructor for a provider.
// Custom backends are not required to go through the factory at all; this
// hook exists for those that want provider resolution to reach them.
func Register(p ProviderID, fn Constructor) {
	defaultRegistry.register(p, fn)
}
