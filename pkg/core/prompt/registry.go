package prompt

import (
	"fmt"
	"sync"
)

// Registry holds all loaded prompt templates keyed by account name.
type Registry struct {
	prompts map[string]*Template
	mu      sync.RWMutex
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry singleton
func Get() *Registry {
	once.Do(func() {
		globalRegistry = &Registry{
			prompts: make(map[string]*Template),
		}
	})
	return globalRegistry
}

// Register adds a template to the registry
func (r *Registry) Register(t *Template) error {
	if t.Account == "" {
		return fmt.Errorf("prompt account name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prompts[t.Account] = t
	return nil
}

// ByAccount retrieves the template for a canonical account.
func (r *Registry) ByAccount(account string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.prompts[account]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("no prompt registered for account %q", account)
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}
