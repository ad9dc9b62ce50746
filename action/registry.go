package action

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps action names to definitions. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Definition
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]*Definition)}
}

// Register adds an action definition. Re-registering a name replaces the
// previous definition. Definitions without a name or handler are rejected;
// an unset Safety defaults to SafetySafe.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("action: definition requires a name")
	}
	if def.Handler == nil && def.Safety != SafetyForbidden {
		return fmt.Errorf("action: definition %q requires a handler", def.Name)
	}
	if def.Safety == "" {
		def.Safety = SafetySafe
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[def.Name] = def
	return nil
}

// MustRegister is like Register but panics on error. Use for static catalogs.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Resolve returns the definition for an action name.
func (r *Registry) Resolve(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.actions[name]
	return def, ok
}

// Names returns all registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
