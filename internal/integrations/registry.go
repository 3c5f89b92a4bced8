package integrations

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the mapping between integration IDs and their descriptors.
// It is created once in main and injected where needed.
type Registry struct {
	mu           sync.RWMutex
	integrations map[string]*Descriptor
	onUnregister []func(id string)
	logger       *zap.Logger
}

// NewRegistry creates a new integration registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		integrations: make(map[string]*Descriptor),
		logger:       logger,
	}
}

// Register adds an integration descriptor to the registry.
func (r *Registry) Register(id string, descriptor *Descriptor) error {
	if id == "" || descriptor == nil {
		return fmt.Errorf("%w: integration ID and descriptor are required", ErrInvalidConfiguration)
	}
	if descriptor.ID != id {
		return fmt.Errorf("%w: descriptor ID %q does not match %q", ErrInvalidConfiguration, descriptor.ID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.integrations[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRegistration, id)
	}
	r.integrations[id] = descriptor
	r.logger.Info("[IntegrationRegistry] Registered integration", zap.String("integration_id", id))
	return nil
}

// MustRegister is Register for start-up code, panicking on failure.
func (r *Registry) MustRegister(id string, descriptor *Descriptor) {
	if err := r.Register(id, descriptor); err != nil {
		panic(fmt.Sprintf("FATAL [IntegrationRegistry] %v", err))
	}
}

// Unregister removes an integration from the registry and then notifies the
// OnUnregister listeners.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	if _, exists := r.integrations[id]; !exists {
		r.mu.Unlock()
		r.logger.Warn("[IntegrationRegistry] Failed to unregister unknown integration", zap.String("integration_id", id))
		return fmt.Errorf("%w: %q", ErrUnknownRegistration, id)
	}
	delete(r.integrations, id)
	listeners := append([]func(string){}, r.onUnregister...)
	r.mu.Unlock()

	r.logger.Info("[IntegrationRegistry] Unregistered integration", zap.String("integration_id", id))
	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

// OnUnregister adds fn to the functions called after an integration is
// unregistered. Listeners run without the registry lock held.
func (r *Registry) OnUnregister(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUnregister = append(r.onUnregister, fn)
}

// Resolve looks up a descriptor by ID.
func (r *Registry) Resolve(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.integrations[id]
	return d, ok
}

// List returns every registered descriptor, sorted by ID.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.integrations))
	for _, d := range r.integrations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
