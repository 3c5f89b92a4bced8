package hooks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrEmptyCapabilitiesID  = errors.New("the capabilities_id attribute must not be empty")
	ErrReservedCapabilities = errors.New("reserved for the default set of capabilities")
	ErrCapabilitiesExists   = errors.New("capabilities set has already been registered")
	ErrUnknownCapabilities  = errors.New("unknown web API capabilities set")
)

// defaultCapabilities advertises what the web API supports without extensions.
func defaultCapabilities() map[string]any {
	return map[string]any{
		"diffs": map[string]any{
			"base_commit_ids": true,
			"moved_files":     true,
			"validation": map[string]any{
				"base_commit_id": true,
			},
		},
		"extensions": map[string]any{
			"configurable": true,
		},
		"review_requests": map[string]any{
			"commit_ids":      true,
			"trivial_publish": true,
		},
		"scmtools": map[string]any{
			"git":       map[string]any{"empty_files": true, "symlinks": true},
			"mercurial": map[string]any{"empty_files": true},
			"perforce":  map[string]any{"moved_files": true, "empty_files": true},
			"svn":       map[string]any{"base_commit_ids": true},
		},
		"text": map[string]any{
			"markdown":               true,
			"per_field_text_types":   true,
			"can_include_raw_values": true,
		},
	}
}

// CapabilitiesRegistry merges extension-provided capability sets with the defaults.
type CapabilitiesRegistry struct {
	defaults map[string]any

	mu         sync.RWMutex
	registered map[string]map[string]any
}

// NewCapabilitiesRegistry creates a registry holding only the defaults.
func NewCapabilitiesRegistry() *CapabilitiesRegistry {
	return &CapabilitiesRegistry{
		defaults:   defaultCapabilities(),
		registered: make(map[string]map[string]any),
	}
}

// Register adds caps under id.
func (r *CapabilitiesRegistry) Register(id string, caps map[string]any) error {
	if id == "" {
		return ErrEmptyCapabilitiesID
	}
	if _, reserved := r.defaults[id]; reserved {
		return fmt.Errorf("%q is %w", id, ErrReservedCapabilities)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registered[id]; exists {
		return fmt.Errorf("%q: %w", id, ErrCapabilitiesExists)
	}
	copied := make(map[string]any, len(caps))
	for k, v := range caps {
		copied[k] = v
	}
	r.registered[id] = copied
	return nil
}

// Unregister removes the set registered under id.
func (r *CapabilitiesRegistry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registered[id]; !exists {
		return fmt.Errorf("%q is not a registered web API capabilities set: %w", id, ErrUnknownCapabilities)
	}
	delete(r.registered, id)
	return nil
}

// RegisteredIDs returns the IDs of extension-provided sets, sorted.
func (r *CapabilitiesRegistry) RegisteredIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.registered))
	for id := range r.registered {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Capabilities returns the defaults plus every registered set.
func (r *CapabilitiesRegistry) Capabilities() map[string]any {
	out := make(map[string]any, len(r.defaults))
	for k, v := range r.defaults {
		out[k] = v
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, caps := range r.registered {
		out[id] = caps
	}
	return out
}

// WebAPICapabilitiesHook advertises capabilities under the extension's ID.
type WebAPICapabilitiesHook struct {
	ext      *Extension
	id       string
	registry *CapabilitiesRegistry

	mu       sync.Mutex
	shutdown bool
}

// NewWebAPICapabilitiesHook registers caps under ext's ID.
func NewWebAPICapabilitiesHook(ext *Extension, reg *Registry, caps map[string]any) (*WebAPICapabilitiesHook, error) {
	if err := reg.Capabilities.Register(ext.ID(), caps); err != nil {
		return nil, err
	}
	h := &WebAPICapabilitiesHook{
		ext:      ext,
		id:       ext.nextHookID("web-api-capabilities"),
		registry: reg.Capabilities,
	}
	ext.attach(h)
	return h, nil
}

func (h *WebAPICapabilitiesHook) ID() string   { return h.id }
func (h *WebAPICapabilitiesHook) Type() string { return "web-api-capabilities" }

// Shutdown removes the extension's capability set.
func (h *WebAPICapabilitiesHook) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return fmt.Errorf("%w: web-api-capabilities hook %q", ErrHookNotRegistered, h.id)
	}
	h.shutdown = true
	h.ext.detach(h.id)
	return h.registry.Unregister(h.ext.ID())
}
