package hooks

import (
	"codereview-backend/internal/integrations"
	"fmt"
	"sync"
)

// IntegrationHook registers an integration type for the extension's lifetime.
type IntegrationHook struct {
	ext           *Extension
	id            string
	registry      *integrations.Registry
	integrationID string

	mu       sync.Mutex
	shutdown bool
}

// NewIntegrationHook registers descriptor in the integration registry.
func NewIntegrationHook(ext *Extension, reg *Registry, descriptor *integrations.Descriptor) (*IntegrationHook, error) {
	if descriptor == nil {
		return nil, fmt.Errorf("%w: nil descriptor", integrations.ErrInvalidConfiguration)
	}
	if err := reg.Integrations.Register(descriptor.ID, descriptor); err != nil {
		return nil, err
	}
	h := &IntegrationHook{
		ext:           ext,
		id:            ext.nextHookID("integration"),
		registry:      reg.Integrations,
		integrationID: descriptor.ID,
	}
	ext.attach(h)
	return h, nil
}

func (h *IntegrationHook) ID() string   { return h.id }
func (h *IntegrationHook) Type() string { return "integration" }

// IntegrationID returns the ID of the registered integration.
func (h *IntegrationHook) IntegrationID() string { return h.integrationID }

// Shutdown unregisters the integration type.
func (h *IntegrationHook) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return fmt.Errorf("%w: integration hook %q", ErrHookNotRegistered, h.id)
	}
	h.shutdown = true
	h.ext.detach(h.id)
	return h.registry.Unregister(h.integrationID)
}
