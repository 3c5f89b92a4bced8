package hooks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrHostingServiceExists  = errors.New("hosting service is already registered")
	ErrUnknownHostingService = errors.New("hosting service is not registered")
)

// HostingService describes a repository hosting provider contributed by an extension.
type HostingService struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	SupportsRepositories bool   `json:"supports_repositories"`
	SupportsBugTrackers  bool   `json:"supports_bug_trackers"`
	NeedsAuthorization   bool   `json:"needs_authorization"`
}

// HostingServiceRegistry holds the hosting services available to repositories.
type HostingServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]HostingService
}

// NewHostingServiceRegistry creates an empty registry.
func NewHostingServiceRegistry() *HostingServiceRegistry {
	return &HostingServiceRegistry{services: make(map[string]HostingService)}
}

// Register adds service.
func (r *HostingServiceRegistry) Register(service HostingService) error {
	if service.ID == "" {
		return errors.New("hosting service ID must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[service.ID]; exists {
		return fmt.Errorf("%w: %q", ErrHostingServiceExists, service.ID)
	}
	r.services[service.ID] = service
	return nil
}

// Unregister removes the service registered under id.
func (r *HostingServiceRegistry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[id]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownHostingService, id)
	}
	delete(r.services, id)
	return nil
}

// Get looks a service up.
func (r *HostingServiceRegistry) Get(id string) (HostingService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[id]
	return s, ok
}

// List returns every service sorted by ID.
func (r *HostingServiceRegistry) List() []HostingService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]HostingService, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HostingServiceHook registers a hosting service for the extension's lifetime.
type HostingServiceHook struct {
	ext       *Extension
	id        string
	registry  *HostingServiceRegistry
	serviceID string

	mu       sync.Mutex
	shutdown bool
}

// NewHostingServiceHook registers service.
func NewHostingServiceHook(ext *Extension, reg *Registry, service HostingService) (*HostingServiceHook, error) {
	if err := reg.HostingServices.Register(service); err != nil {
		return nil, err
	}
	h := &HostingServiceHook{
		ext:       ext,
		id:        ext.nextHookID("hosting-service"),
		registry:  reg.HostingServices,
		serviceID: service.ID,
	}
	ext.attach(h)
	return h, nil
}

func (h *HostingServiceHook) ID() string   { return h.id }
func (h *HostingServiceHook) Type() string { return "hosting-service" }

// Shutdown unregisters the hosting service.
func (h *HostingServiceHook) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return fmt.Errorf("%w: hosting-service hook %q", ErrHookNotRegistered, h.id)
	}
	h.shutdown = true
	h.ext.detach(h.id)
	return h.registry.Unregister(h.serviceID)
}
