package hooks

import (
	"codereview-backend/internal/integrations"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNoReverseMatch is returned when a navigation entry names an unknown URL.
var ErrNoReverseMatch = errors.New("no URL registered under that name")

// Registry holds every hook point of the process.
type Registry struct {
	NavigationBar *Point[[]NavigationItem]

	DiffViewerActions    *Point[ActionProvider]
	ReviewRequestActions *Point[ActionProvider]
	HeaderActions        *Point[ActionProvider]

	ReviewRequestDropdownActions *Point[DropdownProvider]
	HeaderDropdownActions        *Point[DropdownProvider]

	CommentDetails *Point[CommentDetailRenderer]

	PrimaryWidgets   *Point[AdminWidget]
	SecondaryWidgets *Point[AdminWidget]

	HostingServices *HostingServiceRegistry
	Capabilities    *CapabilitiesRegistry
	Integrations    *integrations.Registry

	logger *zap.Logger

	urlMu sync.RWMutex
	urls  map[string]string
}

// NewRegistry creates empty hook points. Integration hooks register into
// integrationRegistry.
func NewRegistry(integrationRegistry *integrations.Registry, logger *zap.Logger) *Registry {
	return &Registry{
		NavigationBar:                NewPoint[[]NavigationItem](NavigationBarPoint),
		DiffViewerActions:            NewPoint[ActionProvider](DiffViewerActionsPoint),
		ReviewRequestActions:         NewPoint[ActionProvider](ReviewRequestActionsPoint),
		HeaderActions:                NewPoint[ActionProvider](HeaderActionsPoint),
		ReviewRequestDropdownActions: NewPoint[DropdownProvider](ReviewRequestDropdownActionsPoint),
		HeaderDropdownActions:        NewPoint[DropdownProvider](HeaderDropdownActionsPoint),
		CommentDetails:               NewPoint[CommentDetailRenderer](CommentDetailPoint),
		PrimaryWidgets:               NewPoint[AdminWidget](PrimaryWidgetsPoint),
		SecondaryWidgets:             NewPoint[AdminWidget](SecondaryWidgetsPoint),
		HostingServices:              NewHostingServiceRegistry(),
		Capabilities:                 NewCapabilitiesRegistry(),
		Integrations:                 integrationRegistry,
		logger:                       logger,
		urls:                         make(map[string]string),
	}
}

// RegisterURLName makes url resolvable by name for navigation entries.
func (r *Registry) RegisterURLName(name, url string) {
	r.urlMu.Lock()
	defer r.urlMu.Unlock()
	r.urls[name] = url
}

// ResolveURL returns the URL registered under name.
func (r *Registry) ResolveURL(name string) (string, error) {
	r.urlMu.RLock()
	defer r.urlMu.RUnlock()
	url, ok := r.urls[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoReverseMatch, name)
	}
	return url, nil
}

func (r *Registry) actionPoint(name string) (*Point[ActionProvider], error) {
	switch name {
	case DiffViewerActionsPoint:
		return r.DiffViewerActions, nil
	case ReviewRequestActionsPoint:
		return r.ReviewRequestActions, nil
	case HeaderActionsPoint:
		return r.HeaderActions, nil
	}
	return nil, fmt.Errorf("%w: %q is not an action point", ErrUnknownPoint, name)
}

func (r *Registry) dropdownPoint(name string) (*Point[DropdownProvider], error) {
	switch name {
	case ReviewRequestDropdownActionsPoint:
		return r.ReviewRequestDropdownActions, nil
	case HeaderDropdownActionsPoint:
		return r.HeaderDropdownActions, nil
	}
	return nil, fmt.Errorf("%w: %q is not a dropdown action point", ErrUnknownPoint, name)
}
