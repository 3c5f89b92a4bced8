package services

import (
	"codereview-backend/internal/hooks"
	"codereview-backend/internal/integrations"
	api_models "codereview-backend/internal/models"
	"errors"
	"fmt"
	"html/template"
)

// ErrHookPointNotFound is returned for an insertion point nobody renders.
var ErrHookPointNotFound = errors.New("hook point not found")

// IntegrationService exposes the integration registry and the hook points.
type IntegrationService struct {
	registry *integrations.Registry
	hooks    *hooks.Registry
	renderer *hooks.Renderer
}

func NewIntegrationService(registry *integrations.Registry, hookRegistry *hooks.Registry, renderer *hooks.Renderer) *IntegrationService {
	return &IntegrationService{
		registry: registry,
		hooks:    hookRegistry,
		renderer: renderer,
	}
}

// NewConfigLink is the admin page used to add a configuration of integrationID.
func NewConfigLink(integrationID string) string {
	return fmt.Sprintf("/admin/integrations/%s/add/", integrationID)
}

// ListIntegrations describes every registered integration type.
func (s *IntegrationService) ListIntegrations() []api_models.IntegrationResponse {
	descriptors := s.registry.List()
	resp := make([]api_models.IntegrationResponse, 0, len(descriptors))
	for _, d := range descriptors {
		defaults := make(map[string]any, len(d.DefaultConfiguration))
		for k, v := range d.DefaultConfiguration {
			defaults[k] = v
		}
		resp = append(resp, api_models.IntegrationResponse{
			IntegrationID:        d.ID,
			Name:                 d.Name,
			Description:          d.Description,
			IconPath:             d.IconPath,
			NewLink:              NewConfigLink(d.ID),
			AllowsLocalScoping:   d.AllowsLocalScoping,
			SupportsRepositories: d.SupportsRepositories,
			NeedsAuthentication:  d.NeedsAuthentication,
			DefaultConfiguration: defaults,
		})
	}
	return resp
}

// Capabilities returns the web API capabilities, including those added by extensions.
func (s *IntegrationService) Capabilities() map[string]any {
	return s.hooks.Capabilities.Capabilities()
}

// HostingServices lists the hosting services registered by extensions.
func (s *IntegrationService) HostingServices() []hooks.HostingService {
	return s.hooks.HostingServices.List()
}

// RenderHookPoint renders point with one fragment per working hook.
func (s *IntegrationService) RenderHookPoint(point string, rc hooks.RenderContext) (*api_models.HookPointResponse, error) {
	fragments, err := s.renderer.Render(point, rc)
	if err != nil {
		if errors.Is(err, hooks.ErrUnknownPoint) {
			return nil, fmt.Errorf("%w: %q", ErrHookPointNotFound, point)
		}
		if errors.Is(err, hooks.ErrMissingComment) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}

	resp := &api_models.HookPointResponse{
		Point:     point,
		Fragments: make([]string, len(fragments)),
	}
	var joined template.HTML
	for i, f := range fragments {
		resp.Fragments[i] = string(f)
		joined += f
	}
	resp.HTML = string(joined)
	return resp, nil
}
