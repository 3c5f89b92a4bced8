package services

import (
	"codereview-backend/internal/auth"
	"codereview-backend/internal/integrations"
	api_models "codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Custom errors for the configured integration service
var (
	ErrConfigNotFound     = errors.New("configured integration not found")
	ErrPermissionDenied   = errors.New("you don't have permission to access this configured integration")
	ErrConfigValidation   = errors.New("configured integration validation failed")
	ErrConfigConflict     = errors.New("configured integration is already registered")
	ErrTestNotSupported   = errors.New("this integration does not support connection tests")
	ErrConnectionTestFail = errors.New("error occurred during connection test")
)

// ConfiguredIntegrationService exposes the configuration manager to the
// management API, applying local site access rules.
type ConfiguredIntegrationService interface {
	ListConfiguredIntegrations(ctx context.Context, p auth.Principal, integrationID string) ([]api_models.ConfiguredIntegrationResponse, error)
	GetConfiguredIntegration(ctx context.Context, p auth.Principal, id int64) (*api_models.ConfiguredIntegrationResponse, error)
	CreateConfiguredIntegration(ctx context.Context, p auth.Principal, req api_models.CreateConfiguredIntegrationRequest) (*api_models.ConfiguredIntegrationResponse, error)
	UpdateConfiguredIntegration(ctx context.Context, p auth.Principal, id int64, req api_models.UpdateConfiguredIntegrationRequest) (*api_models.ConfiguredIntegrationResponse, error)
	DeleteConfiguredIntegration(ctx context.Context, p auth.Principal, id int64) error
	TestConfiguredIntegration(ctx context.Context, p auth.Principal, id int64) (*api_models.TestConnectionResponse, error)
}

type configuredIntegrationService struct {
	manager *integrations.Manager
	store   store.Store
	logger  *zap.Logger
}

// NewConfiguredIntegrationService creates a new ConfiguredIntegrationService.
func NewConfiguredIntegrationService(m *integrations.Manager, s store.Store, logger *zap.Logger) ConfiguredIntegrationService {
	return &configuredIntegrationService{
		manager: m,
		store:   s,
		logger:  logger,
	}
}

// canAccess reports whether p may see entry: global configurations are
// visible to everyone, local ones only to members of their site.
func canAccess(p auth.Principal, entry *integrations.Configured) bool {
	if entry.Config.IsGlobal() || p.IsGlobalAdmin() {
		return true
	}
	return p.InLocalSite(*entry.Config.LocalSiteID)
}

// canMutate reports whether p may change entry.
func canMutate(p auth.Principal, entry *integrations.Configured) bool {
	if p.IsGlobalAdmin() {
		return true
	}
	return p.IsAdmin && !entry.Config.IsGlobal() && p.InLocalSite(*entry.Config.LocalSiteID)
}

// ConfigureLink is the admin page used to edit a configuration.
func ConfigureLink(entry *integrations.Configured) string {
	return fmt.Sprintf("/admin/integrations/%s/%d/", entry.Descriptor.ID, entry.ID())
}

func mapConfiguredToResponse(entry *integrations.Configured) api_models.ConfiguredIntegrationResponse {
	return api_models.ConfiguredIntegrationResponse{
		ID:            entry.ID(),
		IntegrationID: entry.Config.IntegrationID,
		Name:          entry.Descriptor.Name,
		Description:   entry.Config.Description,
		IconPath:      entry.Descriptor.IconPath,
		Enabled:       entry.IsEnabled(),
		Running:       entry.IsRunning(),
		Configuration: entry.PublicConfiguration(),
		LocalSiteID:   entry.Config.LocalSiteID,
		Links:         api_models.ConfiguredIntegrationLinks{Configure: ConfigureLink(entry)},
		CreatedAt:     entry.Config.CreatedAt,
		UpdatedAt:     entry.Config.UpdatedAt,
	}
}

// lookup resolves id in the manager's cache and checks read access.
func (s *configuredIntegrationService) lookup(p auth.Principal, id int64) (*integrations.Configured, error) {
	entry, err := s.manager.GetConfigInstance(id)
	if err != nil {
		if errors.Is(err, integrations.ErrNotRegistered) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	if !canAccess(p, entry) {
		return nil, ErrPermissionDenied
	}
	return entry, nil
}

// translateManagerError maps manager errors onto the service's errors.
func translateManagerError(err error) error {
	switch {
	case errors.Is(err, integrations.ErrNotRegistered):
		return ErrConfigNotFound
	case errors.Is(err, integrations.ErrAlreadyRegistered):
		return fmt.Errorf("%w: %v", ErrConfigConflict, err)
	case errors.Is(err, integrations.ErrUnknownIntegration), errors.Is(err, integrations.ErrInvalidConfiguration):
		return fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return err
}

// respondWithEntry builds the response, turning an initialize failure into a
// warning since the change itself was saved.
func (s *configuredIntegrationService) respondWithEntry(entry *integrations.Configured, err error) (*api_models.ConfiguredIntegrationResponse, error) {
	if err != nil && !(entry != nil && errors.Is(err, integrations.ErrInitializeFailed)) {
		return nil, translateManagerError(err)
	}
	resp := mapConfiguredToResponse(entry)
	if err != nil {
		s.logger.Warn("[ConfiguredIntegrationService] Saved configuration is not running",
			zap.Int64("config_id", entry.ID()), zap.Error(err))
		resp.Warning = err.Error()
	}
	return &resp, nil
}

// ListConfiguredIntegrations lists the configurations visible to p.
func (s *configuredIntegrationService) ListConfiguredIntegrations(ctx context.Context, p auth.Principal, integrationID string) ([]api_models.ConfiguredIntegrationResponse, error) {
	entries := s.manager.GetConfigInstances(integrationID)

	resp := make([]api_models.ConfiguredIntegrationResponse, 0, len(entries))
	for _, entry := range entries {
		if canAccess(p, entry) {
			resp = append(resp, mapConfiguredToResponse(entry))
		}
	}
	return resp, nil
}

// GetConfiguredIntegration returns one configuration.
func (s *configuredIntegrationService) GetConfiguredIntegration(ctx context.Context, p auth.Principal, id int64) (*api_models.ConfiguredIntegrationResponse, error) {
	entry, err := s.lookup(p, id)
	if err != nil {
		return nil, err
	}
	resp := mapConfiguredToResponse(entry)
	return &resp, nil
}

// CreateConfiguredIntegration validates and creates a configuration. Local site
// administrators always create in their own site.
func (s *configuredIntegrationService) CreateConfiguredIntegration(ctx context.Context, p auth.Principal, req api_models.CreateConfiguredIntegrationRequest) (*api_models.ConfiguredIntegrationResponse, error) {
	if !p.IsAdmin {
		return nil, ErrPermissionDenied
	}
	req.IntegrationID = strings.TrimSpace(req.IntegrationID)
	if req.IntegrationID == "" {
		return nil, fmt.Errorf("%w: integration_id cannot be empty", ErrConfigValidation)
	}

	localSiteID := req.LocalSiteID
	if !p.IsGlobalAdmin() {
		if localSiteID != nil && !p.InLocalSite(*localSiteID) {
			return nil, ErrPermissionDenied
		}
		localSiteID = p.LocalSiteID
	}
	if localSiteID != nil {
		if _, err := s.store.GetLocalSiteByID(ctx, *localSiteID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: local site %s does not exist", ErrConfigValidation, localSiteID)
			}
			return nil, fmt.Errorf("failed to verify local site: %w", err)
		}
	}

	entry, err := s.manager.CreateConfig(ctx, store.CreateConfiguredIntegrationParams{
		IntegrationID: req.IntegrationID,
		Description:   strings.TrimSpace(req.Description),
		IsEnabled:     req.Enabled,
		Configuration: req.Configuration,
		LocalSiteID:   localSiteID,
	})
	return s.respondWithEntry(entry, err)
}

// UpdateConfiguredIntegration saves the enabled flag together with any new
// settings, re-syncing the running state once.
func (s *configuredIntegrationService) UpdateConfiguredIntegration(ctx context.Context, p auth.Principal, id int64, req api_models.UpdateConfiguredIntegrationRequest) (*api_models.ConfiguredIntegrationResponse, error) {
	if req.Enabled == nil {
		return nil, fmt.Errorf("%w: enabled is required", ErrConfigValidation)
	}
	entry, err := s.lookup(p, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(p, entry) {
		return nil, ErrPermissionDenied
	}

	if req.Description == nil && req.Configuration == nil {
		if *req.Enabled {
			entry, err = s.manager.EnableConfig(ctx, id)
		} else {
			entry, err = s.manager.DisableConfig(ctx, id)
		}
		return s.respondWithEntry(entry, err)
	}

	var description *string
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		description = &trimmed
	}
	entry, err = s.manager.UpdateConfig(ctx, store.UpdateConfiguredIntegrationParams{
		ID:            id,
		Description:   description,
		Configuration: req.Configuration,
		IsEnabled:     req.Enabled,
	})
	return s.respondWithEntry(entry, err)
}

// DeleteConfiguredIntegration removes a configuration.
func (s *configuredIntegrationService) DeleteConfiguredIntegration(ctx context.Context, p auth.Principal, id int64) error {
	entry, err := s.lookup(p, id)
	if err != nil {
		return err
	}
	if !canMutate(p, entry) {
		return ErrPermissionDenied
	}
	if err := s.manager.DeleteConfig(ctx, id); err != nil {
		return translateManagerError(err)
	}
	return nil
}

// TestConfiguredIntegration runs the integration's connection test.
func (s *configuredIntegrationService) TestConfiguredIntegration(ctx context.Context, p auth.Principal, id int64) (*api_models.TestConnectionResponse, error) {
	entry, err := s.lookup(p, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(p, entry) {
		return nil, ErrPermissionDenied
	}

	tester, ok := entry.Integration.(integrations.ConnectionTester)
	if !ok {
		return nil, ErrTestNotSupported
	}

	result, err := tester.TestConnection(ctx)
	if err != nil {
		s.logger.Error("[ConfiguredIntegrationService] TestConfiguredIntegration: TestConnection failed",
			zap.Int64("config_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrConnectionTestFail, err)
	}
	return &api_models.TestConnectionResponse{
		Success: result.Success,
		Message: result.Message,
		Details: result.Details,
	}, nil
}
