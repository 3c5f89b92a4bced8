package store

import (
	db_models "codereview-backend/internal/models"
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a unique constraint would be violated.
var ErrConflict = errors.New("record conflicts with an existing one")

// CreateConfiguredIntegrationParams contains parameters for creating a configured integration.
type CreateConfiguredIntegrationParams struct {
	IntegrationID string
	Description   string
	IsEnabled     bool
	Configuration map[string]any
	LocalSiteID   *uuid.UUID
}

// UpdateConfiguredIntegrationParams contains parameters for updating a configured integration.
type UpdateConfiguredIntegrationParams struct {
	ID            int64
	Description   *string        // Pointer to allow optional update
	Configuration map[string]any // Replaces the stored map when non-nil
	IsEnabled     *bool
}

// ConfiguredIntegrationStore is the persistence the configuration manager needs.
type ConfiguredIntegrationStore interface {
	CreateConfiguredIntegration(ctx context.Context, arg CreateConfiguredIntegrationParams) (*db_models.ConfiguredIntegration, error)
	GetConfiguredIntegrationByID(ctx context.Context, id int64) (*db_models.ConfiguredIntegration, error)
	ListConfiguredIntegrations(ctx context.Context, integrationID *string) ([]db_models.ConfiguredIntegration, error) // Optional filter by integration
	UpdateConfiguredIntegration(ctx context.Context, arg UpdateConfiguredIntegrationParams) (*db_models.ConfiguredIntegration, error)
	UpdateConfiguredIntegrationEnabled(ctx context.Context, id int64, isEnabled bool) error // Writes only is_enabled
	DeleteConfiguredIntegration(ctx context.Context, id int64) error
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)
	CreateUser(ctx context.Context, user *db_models.User) error

	// Local site operations
	CreateLocalSite(ctx context.Context, site *db_models.LocalSite) error
	GetLocalSiteByID(ctx context.Context, id uuid.UUID) (*db_models.LocalSite, error)

	ConfiguredIntegrationStore
}
