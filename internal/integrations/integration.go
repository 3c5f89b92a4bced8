package integrations

import (
	integration_models "codereview-backend/internal/models/integrations"
	"context"

	"go.uber.org/zap"
)

// Integration defines the runtime contract of a connector to a third-party service.
// The configuration manager keeps the running state in sync with the persisted
// is_enabled flag; Shutdown on an instance that never initialized is a no-op.
type Integration interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// ConnectionTester is implemented by integrations that can verify their
// credentials against the remote service.
type ConnectionTester interface {
	TestConnection(ctx context.Context) (*integration_models.TestConnectionResult, error)
}

// Notifier is implemented by integrations that forward review activity.
type Notifier interface {
	Notify(ctx context.Context, event integration_models.ReviewEvent) error
}

// Factory builds a live instance bound to one configuration's settings.
type Factory func(settings *Settings, logger *zap.Logger) Integration

// Descriptor is the class-level, immutable description of an integration type.
type Descriptor struct {
	ID                   string
	Name                 string
	Description          string
	IconPath             string
	AllowsLocalScoping   bool
	SupportsRepositories bool
	NeedsAuthentication  bool
	DefaultConfiguration map[string]any

	// SecretKeys are settings masked in API responses.
	SecretKeys []string

	// ValidateConfig plays the role of the settings form: it checks a
	// configuration map before it is persisted. Nil accepts everything.
	ValidateConfig func(configuration map[string]any) error

	New Factory
}

// IsSecret reports whether key holds a credential.
func (d *Descriptor) IsSecret(key string) bool {
	for _, k := range d.SecretKeys {
		if k == key {
			return true
		}
	}
	return false
}
