package integrations

import (
	"codereview-backend/internal/models"
)

// Configured is the runtime wrapper the manager keeps per configuration ID. It
// owns the live integration instance built from the row. A reload replaces the
// whole wrapper; fields are never mutated after construction.
type Configured struct {
	Config      *models.ConfiguredIntegration
	Descriptor  *Descriptor
	Settings    *Settings
	Integration Integration
}

// ID returns the configuration ID.
func (c *Configured) ID() int64 {
	return c.Config.ID
}

// IsEnabled returns the persisted is_enabled flag.
func (c *Configured) IsEnabled() bool {
	return c.Config.IsEnabled
}

// IsRunning reports whether the integration instance is initialized.
func (c *Configured) IsRunning() bool {
	return c.Integration != nil && c.Integration.IsRunning()
}

// PublicConfiguration returns the effective settings with secrets masked.
func (c *Configured) PublicConfiguration() map[string]any {
	out := c.Settings.Effective()
	for k, v := range out {
		if c.Descriptor.IsSecret(k) {
			if s, ok := v.(string); ok && s != "" {
				out[k] = maskSecret(s)
			}
		}
	}
	return out
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
