package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID  `db:"id"`
	LocalSiteID    *uuid.UUID `db:"local_site_id"` // nil for users of the global site
	Email          string     `db:"email"`
	HashedPassword string     `db:"hashed_password"`
	IsAdmin        bool       `db:"is_admin"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// LocalSite is an organizational partition of the server. Resources scoped to a
// local site are only visible to its members.
type LocalSite struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ConfiguredIntegration is one persisted, possibly enabled, instance of an
// integration. Several rows may share the same IntegrationID.
type ConfiguredIntegration struct {
	ID            int64          `db:"id"`
	IntegrationID string         `db:"integration_id"` // Not enforced by the store
	Description   string         `db:"description"`
	IsEnabled     bool           `db:"is_enabled"`
	Configuration map[string]any `db:"configuration"` // Stored as JSONB
	LocalSiteID   *uuid.UUID     `db:"local_site_id"` // nil means global
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// IsGlobal reports whether the configuration applies to the whole server.
func (c *ConfiguredIntegration) IsGlobal() bool {
	return c.LocalSiteID == nil
}

// Clone returns a copy that shares no mutable state with c.
func (c *ConfiguredIntegration) Clone() *ConfiguredIntegration {
	if c == nil {
		return nil
	}
	out := *c
	if c.Configuration != nil {
		out.Configuration = make(map[string]any, len(c.Configuration))
		for k, v := range c.Configuration {
			out.Configuration[k] = v
		}
	}
	if c.LocalSiteID != nil {
		id := *c.LocalSiteID
		out.LocalSiteID = &id
	}
	return &out
}
