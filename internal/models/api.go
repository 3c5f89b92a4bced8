package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	LocalSite *string `json:"local_site,omitempty"` // Creates a new local site administered by the user
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Avoid returning sensitive info like HashedPassword.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	LocalSiteID *uuid.UUID `json:"local_site_id,omitempty"`
	IsAdmin     bool       `json:"is_admin"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Integration DTOs ---

// IntegrationResponse describes a registered integration type.
type IntegrationResponse struct {
	IntegrationID        string         `json:"integration_id"`
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	IconPath             string         `json:"icon_path"`
	NewLink              string         `json:"new_link"`
	AllowsLocalScoping   bool           `json:"allows_local_scoping"`
	SupportsRepositories bool           `json:"supports_repositories"`
	NeedsAuthentication  bool           `json:"needs_authentication"`
	DefaultConfiguration map[string]any `json:"default_configuration"`
}

// --- Configured Integration DTOs ---

// CreateConfiguredIntegrationRequest defines the body for creating a configured integration.
type CreateConfiguredIntegrationRequest struct {
	IntegrationID string         `json:"integration_id"`
	Description   string         `json:"description,omitempty"`
	Enabled       bool           `json:"enabled"`
	Configuration map[string]any `json:"configuration,omitempty"`
	LocalSiteID   *uuid.UUID     `json:"local_site_id,omitempty"`
}

// UpdateConfiguredIntegrationRequest defines the body for PUT on a configured integration.
// Enabled is required; the other fields are only applied when present.
// Configuration keys are merged over the stored settings and null removes a key.
type UpdateConfiguredIntegrationRequest struct {
	Enabled       *bool          `json:"enabled"`
	Description   *string        `json:"description,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// ConfiguredIntegrationLinks holds the related page links of a configured integration.
type ConfiguredIntegrationLinks struct {
	Configure string `json:"configure"`
}

// ConfiguredIntegrationResponse defines the data returned for a configured integration.
type ConfiguredIntegrationResponse struct {
	ID            int64                      `json:"id"`
	IntegrationID string                     `json:"integration_id"`
	Name          string                     `json:"name"`
	Description   string                     `json:"description"`
	IconPath      string                     `json:"icon_path"`
	Enabled       bool                       `json:"enabled"`
	Running       bool                       `json:"running"`
	Configuration map[string]any             `json:"configuration"`
	LocalSiteID   *uuid.UUID                 `json:"local_site_id,omitempty"`
	Links         ConfiguredIntegrationLinks `json:"links"`
	Warning       string                     `json:"warning,omitempty"` // Set when the change was saved but the integration failed to start
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// TestConnectionResponse defines the response for testing a configured integration.
type TestConnectionResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Review Event DTOs ---

// ReviewEventRequest is the body of POST /v1/review-events.
type ReviewEventRequest struct {
	Type          string     `json:"type"` // e.g. "review_request_published"
	ReviewRequest int64      `json:"review_request_id"`
	Summary       string     `json:"summary"`
	URL           string     `json:"url"`
	Actor         string     `json:"actor"`
	LocalSiteID   *uuid.UUID `json:"local_site_id,omitempty"`
}

// ReviewEventDelivery reports the outcome of delivering one event to one integration.
type ReviewEventDelivery struct {
	ConfigID      int64  `json:"config_id"`
	IntegrationID string `json:"integration_id"`
	Delivered     bool   `json:"delivered"`
	Error         string `json:"error,omitempty"`
}

// ReviewEventResponse is returned after dispatching a review event.
type ReviewEventResponse struct {
	Deliveries []ReviewEventDelivery `json:"deliveries"`
}

// --- Hook DTOs ---

// HookPointResponse is the rendered output of a hook insertion point.
type HookPointResponse struct {
	Point     string   `json:"point"`
	Fragments []string `json:"fragments"`
	HTML      string   `json:"html"`
}
