// Package builtin is the extension shipped with the server. It registers the
// bundled integrations and the administration UI entries through hooks, the
// same way third-party extensions do.
package builtin

import (
	"bytes"
	"codereview-backend/internal/hooks"
	"codereview-backend/internal/integrations"
	"fmt"
	"html/template"

	"go.uber.org/zap"
)

// ExtensionID names the built-in extension and its capability set.
const ExtensionID = "codereview.builtin"

// URL names registered for navigation entries.
const (
	URLNameIntegrations = "integration-list"
	URLNameDashboard    = "admin-dashboard"
)

// Load creates the built-in extension and registers its hooks. On failure
// every hook registered so far is shut down again.
func Load(reg *hooks.Registry, logger *zap.Logger) (*hooks.Extension, error) {
	ext := hooks.NewExtension(ExtensionID, logger)

	reg.RegisterURLName(URLNameIntegrations, "/admin/integrations/")
	reg.RegisterURLName(URLNameDashboard, "/admin/")

	if err := register(ext, reg); err != nil {
		if shutdownErr := ext.Shutdown(); shutdownErr != nil {
			logger.Warn("[Builtin] Load: Shutdown after failed load", zap.Error(shutdownErr))
		}
		return nil, err
	}
	logger.Info("[Builtin] Load: Extension loaded", zap.Int("hooks", len(ext.Hooks())))
	return ext, nil
}

func register(ext *hooks.Extension, reg *hooks.Registry) error {
	for _, d := range []*integrations.Descriptor{integrations.SlackDescriptor(), integrations.NotionDescriptor()} {
		if _, err := hooks.NewIntegrationHook(ext, reg, d); err != nil {
			return fmt.Errorf("failed to register integration %q: %w", d.ID, err)
		}
	}

	if _, err := hooks.NewNavigationBarHook(ext, reg, []hooks.NavigationItem{
		{Label: "Integrations", URLName: URLNameIntegrations},
	}); err != nil {
		return err
	}

	if _, err := hooks.NewDropdownActionHook(ext, reg, hooks.HeaderDropdownActionsPoint, hooks.StaticDropdowns(hooks.DropdownAction{
		ID:    "admin-menu",
		Label: "Admin",
		Items: []hooks.Action{
			{ID: "admin-dashboard", Label: "Dashboard", URL: "/admin/"},
			{ID: "admin-integrations", Label: "Integrations", URL: "/admin/integrations/"},
		},
	})); err != nil {
		return err
	}

	if _, err := hooks.NewWebAPICapabilitiesHook(ext, reg, map[string]any{
		"integrations": map[string]any{
			"configurable":     true,
			"local_scoping":    true,
			"review_events":    true,
			"connection_tests": true,
		},
	}); err != nil {
		return err
	}
	return nil
}

// StatusSource lists the configured integrations.
type StatusSource interface {
	GetConfigInstances(integrationID string) []*integrations.Configured
}

var statusTemplate = template.Must(template.New("status").Parse(
	`<table class="integration-status">{{range .}}<tr><td>{{.Descriptor.Name}}</td><td>{{.Config.Description}}</td><td>{{if .IsRunning}}running{{else if .IsEnabled}}failed to start{{else}}disabled{{end}}</td></tr>{{else}}<tr><td>No integrations configured.</td></tr>{{end}}</table>`))

// RegisterStatusWidget adds the integration status box to the dashboard.
func RegisterStatusWidget(ext *hooks.Extension, reg *hooks.Registry, source StatusSource) error {
	_, err := hooks.NewAdminWidgetHook(ext, reg, hooks.AdminWidget{
		ID:    "integration-status",
		Title: "Integrations",
		Body: func(hooks.RenderContext) (template.HTML, error) {
			var buf bytes.Buffer
			if err := statusTemplate.Execute(&buf, source.GetConfigInstances("")); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil
		},
	}, true)
	return err
}
