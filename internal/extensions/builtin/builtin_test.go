package builtin

import (
	"codereview-backend/internal/hooks"
	"codereview-backend/internal/integrations"
	"codereview-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource []*integrations.Configured

func (s staticSource) GetConfigInstances(string) []*integrations.Configured { return s }

func TestLoad_RegistersAndUnregisters(t *testing.T) {
	logger := zap.NewNop()
	integrationRegistry := integrations.NewRegistry(logger)
	reg := hooks.NewRegistry(integrationRegistry, logger)

	ext, err := Load(reg, logger)
	require.NoError(t, err)

	_, ok := integrationRegistry.Resolve(integrations.SlackIntegrationID)
	assert.True(t, ok)
	_, ok = integrationRegistry.Resolve(integrations.NotionIntegrationID)
	assert.True(t, ok)
	assert.Contains(t, reg.Capabilities.RegisteredIDs(), ExtensionID)

	nav, err := hooks.NewRenderer(reg, logger).RenderHTML(hooks.NavigationBarPoint, hooks.RenderContext{})
	require.NoError(t, err)
	assert.Contains(t, string(nav), `href="/admin/integrations/"`)

	require.NoError(t, ext.Shutdown())
	assert.Empty(t, integrationRegistry.List())
	assert.NotContains(t, reg.Capabilities.RegisteredIDs(), ExtensionID)
	assert.Equal(t, 0, reg.NavigationBar.Len())
}

func TestLoad_RollsBackOnConflict(t *testing.T) {
	logger := zap.NewNop()
	integrationRegistry := integrations.NewRegistry(logger)
	require.NoError(t, integrationRegistry.Register("notion", &integrations.Descriptor{ID: "notion"}))
	reg := hooks.NewRegistry(integrationRegistry, logger)

	_, err := Load(reg, logger)
	require.ErrorIs(t, err, integrations.ErrDuplicateRegistration)

	_, ok := integrationRegistry.Resolve(integrations.SlackIntegrationID)
	assert.False(t, ok, "slack was registered before the conflict and must be rolled back")
	_, ok = integrationRegistry.Resolve("notion")
	assert.True(t, ok)
}

func TestRegisterStatusWidget(t *testing.T) {
	logger := zap.NewNop()
	reg := hooks.NewRegistry(integrations.NewRegistry(logger), logger)
	ext := hooks.NewExtension(ExtensionID, logger)

	source := staticSource{{
		Config:     &models.ConfiguredIntegration{ID: 1, Description: "Team <alerts>", IsEnabled: true},
		Descriptor: integrations.SlackDescriptor(),
		Settings:   integrations.NewSettings(nil, nil),
	}}
	require.NoError(t, RegisterStatusWidget(ext, reg, source))

	html, err := hooks.NewRenderer(reg, logger).RenderHTML(hooks.PrimaryWidgetsPoint, hooks.RenderContext{})
	require.NoError(t, err)
	assert.Contains(t, string(html), "<td>Slack</td>")
	assert.Contains(t, string(html), "Team &lt;alerts&gt;")
	assert.Contains(t, string(html), "failed to start")
}
