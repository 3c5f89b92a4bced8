package services

import (
	"codereview-backend/internal/hooks"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIntegrationService_ListIntegrations(t *testing.T) {
	f := newFixture(t)
	hookRegistry := hooks.NewRegistry(f.registry, zap.NewNop())
	svc := NewIntegrationService(f.registry, hookRegistry, hooks.NewRenderer(hookRegistry, zap.NewNop()))

	list := svc.ListIntegrations()
	require.Len(t, list, 3)
	assert.Equal(t, "fake", list[0].IntegrationID)
	assert.Equal(t, "/admin/integrations/fake/add/", list[0].NewLink)
	assert.True(t, list[0].AllowsLocalScoping)
	assert.Equal(t, "hello", list[0].DefaultConfiguration["greeting"])

	list[0].DefaultConfiguration["greeting"] = "mutated"
	desc, _ := f.registry.Resolve("fake")
	assert.Equal(t, "hello", desc.DefaultConfiguration["greeting"])
}

func TestIntegrationService_RenderHookPoint(t *testing.T) {
	f := newFixture(t)
	logger := zap.NewNop()
	hookRegistry := hooks.NewRegistry(f.registry, logger)
	svc := NewIntegrationService(f.registry, hookRegistry, hooks.NewRenderer(hookRegistry, logger))

	ext := hooks.NewExtension("sample", logger)
	_, err := hooks.NewNavigationBarHook(ext, hookRegistry, []hooks.NavigationItem{{Label: "Dashboard", URL: "/dashboard/"}})
	require.NoError(t, err)
	_, err = hooks.NewActionHook(ext, hookRegistry, hooks.ReviewRequestActionsPoint, func(hooks.RenderContext) ([]hooks.Action, error) {
		return nil, errors.New("broken extension")
	})
	require.NoError(t, err)
	defer func() { _ = ext.Shutdown() }()

	resp, err := svc.RenderHookPoint(hooks.NavigationBarPoint, hooks.RenderContext{})
	require.NoError(t, err)
	require.Len(t, resp.Fragments, 1)
	assert.Contains(t, resp.HTML, `href="/dashboard/"`)

	resp, err = svc.RenderHookPoint(hooks.ReviewRequestActionsPoint, hooks.RenderContext{})
	require.NoError(t, err)
	assert.Empty(t, resp.Fragments)

	_, err = svc.RenderHookPoint("no-such-point", hooks.RenderContext{})
	assert.ErrorIs(t, err, ErrHookPointNotFound)

	_, err = svc.RenderHookPoint(hooks.CommentDetailPoint, hooks.RenderContext{})
	assert.ErrorIs(t, err, ErrValidation)
}
