package services

import (
	"codereview-backend/internal/integrations"
	api_models "codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestConfiguredIntegrationService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()

	t.Run("global admin creates a global configuration", func(t *testing.T) {
		resp, err := svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{
			IntegrationID: " fake ",
			Description:   "  team notifications ",
			Enabled:       true,
			Configuration: map[string]any{"token": "abcdefgh"},
		})
		require.NoError(t, err)
		assert.Equal(t, "fake", resp.IntegrationID)
		assert.Equal(t, "Fake fake", resp.Name)
		assert.Equal(t, "team notifications", resp.Description)
		assert.True(t, resp.Enabled)
		assert.True(t, resp.Running)
		assert.Nil(t, resp.LocalSiteID)
		assert.Equal(t, "abcd****", resp.Configuration["token"])
		assert.Equal(t, "hello", resp.Configuration["greeting"])
		assert.Equal(t, ConfigureLink(mustEntry(t, f, resp.ID)), resp.Links.Configure)
		assert.Empty(t, resp.Warning)
	})

	t.Run("non admin is rejected", func(t *testing.T) {
		_, err := svc.CreateConfiguredIntegration(ctx, globalUser(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake"})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("local admin is forced into own site", func(t *testing.T) {
		resp, err := svc.CreateConfiguredIntegration(ctx, siteMember(f.site, true), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake"})
		require.NoError(t, err)
		require.NotNil(t, resp.LocalSiteID)
		assert.Equal(t, f.site, *resp.LocalSiteID)

		_, err = svc.CreateConfiguredIntegration(ctx, siteMember(f.site, true), api_models.CreateConfiguredIntegrationRequest{
			IntegrationID: "fake",
			LocalSiteID:   &f.other,
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("validation failures", func(t *testing.T) {
		_, err := svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "  "})
		assert.ErrorIs(t, err, ErrConfigValidation)

		_, err = svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "missing"})
		assert.ErrorIs(t, err, ErrConfigValidation)

		_, err = svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{
			IntegrationID: "fake",
			Configuration: map[string]any{"token": ""},
		})
		assert.ErrorIs(t, err, ErrConfigValidation)

		_, err = svc.CreateConfiguredIntegration(ctx, siteMember(f.site, true), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "global-only"})
		assert.ErrorIs(t, err, ErrConfigValidation)

		unknownSite := f.site
		unknownSite[0] ^= 0xff
		_, err = svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{
			IntegrationID: "fake",
			LocalSiteID:   &unknownSite,
		})
		assert.ErrorIs(t, err, ErrConfigValidation)
	})

	t.Run("initialize failure is a warning", func(t *testing.T) {
		f.fake.SetFailInitialize(true)
		defer f.fake.SetFailInitialize(false)

		resp, err := svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{
			IntegrationID: "fake",
			Enabled:       true,
		})
		require.NoError(t, err)
		assert.True(t, resp.Enabled)
		assert.False(t, resp.Running)
		assert.NotEmpty(t, resp.Warning)
	})
}

func mustEntry(t *testing.T, f *fixture, id int64) *integrations.Configured {
	t.Helper()
	entry, err := f.manager.GetConfigInstance(id)
	require.NoError(t, err)
	return entry
}

func TestConfiguredIntegrationService_AccessRules(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()

	global, err := svc.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake"})
	require.NoError(t, err)
	local, err := svc.CreateConfiguredIntegration(ctx, siteMember(f.site, true), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake"})
	require.NoError(t, err)

	t.Run("list filters by scope", func(t *testing.T) {
		all, err := svc.ListConfiguredIntegrations(ctx, globalAdmin(), "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mine, err := svc.ListConfiguredIntegrations(ctx, siteMember(f.site, false), "")
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		others, err := svc.ListConfiguredIntegrations(ctx, siteMember(f.other, false), "")
		require.NoError(t, err)
		require.Len(t, others, 1)
		assert.Equal(t, global.ID, others[0].ID)

		plain, err := svc.ListConfiguredIntegrations(ctx, globalUser(), "")
		require.NoError(t, err)
		assert.Len(t, plain, 1)

		none, err := svc.ListConfiguredIntegrations(ctx, globalAdmin(), "plain")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("get", func(t *testing.T) {
		_, err := svc.GetConfiguredIntegration(ctx, siteMember(f.other, true), local.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		resp, err := svc.GetConfiguredIntegration(ctx, siteMember(f.site, false), local.ID)
		require.NoError(t, err)
		assert.Equal(t, local.ID, resp.ID)

		_, err = svc.GetConfiguredIntegration(ctx, globalAdmin(), 9999)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("mutations", func(t *testing.T) {
		req := api_models.UpdateConfiguredIntegrationRequest{Enabled: boolPtr(true)}

		_, err := svc.UpdateConfiguredIntegration(ctx, siteMember(f.site, false), local.ID, req)
		assert.ErrorIs(t, err, ErrPermissionDenied, "members cannot mutate")

		_, err = svc.UpdateConfiguredIntegration(ctx, siteMember(f.site, true), global.ID, req)
		assert.ErrorIs(t, err, ErrPermissionDenied, "local admins cannot mutate global configurations")

		resp, err := svc.UpdateConfiguredIntegration(ctx, siteMember(f.site, true), local.ID, req)
		require.NoError(t, err)
		assert.True(t, resp.Running)

		resp, err = svc.UpdateConfiguredIntegration(ctx, globalAdmin(), local.ID, api_models.UpdateConfiguredIntegrationRequest{Enabled: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, resp.Running)

		assert.ErrorIs(t, svc.DeleteConfiguredIntegration(ctx, siteMember(f.other, true), local.ID), ErrPermissionDenied)
	})
}

func TestConfiguredIntegrationService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()
	admin := globalAdmin()

	created, err := svc.CreateConfiguredIntegration(ctx, admin, api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake"})
	require.NoError(t, err)
	assert.False(t, created.Running)

	_, err = svc.UpdateConfiguredIntegration(ctx, admin, created.ID, api_models.UpdateConfiguredIntegrationRequest{})
	assert.ErrorIs(t, err, ErrConfigValidation)

	resp, err := svc.UpdateConfiguredIntegration(ctx, admin, created.ID, api_models.UpdateConfiguredIntegrationRequest{
		Enabled:       boolPtr(true),
		Description:   strPtr(" renamed "),
		Configuration: map[string]any{"greeting": "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", resp.Description)
	assert.Equal(t, "hi", resp.Configuration["greeting"])
	assert.True(t, resp.Enabled)
	assert.True(t, resp.Running)

	row, err := f.store.GetConfiguredIntegrationByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, row.IsEnabled)
	assert.Equal(t, "renamed", row.Description)

	_, err = svc.UpdateConfiguredIntegration(ctx, admin, created.ID, api_models.UpdateConfiguredIntegrationRequest{
		Enabled:       boolPtr(true),
		Configuration: map[string]any{"token": false},
	})
	assert.ErrorIs(t, err, ErrConfigValidation)

	_, err = svc.UpdateConfiguredIntegration(ctx, admin, 4242, api_models.UpdateConfiguredIntegrationRequest{Enabled: boolPtr(true)})
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestConfiguredIntegrationService_UpdateRowDeletedElsewhere(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()
	admin := globalAdmin()

	for _, req := range []api_models.UpdateConfiguredIntegrationRequest{
		{Enabled: boolPtr(true), Configuration: map[string]any{"token": "rotated"}},
		{Enabled: boolPtr(false)},
	} {
		created, err := svc.CreateConfiguredIntegration(ctx, admin, api_models.CreateConfiguredIntegrationRequest{
			IntegrationID: "fake",
			Enabled:       true,
		})
		require.NoError(t, err)
		require.NoError(t, f.store.DeleteConfiguredIntegration(ctx, created.ID))

		_, err = svc.UpdateConfiguredIntegration(ctx, admin, created.ID, req)
		require.ErrorIs(t, err, ErrConfigNotFound)

		_, err = svc.GetConfiguredIntegration(ctx, admin, created.ID)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	}
}

func TestConfiguredIntegrationService_UpdateSyncsRunningStateOnce(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()
	admin := globalAdmin()

	created, err := svc.CreateConfiguredIntegration(ctx, admin, api_models.CreateConfiguredIntegrationRequest{
		IntegrationID: "fake",
		Enabled:       true,
		Configuration: map[string]any{"token": "abcdefgh"},
	})
	require.NoError(t, err)
	built := len(f.fake.Instances())

	resp, err := svc.UpdateConfiguredIntegration(ctx, admin, created.ID, api_models.UpdateConfiguredIntegrationRequest{
		Enabled:       boolPtr(true),
		Configuration: map[string]any{"greeting": "hi"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Running)
	assert.Len(t, f.fake.Instances(), built+1)
	initCalls, _ := f.fake.Last().Calls()
	assert.Equal(t, 1, initCalls)

	// Sending back the masked configuration keeps the stored secret.
	assert.Equal(t, "abcd****", resp.Configuration["token"])
	resp.Configuration["greeting"] = "hey"
	resp, err = svc.UpdateConfiguredIntegration(ctx, admin, created.ID, api_models.UpdateConfiguredIntegrationRequest{
		Enabled:       boolPtr(true),
		Configuration: resp.Configuration,
	})
	require.NoError(t, err)
	assert.Equal(t, "hey", resp.Configuration["greeting"])

	row, err := f.store.GetConfiguredIntegrationByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", row.Configuration["token"])
}

func TestConfiguredIntegrationService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()
	admin := globalAdmin()

	created, err := svc.CreateConfiguredIntegration(ctx, admin, api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake", Enabled: true})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConfiguredIntegration(ctx, admin, created.ID))
	assert.False(t, f.fake.Last().IsRunning())

	_, err = f.store.GetConfiguredIntegrationByID(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteConfiguredIntegration(ctx, admin, created.ID), ErrConfigNotFound)
}

func TestConfiguredIntegrationService_Test(t *testing.T) {
	f := newFixture(t)
	svc := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	ctx := context.Background()
	admin := globalAdmin()

	fake, err := svc.CreateConfiguredIntegration(ctx, admin, api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake"})
	require.NoError(t, err)
	plain, err := svc.CreateConfiguredIntegration(ctx, admin, api_models.CreateConfiguredIntegrationRequest{IntegrationID: "plain"})
	require.NoError(t, err)

	result, err := svc.TestConfiguredIntegration(ctx, admin, fake.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "fake connection ok", result.Message)

	_, err = svc.TestConfiguredIntegration(ctx, admin, plain.ID)
	assert.ErrorIs(t, err, ErrTestNotSupported)

	_, err = svc.TestConfiguredIntegration(ctx, globalUser(), fake.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
