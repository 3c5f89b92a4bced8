package services

import (
	"codereview-backend/internal/integrations/integrationstest"
	api_models "codereview-backend/internal/models"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotificationService_Dispatch(t *testing.T) {
	f := newFixture(t)
	configs := NewConfiguredIntegrationService(f.manager, f.store, zap.NewNop())
	svc := NewNotificationService(f.manager, zap.NewNop())
	ctx := context.Background()

	global, err := configs.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake", Enabled: true})
	require.NoError(t, err)
	globalFake := f.fake.Last()
	local, err := configs.CreateConfiguredIntegration(ctx, siteMember(f.site, true), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake", Enabled: true})
	require.NoError(t, err)
	localFake := f.fake.Last()
	_, err = configs.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "fake", Enabled: false})
	require.NoError(t, err)
	_, err = configs.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: "plain", Enabled: true})
	require.NoError(t, err)

	t.Run("global event reaches only global notifiers", func(t *testing.T) {
		resp, err := svc.Dispatch(ctx, globalAdmin(), api_models.ReviewEventRequest{Type: "review_published", ReviewRequest: 7, Summary: "Fix"})
		require.NoError(t, err)
		require.Len(t, resp.Deliveries, 1)
		assert.Equal(t, global.ID, resp.Deliveries[0].ConfigID)
		assert.True(t, resp.Deliveries[0].Delivered)

		events := globalFake.Events()
		require.Len(t, events, 1)
		assert.Equal(t, int64(7), events[0].ReviewRequest)
		assert.Empty(t, localFake.Events())
	})

	t.Run("site member events reach their site", func(t *testing.T) {
		resp, err := svc.Dispatch(ctx, siteMember(f.site, false), api_models.ReviewEventRequest{Type: "review_request_published"})
		require.NoError(t, err)
		require.Len(t, resp.Deliveries, 2)
		assert.Equal(t, global.ID, resp.Deliveries[0].ConfigID)
		assert.Equal(t, local.ID, resp.Deliveries[1].ConfigID)
		assert.Len(t, localFake.Events(), 1)
	})

	t.Run("other site is denied", func(t *testing.T) {
		_, err := svc.Dispatch(ctx, siteMember(f.other, true), api_models.ReviewEventRequest{Type: "x", LocalSiteID: &f.site})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("type is required", func(t *testing.T) {
		_, err := svc.Dispatch(ctx, globalAdmin(), api_models.ReviewEventRequest{Type: " "})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestNotificationService_DispatchIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger := zap.NewNop()

	failing, failingRec := integrationstest.NewDescriptor("failing")
	failingRec.NotifyErr = errors.New("remote rejected the message")
	require.NoError(t, f.registry.Register("failing", failing))
	panicking, panickingRec := integrationstest.NewDescriptor("panicking")
	panickingRec.NotifyPanic = true
	require.NoError(t, f.registry.Register("panicking", panicking))

	configs := NewConfiguredIntegrationService(f.manager, f.store, logger)
	for _, id := range []string{"fake", "failing", "panicking", "fake"} {
		_, err := configs.CreateConfiguredIntegration(ctx, globalAdmin(), api_models.CreateConfiguredIntegrationRequest{IntegrationID: id, Enabled: true})
		require.NoError(t, err)
	}

	resp, err := NewNotificationService(f.manager, logger).Dispatch(ctx, globalAdmin(), api_models.ReviewEventRequest{Type: "review_published"})
	require.NoError(t, err)
	require.Len(t, resp.Deliveries, 4)

	delivered := []bool{}
	for _, d := range resp.Deliveries {
		delivered = append(delivered, d.Delivered)
	}
	assert.Equal(t, []bool{true, false, false, true}, delivered)
	assert.Contains(t, resp.Deliveries[1].Error, "remote rejected the message")
	assert.Contains(t, resp.Deliveries[2].Error, "panicked")

	for _, fake := range f.fake.Instances() {
		assert.Len(t, fake.Events(), 1)
	}
}
