package services

import (
	"codereview-backend/internal/auth"
	"codereview-backend/internal/integrations"
	"codereview-backend/internal/integrations/integrationstest"
	db_models "codereview-backend/internal/models"
	"codereview-backend/internal/store/memory"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// plainIntegration supports neither connection tests nor notifications.
type plainIntegration struct{ running bool }

func (p *plainIntegration) Initialize(ctx context.Context) error { p.running = true; return nil }
func (p *plainIntegration) Shutdown(ctx context.Context) error   { p.running = false; return nil }
func (p *plainIntegration) IsRunning() bool                      { return p.running }

type fixture struct {
	store    *memory.Store
	registry *integrations.Registry
	manager  *integrations.Manager
	fake     *integrationstest.Recorder
	site     uuid.UUID
	other    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	st := memory.New()
	site := uuid.New()
	other := uuid.New()
	require.NoError(t, st.CreateLocalSite(ctx, &db_models.LocalSite{ID: site, Name: "team-a"}))
	require.NoError(t, st.CreateLocalSite(ctx, &db_models.LocalSite{ID: other, Name: "team-b"}))

	registry := integrations.NewRegistry(logger)
	desc, rec := integrationstest.NewDescriptor("fake")
	require.NoError(t, registry.Register("fake", desc))
	require.NoError(t, registry.Register("plain", &integrations.Descriptor{
		ID:   "plain",
		Name: "Plain",
		New: func(*integrations.Settings, *zap.Logger) integrations.Integration {
			return &plainIntegration{}
		},
	}))
	require.NoError(t, registry.Register("global-only", &integrations.Descriptor{ID: "global-only", Name: "Global only"}))

	manager, err := integrations.NewManager(ctx, registry, st, logger)
	require.NoError(t, err)

	return &fixture{store: st, registry: registry, manager: manager, fake: rec, site: site, other: other}
}

func globalAdmin() auth.Principal {
	return auth.Principal{UserID: uuid.New(), IsAdmin: true}
}

func globalUser() auth.Principal {
	return auth.Principal{UserID: uuid.New()}
}

func siteMember(site uuid.UUID, admin bool) auth.Principal {
	id := site
	return auth.Principal{UserID: uuid.New(), LocalSiteID: &id, IsAdmin: admin}
}
