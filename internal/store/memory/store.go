// Package memory is a process-local implementation of store.Store, used when
// STORE_DRIVER=memory and by tests.
package memory

import (
	db_models "codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ store.Store = (*Store)(nil)

// Store keeps every record in maps guarded by one mutex. Records are cloned
// on the way in and out so callers never share state with the store.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*db_models.User // keyed by lower-cased email
	localSites   map[uuid.UUID]*db_models.LocalSite
	integrations map[int64]*db_models.ConfiguredIntegration
	nextID       int64
	now          func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:        make(map[string]*db_models.User),
		localSites:   make(map[uuid.UUID]*db_models.LocalSite),
		integrations: make(map[int64]*db_models.ConfiguredIntegration),
		now:          time.Now,
	}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *db_models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := s.users[key]; exists {
		return fmt.Errorf("%w: email %s", store.ErrConflict, user.Email)
	}
	if user.LocalSiteID != nil {
		if _, ok := s.localSites[*user.LocalSiteID]; !ok {
			return fmt.Errorf("%w: local site %s", store.ErrNotFound, user.LocalSiteID)
		}
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	s.users[key] = &stored
	return nil
}

func (s *Store) CreateLocalSite(ctx context.Context, site *db_models.LocalSite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.localSites {
		if existing.Name == site.Name {
			return fmt.Errorf("%w: local site %q", store.ErrConflict, site.Name)
		}
	}
	now := s.now()
	site.CreatedAt, site.UpdatedAt = now, now
	stored := *site
	s.localSites[site.ID] = &stored
	return nil
}

func (s *Store) GetLocalSiteByID(ctx context.Context, id uuid.UUID) (*db_models.LocalSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.localSites[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *site
	return &out, nil
}

func (s *Store) CreateConfiguredIntegration(ctx context.Context, arg store.CreateConfiguredIntegrationParams) (*db_models.ConfiguredIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if arg.LocalSiteID != nil {
		if _, ok := s.localSites[*arg.LocalSiteID]; !ok {
			return nil, fmt.Errorf("%w: local site %s", store.ErrNotFound, arg.LocalSiteID)
		}
	}

	s.nextID++
	now := s.now()
	row := &db_models.ConfiguredIntegration{
		ID:            s.nextID,
		IntegrationID: arg.IntegrationID,
		Description:   arg.Description,
		IsEnabled:     arg.IsEnabled,
		Configuration: arg.Configuration,
		LocalSiteID:   arg.LocalSiteID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if row.Configuration == nil {
		row.Configuration = map[string]any{}
	}
	row = row.Clone()
	s.integrations[row.ID] = row
	return row.Clone(), nil
}

func (s *Store) GetConfiguredIntegrationByID(ctx context.Context, id int64) (*db_models.ConfiguredIntegration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.integrations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *Store) ListConfiguredIntegrations(ctx context.Context, integrationID *string) ([]db_models.ConfiguredIntegration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]db_models.ConfiguredIntegration, 0, len(s.integrations))
	for _, row := range s.integrations {
		if integrationID != nil && row.IntegrationID != *integrationID {
			continue
		}
		out = append(out, *row.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateConfiguredIntegration(ctx context.Context, arg store.UpdateConfiguredIntegrationParams) (*db_models.ConfiguredIntegration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.integrations[arg.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	updated := row.Clone()
	if arg.Description != nil {
		updated.Description = *arg.Description
	}
	if arg.Configuration != nil {
		updated.Configuration = arg.Configuration
		updated = updated.Clone()
	}
	if arg.IsEnabled != nil {
		updated.IsEnabled = *arg.IsEnabled
	}
	updated.UpdatedAt = s.now()
	s.integrations[arg.ID] = updated
	return updated.Clone(), nil
}

func (s *Store) UpdateConfiguredIntegrationEnabled(ctx context.Context, id int64, isEnabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.integrations[id]
	if !ok {
		return store.ErrNotFound
	}
	row.IsEnabled = isEnabled
	row.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteConfiguredIntegration(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.integrations[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.integrations, id)
	return nil
}
