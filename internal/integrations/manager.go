package integrations

import (
	"codereview-backend/internal/metrics"
	"codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Manager caches the configured integrations by configuration ID and keeps
// the cache, the persisted rows, and each instance's running state in sync.
//
// Between loads the cache is the source of truth: lookups never fall through
// to the store. Concurrent writers to the same row still race at the store
// (last write wins); the mutex only protects the in-memory map.
type Manager struct {
	mu       sync.RWMutex
	registry *Registry
	store    store.ConfiguredIntegrationStore
	logger   *zap.Logger
	configs  map[int64]*Configured
}

// NewManager creates a manager and loads every persisted configuration.
func NewManager(ctx context.Context, registry *Registry, s store.ConfiguredIntegrationStore, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		registry: registry,
		store:    s,
		logger:   logger,
		configs:  make(map[int64]*Configured),
	}
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	registry.OnUnregister(m.stopIntegration)
	return m, nil
}

// Load adds every persisted row that is not cached yet. Existing cache entries
// are left untouched.
func (m *Manager) Load(ctx context.Context) error {
	rows, err := m.store.ListConfiguredIntegrations(ctx, nil)
	if err != nil {
		m.logger.Error("[IntegrationManager] Load: Store call failed", zap.Error(err))
		return fmt.Errorf("failed to load configured integrations: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for i := range rows {
		row := rows[i]
		if _, exists := m.configs[row.ID]; exists {
			continue
		}
		_, err := m.registerLocked(ctx, &row, false)
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrUnknownIntegration):
			m.logger.Warn("[IntegrationManager] Load: Skipping configuration of unknown integration",
				zap.Int64("config_id", row.ID), zap.String("integration_id", row.IntegrationID))
		case errors.Is(err, ErrInitializeFailed):
			added++
			m.logger.Error("[IntegrationManager] Load: Configuration cached but not running",
				zap.Int64("config_id", row.ID), zap.Error(err))
		default:
			return err
		}
	}
	m.logger.Info("[IntegrationManager] Load: Configurations loaded", zap.Int("added", added), zap.Int("cached", len(m.configs)))
	return nil
}

// RegisterConfig caches cfg under its ID and synchronizes the running state
// of its integration with cfg.IsEnabled.
func (m *Manager) RegisterConfig(ctx context.Context, cfg *models.ConfiguredIntegration, reregister bool) (*Configured, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, err := m.registerLocked(ctx, cfg, reregister)
	metrics.ConfigOperations.WithLabelValues("register", metrics.Result(err)).Inc()
	return entry, err
}

// ReloadConfig upserts cfg into the cache and re-synchronizes its running state.
// This is the common path after any settings mutation.
func (m *Manager) ReloadConfig(ctx context.Context, cfg *models.ConfiguredIntegration) (*Configured, error) {
	return m.RegisterConfig(ctx, cfg, true)
}

// UnregisterConfig shuts the instance down and drops it from the cache. The
// persisted row is not touched.
func (m *Manager) UnregisterConfig(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.configs[id]
	if !ok {
		return fmt.Errorf("%w: configuration %d", ErrNotRegistered, id)
	}
	m.shutdownEntry(ctx, entry)
	delete(m.configs, id)
	metrics.ConfigOperations.WithLabelValues("unregister", "ok").Inc()
	m.logger.Info("[IntegrationManager] UnregisterConfig: Configuration unregistered", zap.Int64("config_id", id))
	return nil
}

// EnableConfig persists is_enabled=true and initializes the integration.
func (m *Manager) EnableConfig(ctx context.Context, id int64) (*Configured, error) {
	return m.toggleConfig(ctx, id, true)
}

// DisableConfig persists is_enabled=false and shuts the integration down.
func (m *Manager) DisableConfig(ctx context.Context, id int64) (*Configured, error) {
	return m.toggleConfig(ctx, id, false)
}

// CreateConfig persists a new configuration and registers it.
func (m *Manager) CreateConfig(ctx context.Context, arg store.CreateConfiguredIntegrationParams) (*Configured, error) {
	desc, ok := m.registry.Resolve(arg.IntegrationID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegration, arg.IntegrationID)
	}
	if arg.LocalSiteID != nil && !desc.AllowsLocalScoping {
		return nil, fmt.Errorf("%w: %q cannot be scoped to a local site", ErrInvalidConfiguration, arg.IntegrationID)
	}
	if err := validateConfiguration(desc, arg.Configuration); err != nil {
		return nil, err
	}
	if arg.Configuration == nil {
		arg.Configuration = map[string]any{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row, err := m.store.CreateConfiguredIntegration(ctx, arg)
	if err != nil {
		m.logger.Error("[IntegrationManager] CreateConfig: Store call failed",
			zap.String("integration_id", arg.IntegrationID), zap.Error(err))
		metrics.ConfigOperations.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("failed to save configured integration: %w", err)
	}

	entry, err := m.registerLocked(ctx, row, true)
	metrics.ConfigOperations.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return entry, err
	}
	m.logger.Info("[IntegrationManager] CreateConfig: Configuration created",
		zap.Int64("config_id", row.ID), zap.String("integration_id", row.IntegrationID), zap.Bool("enabled", row.IsEnabled))
	return entry, nil
}

// UpdateConfig persists a new description, configuration or enabled flag for
// a cached configuration and reloads it once. Configuration keys are merged
// over the stored settings.
func (m *Manager) UpdateConfig(ctx context.Context, arg store.UpdateConfiguredIntegrationParams) (*Configured, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.configs[arg.ID]
	if !ok {
		return nil, fmt.Errorf("%w: configuration %d", ErrNotRegistered, arg.ID)
	}
	if arg.Configuration != nil {
		arg.Configuration = mergeConfiguration(entry.Descriptor, entry.Config.Configuration, arg.Configuration)
		if err := validateConfiguration(entry.Descriptor, arg.Configuration); err != nil {
			return nil, err
		}
	}

	row, err := m.store.UpdateConfiguredIntegration(ctx, arg)
	if errors.Is(err, store.ErrNotFound) {
		return nil, m.dropStaleLocked(ctx, entry, "update")
	}
	if err != nil {
		m.logger.Error("[IntegrationManager] UpdateConfig: Store call failed", zap.Int64("config_id", arg.ID), zap.Error(err))
		metrics.ConfigOperations.WithLabelValues("update", "error").Inc()
		return nil, fmt.Errorf("failed to update configured integration: %w", err)
	}

	entry, err = m.registerLocked(ctx, row, true)
	metrics.ConfigOperations.WithLabelValues("update", metrics.Result(err)).Inc()
	return entry, err
}

// DeleteConfig shuts the instance down, deletes the persisted row and drops
// the cache entry.
func (m *Manager) DeleteConfig(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.configs[id]
	if !ok {
		return fmt.Errorf("%w: configuration %d", ErrNotRegistered, id)
	}

	m.shutdownEntry(ctx, entry)

	if err := m.store.DeleteConfiguredIntegration(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Error("[IntegrationManager] DeleteConfig: Store call failed", zap.Int64("config_id", id), zap.Error(err))
		metrics.ConfigOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("failed to delete configured integration: %w", err)
	}

	delete(m.configs, id)
	metrics.ConfigOperations.WithLabelValues("delete", "ok").Inc()
	m.logger.Info("[IntegrationManager] DeleteConfig: Configuration deleted", zap.Int64("config_id", id))
	return nil
}

// GetConfigInstances returns a snapshot of the cached configurations, sorted by
// ID. A non-empty integrationID keeps only configurations of that integration.
func (m *Manager) GetConfigInstances(integrationID string) []*Configured {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Configured, 0, len(m.configs))
	for _, entry := range m.configs {
		if integrationID != "" && entry.Config.IntegrationID != integrationID {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// GetConfigInstance returns the cached configuration with the given ID.
func (m *Manager) GetConfigInstance(id int64) (*Configured, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: configuration %d", ErrNotRegistered, id)
	}
	return entry, nil
}

// Shutdown stops every running integration. The cache is kept.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.configs {
		m.shutdownEntry(ctx, entry)
	}
	m.logger.Info("[IntegrationManager] Shutdown: All integrations stopped")
}

func (m *Manager) toggleConfig(ctx context.Context, id int64, enabled bool) (*Configured, error) {
	op := "disable"
	if enabled {
		op = "enable"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: configuration %d", ErrNotRegistered, id)
	}

	err := m.store.UpdateConfiguredIntegrationEnabled(ctx, id, enabled)
	if errors.Is(err, store.ErrNotFound) {
		return nil, m.dropStaleLocked(ctx, entry, op)
	}
	if err != nil {
		m.logger.Error("[IntegrationManager] toggleConfig: Store call failed",
			zap.Int64("config_id", id), zap.Bool("enabled", enabled), zap.Error(err))
		metrics.ConfigOperations.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("failed to %s configured integration: %w", op, err)
	}

	cfg := entry.Config.Clone()
	cfg.IsEnabled = enabled
	entry, err = m.registerLocked(ctx, cfg, true)
	metrics.ConfigOperations.WithLabelValues(op, metrics.Result(err)).Inc()
	return entry, err
}

// dropStaleLocked forgets a cached entry whose row was deleted behind the
// manager's back and reports it as not registered.
func (m *Manager) dropStaleLocked(ctx context.Context, entry *Configured, op string) error {
	m.shutdownEntry(ctx, entry)
	delete(m.configs, entry.ID())
	metrics.ConfigOperations.WithLabelValues(op, "not_found").Inc()
	m.logger.Warn("[IntegrationManager] Row no longer exists, dropping cached configuration",
		zap.Int64("config_id", entry.ID()), zap.String("operation", op))
	return fmt.Errorf("%w: configuration %d", ErrNotRegistered, entry.ID())
}

// stopIntegration shuts down the running configurations of an integration
// whose descriptor was unregistered. The entries stay cached, not running.
func (m *Manager) stopIntegration(integrationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stopped := 0
	for _, entry := range m.configs {
		if entry.Config.IntegrationID != integrationID || !entry.IsRunning() {
			continue
		}
		m.shutdownEntry(context.Background(), entry)
		stopped++
	}
	if stopped > 0 {
		m.logger.Warn("[IntegrationManager] Integration unregistered, stopped its configurations",
			zap.String("integration_id", integrationID), zap.Int("stopped", stopped))
	}
}

// registerLocked must be called with m.mu held for writing.
func (m *Manager) registerLocked(ctx context.Context, cfg *models.ConfiguredIntegration, reregister bool) (*Configured, error) {
	prev, exists := m.configs[cfg.ID]
	if exists && !reregister {
		return nil, fmt.Errorf("%w: configuration %d", ErrAlreadyRegistered, cfg.ID)
	}

	desc, ok := m.registry.Resolve(cfg.IntegrationID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegration, cfg.IntegrationID)
	}

	row := cfg.Clone()
	settings := NewSettings(row.Configuration, desc.DefaultConfiguration)
	entry := &Configured{
		Config:     row,
		Descriptor: desc,
		Settings:   settings,
	}
	if desc.New != nil {
		entry.Integration = desc.New(settings, m.logger.With(
			zap.String("integration_id", desc.ID), zap.Int64("config_id", row.ID)))
	}

	if exists {
		m.shutdownEntry(ctx, prev)
	}
	m.configs[row.ID] = entry

	return entry, m.syncRunningState(ctx, entry)
}

func (m *Manager) syncRunningState(ctx context.Context, entry *Configured) error {
	if entry.Integration == nil {
		return nil
	}

	if entry.Config.IsEnabled {
		if entry.Integration.IsRunning() {
			return nil
		}
		if err := entry.Integration.Initialize(ctx); err != nil {
			m.logger.Error("[IntegrationManager] Initialize failed",
				zap.Int64("config_id", entry.ID()), zap.String("integration_id", entry.Descriptor.ID), zap.Error(err))
			return fmt.Errorf("%w: configuration %d: %v", ErrInitializeFailed, entry.ID(), err)
		}
		metrics.RunningIntegrations.Inc()
		return nil
	}

	m.shutdownEntry(ctx, entry)
	return nil
}

// shutdownEntry stops the instance. Failures are logged, never returned:
// a shutdown error must not keep a configuration from being disabled or removed.
func (m *Manager) shutdownEntry(ctx context.Context, entry *Configured) {
	if entry.Integration == nil {
		return
	}
	wasRunning := entry.Integration.IsRunning()
	if err := entry.Integration.Shutdown(ctx); err != nil {
		m.logger.Warn("[IntegrationManager] Shutdown failed",
			zap.Int64("config_id", entry.ID()), zap.String("integration_id", entry.Descriptor.ID), zap.Error(err))
	}
	if wasRunning {
		metrics.RunningIntegrations.Dec()
	}
}

// mergeConfiguration overlays incoming keys on the stored settings. A null
// value removes the key. A secret sent back in its masked form keeps the
// stored credential.
func mergeConfiguration(desc *Descriptor, stored, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(stored)+len(incoming))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range incoming {
		if v == nil {
			delete(out, k)
			continue
		}
		if desc.IsSecret(k) {
			submitted, isString := v.(string)
			prev, hadSecret := stored[k].(string)
			if isString && hadSecret && prev != "" && submitted == maskSecret(prev) {
				continue
			}
		}
		out[k] = v
	}
	return out
}

func validateConfiguration(desc *Descriptor, configuration map[string]any) error {
	if desc.ValidateConfig == nil {
		return nil
	}
	if err := desc.ValidateConfig(configuration); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return nil
}
