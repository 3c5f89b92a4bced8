package postgres

import (
	"codereview-backend/internal/crypto"
	db_models "codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// sealedConfiguration is the JSONB shape of an encrypted configuration.
type sealedConfiguration struct {
	Encrypted string `json:"encrypted"` // base64 AES-GCM ciphertext of the configuration JSON
}

const configuredIntegrationColumns = `id, integration_id, description, is_enabled, configuration, local_site_id, created_at, updated_at`

func (s *PostgresStore) encodeConfiguration(configuration map[string]any) ([]byte, error) {
	if configuration == nil {
		configuration = map[string]any{}
	}
	if s.aead == nil {
		return json.Marshal(configuration)
	}
	sealed, err := crypto.SealJSON(s.aead, configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt configuration: %w", err)
	}
	return json.Marshal(sealedConfiguration{Encrypted: sealed})
}

func (s *PostgresStore) decodeConfiguration(raw []byte) (map[string]any, error) {
	configuration := map[string]any{}
	if len(raw) == 0 {
		return configuration, nil
	}
	if err := json.Unmarshal(raw, &configuration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored configuration: %w", err)
	}

	sealed, isSealed := configuration["encrypted"].(string)
	if !isSealed || len(configuration) != 1 {
		return configuration, nil
	}
	if s.aead == nil {
		return nil, errors.New("configuration is encrypted but no encryption key is configured")
	}
	decrypted := map[string]any{}
	if err := crypto.OpenJSON(s.aead, sealed, &decrypted); err != nil {
		return nil, fmt.Errorf("failed to decrypt stored configuration: %w", err)
	}
	return decrypted, nil
}

// scanConfiguredIntegration scans one row selected with configuredIntegrationColumns.
func (s *PostgresStore) scanConfiguredIntegration(row pgx.Row) (*db_models.ConfiguredIntegration, error) {
	ci := &db_models.ConfiguredIntegration{}
	var rawConfiguration []byte
	err := row.Scan(
		&ci.ID,
		&ci.IntegrationID,
		&ci.Description,
		&ci.IsEnabled,
		&rawConfiguration,
		&ci.LocalSiteID,
		&ci.CreatedAt,
		&ci.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ci.Configuration, err = s.decodeConfiguration(rawConfiguration)
	if err != nil {
		return nil, err
	}
	return ci, nil
}

// CreateConfiguredIntegration inserts a new configured integration.
func (s *PostgresStore) CreateConfiguredIntegration(ctx context.Context, arg store.CreateConfiguredIntegrationParams) (*db_models.ConfiguredIntegration, error) {
	configuration, err := s.encodeConfiguration(arg.Configuration)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO configured_integrations (integration_id, description, is_enabled, configuration, local_site_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + configuredIntegrationColumns

	ci, err := s.scanConfiguredIntegration(s.db.QueryRow(ctx, query,
		arg.IntegrationID,
		arg.Description,
		arg.IsEnabled,
		configuration,
		arg.LocalSiteID,
	))
	if err != nil {
		s.logger.Error("[PostgresStore] CreateConfiguredIntegration: Failed to insert",
			zap.String("integration_id", arg.IntegrationID), zap.Error(err))
		return nil, fmt.Errorf("database error creating configured integration: %w", translateError(err))
	}

	s.logger.Debug("[PostgresStore] CreateConfiguredIntegration: Inserted", zap.Int64("config_id", ci.ID))
	return ci, nil
}

// GetConfiguredIntegrationByID retrieves one configured integration.
func (s *PostgresStore) GetConfiguredIntegrationByID(ctx context.Context, id int64) (*db_models.ConfiguredIntegration, error) {
	query := `SELECT ` + configuredIntegrationColumns + ` FROM configured_integrations WHERE id = $1`

	ci, err := s.scanConfiguredIntegration(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("[PostgresStore] GetConfiguredIntegrationByID: Failed query/scan", zap.Int64("config_id", id), zap.Error(err))
		return nil, fmt.Errorf("database error fetching configured integration: %w", err)
	}
	return ci, nil
}

// ListConfiguredIntegrations lists configured integrations, optionally of one integration.
func (s *PostgresStore) ListConfiguredIntegrations(ctx context.Context, integrationID *string) ([]db_models.ConfiguredIntegration, error) {
	query := `SELECT ` + configuredIntegrationColumns + ` FROM configured_integrations`
	args := []any{}
	if integrationID != nil {
		query += ` WHERE integration_id = $1`
		args = append(args, *integrationID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("[PostgresStore] ListConfiguredIntegrations: Failed to query", zap.Error(err))
		return nil, fmt.Errorf("database error listing configured integrations: %w", err)
	}
	defer rows.Close()

	out := []db_models.ConfiguredIntegration{}
	for rows.Next() {
		ci, err := s.scanConfiguredIntegration(rows)
		if err != nil {
			s.logger.Error("[PostgresStore] ListConfiguredIntegrations: Failed to scan row", zap.Error(err))
			return nil, fmt.Errorf("database error scanning configured integration: %w", err)
		}
		out = append(out, *ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating configured integrations: %w", err)
	}
	return out, nil
}

// UpdateConfiguredIntegration updates the description, configuration and enabled flag.
func (s *PostgresStore) UpdateConfiguredIntegration(ctx context.Context, arg store.UpdateConfiguredIntegrationParams) (*db_models.ConfiguredIntegration, error) {
	var configuration []byte
	if arg.Configuration != nil {
		var err error
		configuration, err = s.encodeConfiguration(arg.Configuration)
		if err != nil {
			return nil, err
		}
	}

	// COALESCE keeps the stored value for fields not being updated.
	query := `
		UPDATE configured_integrations
		SET description = COALESCE($2, description),
		    configuration = COALESCE($3::jsonb, configuration),
		    is_enabled = COALESCE($4, is_enabled),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + configuredIntegrationColumns

	ci, err := s.scanConfiguredIntegration(s.db.QueryRow(ctx, query, arg.ID, arg.Description, configuration, arg.IsEnabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("[PostgresStore] UpdateConfiguredIntegration: Failed to update", zap.Int64("config_id", arg.ID), zap.Error(err))
		return nil, fmt.Errorf("database error updating configured integration: %w", err)
	}
	return ci, nil
}

// UpdateConfiguredIntegrationEnabled writes only the is_enabled column.
func (s *PostgresStore) UpdateConfiguredIntegrationEnabled(ctx context.Context, id int64, isEnabled bool) error {
	query := `UPDATE configured_integrations SET is_enabled = $2, updated_at = NOW() WHERE id = $1`

	cmdTag, err := s.db.Exec(ctx, query, id, isEnabled)
	if err != nil {
		s.logger.Error("[PostgresStore] UpdateConfiguredIntegrationEnabled: Failed to update", zap.Int64("config_id", id), zap.Error(err))
		return fmt.Errorf("database error updating configured integration: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteConfiguredIntegration deletes one configured integration.
func (s *PostgresStore) DeleteConfiguredIntegration(ctx context.Context, id int64) error {
	cmdTag, err := s.db.Exec(ctx, `DELETE FROM configured_integrations WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("[PostgresStore] DeleteConfiguredIntegration: Failed to delete", zap.Int64("config_id", id), zap.Error(err))
		return fmt.Errorf("database error deleting configured integration: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
