package postgres

import (
	db_models "codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"crypto/cipher"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

//go:embed schema.sql
var schemaSQL string

// PostgreSQL error codes the store translates.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type PostgresStore struct {
	db     *pgxpool.Pool
	aead   cipher.AEAD // nil stores configurations in plain JSON
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, aead cipher.AEAD, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, aead: aead, logger: logger}
}

// EnsureSchema creates the tables the store needs when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		s.logger.Error("[PostgresStore] EnsureSchema: Failed to apply schema", zap.Error(err))
		return fmt.Errorf("database error applying schema: %w", err)
	}
	return nil
}

// translateError maps constraint violations onto the store's sentinel errors.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.Detail)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", store.ErrNotFound, pgErr.Detail)
		}
	}
	return err
}

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	query := `
		SELECT id, local_site_id, email, hashed_password, is_admin, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)`

	user := &db_models.User{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.LocalSiteID,
		&user.Email,
		&user.HashedPassword,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("[PostgresStore] GetUserByEmail: Failed to query/scan user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	query := `
		INSERT INTO users (id, local_site_id, email, hashed_password, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		user.ID,
		user.LocalSiteID,
		user.Email,
		user.HashedPassword,
		user.IsAdmin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		s.logger.Error("[PostgresStore] CreateUser: Failed to insert user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("database error creating user: %w", translateError(err))
	}

	s.logger.Debug("[PostgresStore] CreateUser: Inserted user", zap.Stringer("user_id", user.ID))
	return nil
}

// CreateLocalSite inserts a new local site.
func (s *PostgresStore) CreateLocalSite(ctx context.Context, site *db_models.LocalSite) error {
	query := `
		INSERT INTO local_sites (id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, site.ID, site.Name).Scan(&site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		s.logger.Error("[PostgresStore] CreateLocalSite: Failed to insert local site", zap.String("name", site.Name), zap.Error(err))
		return fmt.Errorf("database error creating local site: %w", translateError(err))
	}
	return nil
}

// GetLocalSiteByID retrieves a local site.
func (s *PostgresStore) GetLocalSiteByID(ctx context.Context, id uuid.UUID) (*db_models.LocalSite, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM local_sites
		WHERE id = $1`

	site := &db_models.LocalSite{}
	err := s.db.QueryRow(ctx, query, id).Scan(&site.ID, &site.Name, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching local site: %w", err)
	}
	return site, nil
}
