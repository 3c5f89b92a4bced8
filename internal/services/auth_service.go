package services

import (
	"codereview-backend/internal/auth"
	"codereview-backend/internal/config"
	"codereview-backend/internal/models"
	"codereview-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrCreatingSiteOrUser = errors.New("failed to create local site or user")
	ErrValidation         = errors.New("input validation failed") // Generic validation error
)

type AuthService struct {
	store  store.Store
	cfg    *config.Config
	logger *zap.Logger
}

func NewAuthService(s store.Store, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:  s,
		cfg:    cfg,
		logger: logger,
	}
}

// Signup creates a user. When localSite is set, a new local site with that
// name is created and the user becomes its administrator. Users of the global
// site are administrators when listed in ADMIN_EMAILS.
func (s *AuthService) Signup(ctx context.Context, email, password string, localSite *string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email address is malformed", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("[AuthService] Signup: Error checking user existence", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("[AuthService] Signup: Error hashing password", zap.String("email", email), zap.Error(err))
		return nil, ErrHashingPassword
	}

	user := &models.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		IsAdmin:        s.cfg.IsAdminEmail(email),
	}

	if localSite != nil {
		name := strings.TrimSpace(*localSite)
		if name == "" {
			return nil, fmt.Errorf("%w: local_site cannot be empty", ErrValidation)
		}
		site := &models.LocalSite{ID: uuid.New(), Name: name}
		if err := s.store.CreateLocalSite(ctx, site); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return nil, fmt.Errorf("%w: local site %q already exists", ErrValidation, name)
			}
			s.logger.Error("[AuthService] Signup: Error creating local site", zap.String("name", name), zap.Error(err))
			return nil, fmt.Errorf("%w: creating local site failed: %v", ErrCreatingSiteOrUser, err)
		}
		user.LocalSiteID = &site.ID
		user.IsAdmin = true
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error("[AuthService] Signup: Error creating user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("%w: creating user failed: %v", ErrCreatingSiteOrUser, err)
	}

	s.logger.Info("[AuthService] Signup: User signed up",
		zap.Stringer("user_id", user.ID), zap.Bool("is_admin", user.IsAdmin), zap.Bool("local_site", user.LocalSiteID != nil))
	return user, nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials // Don't reveal if user exists or password is wrong
		}
		s.logger.Error("[AuthService] Login: Error retrieving user", zap.String("email", email), zap.Error(err))
		return "", nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	principal := auth.Principal{UserID: user.ID, LocalSiteID: user.LocalSiteID, IsAdmin: user.IsAdmin}
	token, err := auth.NewAccessToken(principal, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		s.logger.Error("[AuthService] Login: Error generating JWT", zap.Stringer("user_id", user.ID), zap.Error(err))
		return "", nil, ErrCreatingToken
	}

	s.logger.Info("[AuthService] Login: User logged in", zap.Stringer("user_id", user.ID))
	return token, user, nil
}
