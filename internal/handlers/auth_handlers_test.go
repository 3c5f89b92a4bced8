package handlers

import (
	db_models "codereview-backend/internal/models"
	"codereview-backend/internal/services"
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubAuthService struct {
	signupErr error
	loginErr  error
}

func (s *stubAuthService) Signup(ctx context.Context, email, password string, localSite *string) (*db_models.User, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	user := &db_models.User{ID: uuid.New(), Email: email}
	if localSite != nil {
		id := uuid.New()
		user.LocalSiteID = &id
		user.IsAdmin = true
	}
	return user, nil
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *db_models.User, error) {
	if s.loginErr != nil {
		return "", nil, s.loginErr
	}
	return "token", &db_models.User{ID: uuid.New(), Email: email}, nil
}

func newAuthRouter(svc AuthService) http.Handler {
	h := NewAuthHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/v1/auth/signup", h.HandleSignup)
	r.Post("/v1/auth/login", h.HandleLogin)
	return r
}

func TestAuthHandler_Signup(t *testing.T) {
	rec := doRequest(t, newAuthRouter(&stubAuthService{}), http.MethodPost, "/v1/auth/signup",
		`{"email":"lead@example.com","password":"password123","local_site":"team-a"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_admin":true`)

	rec = doRequest(t, newAuthRouter(&stubAuthService{}), http.MethodPost, "/v1/auth/signup", `{"email":"lead@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, newAuthRouter(&stubAuthService{signupErr: services.ErrUserAlreadyExists}), http.MethodPost, "/v1/auth/signup",
		`{"email":"lead@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, newAuthRouter(&stubAuthService{signupErr: services.ErrCreatingSiteOrUser}), http.MethodPost, "/v1/auth/signup",
		`{"email":"lead@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	rec := doRequest(t, newAuthRouter(&stubAuthService{}), http.MethodPost, "/v1/auth/login", `{"email":"a@b.c","password":"password123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"token"`)

	rec = doRequest(t, newAuthRouter(&stubAuthService{loginErr: services.ErrInvalidCredentials}), http.MethodPost, "/v1/auth/login", `{"email":"a@b.c","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
