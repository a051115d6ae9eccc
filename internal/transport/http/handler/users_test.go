package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/onlinestore-api/internal/config"
	"github.com/onlinestore-api/internal/domain"
	jwtinfra "github.com/onlinestore-api/internal/infrastructure/jwt"
	"github.com/onlinestore-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Create(ctx context.Context, tx domain.AccountTx, req domain.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, tx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given principal and scope.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, principal, scope string, body []byte) *http.Request {
	t.Helper()
	now := time.Now()
	token, err := p.Sign(domain.ClaimSet{
		ID:        principal,
		Issuer:    "Public",
		Subject:   "Access Token",
		Audience:  []string{"Public Client"},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		Scope:     scope,
	})
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func newUserRouter(p *jwtinfra.Provider, svc *mockUserSvc) http.Handler {
	h := NewUserHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.Auth(p))
	r.Get("/users/{id}", h.Get)
	r.With(middleware.RequireAuthority(domain.AuthorityAdmin)).Delete("/users/{id}", h.Delete)
	return r
}

// --- tests ---

func TestUserGet_Found_HidesSecrets(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "01HUSER").Return(&domain.User{
		UserID:           "01HUSER",
		Username:         "alice",
		Email:            "alice@example.com",
		PasswordHash:     "$2a$10$secret",
		VerificationCode: "AB12CD",
		Authorities:      []string{domain.AuthorityUser},
	}, nil)

	rr := httptest.NewRecorder()
	newUserRouter(p, svc).ServeHTTP(rr, bearerReq(t, p, http.MethodGet, "/users/01HUSER", "alice", "ROLE_USER", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, rr.Body.String(), "AB12CD")
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestUserGet_NotFound(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	rr := httptest.NewRecorder()
	newUserRouter(p, svc).ServeHTTP(rr, bearerReq(t, p, http.MethodGet, "/users/missing", "alice", "ROLE_USER", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUserGet_NoToken(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}

	rr := httptest.NewRecorder()
	newUserRouter(p, svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/01HUSER", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestUserDelete_RequiresAdmin(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}

	rr := httptest.NewRecorder()
	newUserRouter(p, svc).ServeHTTP(rr, bearerReq(t, p, http.MethodDelete, "/users/01HUSER", "alice", "ROLE_USER", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserDelete_Admin(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "01HUSER").Return(nil)

	rr := httptest.NewRecorder()
	newUserRouter(p, svc).ServeHTTP(rr, bearerReq(t, p, http.MethodDelete, "/users/01HUSER", "root", "ROLE_USER ROLE_ADMIN", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
