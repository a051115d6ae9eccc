package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onlinestore-api/internal/config"
	"github.com/onlinestore-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyPair(t *testing.T) (privPath, pubPath string, key *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath = filepath.Join(dir, "private.pem")
	pubPath = filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))
	return privPath, pubPath, key
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	privPath, pubPath, _ := writeKeyPair(t)
	p, err := NewProvider(&config.Config{JWTPrivateKeyPath: privPath, JWTPublicKeyPath: pubPath})
	require.NoError(t, err)
	return p
}

func claimSet(now time.Time) domain.ClaimSet {
	return domain.ClaimSet{
		ID:        "alice",
		Issuer:    "Public",
		Subject:   "Access Token",
		Audience:  []string{"Public Client"},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		Scope:     "ROLE_USER ROLE_ADMIN",
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTPrivateKeyPath: filepath.Join(t.TempDir(), "nope.pem")})
	assert.ErrorContains(t, err, "read private key")
}

func TestSignVerify_RoundTripsClaims(t *testing.T) {
	p := newTestProvider(t)
	now := time.Now().Truncate(time.Second)

	signed, err := p.Sign(claimSet(now))
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := p.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.ID)
	assert.Equal(t, "Public", claims.Issuer)
	assert.Equal(t, "Access Token", claims.Subject)
	assert.Equal(t, jwt.ClaimStrings{"Public Client"}, claims.Audience)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.Authorities())
}

func TestVerify_RejectsForeignKey(t *testing.T) {
	other := newTestProvider(t)
	signed, err := other.Sign(claimSet(time.Now()))
	require.NoError(t, err)

	_, err = newTestProvider(t).Verify(signed)
	assert.Error(t, err)
}

func TestVerify_RejectsExpired(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign(claimSet(time.Now().Add(-2 * time.Hour)))
	require.NoError(t, err)

	_, err = p.Verify(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_RejectsWrongAudience(t *testing.T) {
	p := newTestProvider(t)
	cs := claimSet(time.Now())
	cs.Audience = []string{"Internal"}
	signed, err := p.Sign(cs)
	require.NoError(t, err)

	_, err = p.Verify(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}
