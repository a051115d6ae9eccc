package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onlinestore-api/internal/config"
	"github.com/onlinestore-api/internal/domain"
)

// Issuer and audience every access token is checked against.
const (
	expectedIssuer   = "Public"
	expectedAudience = "Public Client"
)

// Claims holds the JWT payload fields.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Authorities splits the space-separated scope claim.
func (c *Claims) Authorities() []string {
	return strings.Fields(c.Scope)
}

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{privateKey: privKey, publicKey: pubKey}, nil
}

// Sign encodes the claim set as registered claims plus a scope claim.
func (p *Provider) Sign(cs domain.ClaimSet) (string, error) {
	claims := Claims{
		Scope: cs.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cs.ID,
			Issuer:    cs.Issuer,
			Subject:   cs.Subject,
			Audience:  jwt.ClaimStrings(cs.Audience),
			IssuedAt:  jwt.NewNumericDate(cs.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(cs.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	},
		jwt.WithIssuer(expectedIssuer),
		jwt.WithAudience(expectedAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
