package domain

import "time"

type VerifyRequest struct {
	Email        string `json:"email" validate:"required,email"`
	VerifiedCode string `json:"verified_code" validate:"required,notblank"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank"`
}

// AccessToken is returned by a successful login.
type AccessToken struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// Principal is an authenticated account as seen by the token issuer.
type Principal struct {
	ID          string
	Authorities []string
}

// ClaimSet is the set of assertions signed into an access token.
type ClaimSet struct {
	ID        string
	Issuer    string
	Subject   string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Scope     string
}
