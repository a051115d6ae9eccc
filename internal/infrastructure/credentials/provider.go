// Package credentials authenticates username/password pairs against stored
// bcrypt hashes and resolves the account's authorities.
package credentials

import (
	"context"
	"errors"
	"log/slog"

	"github.com/onlinestore-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = &domain.Error{Kind: domain.ErrAuthentication, Message: "Bad credentials"}

type userLookup interface {
	// GetByUsername ignores soft-deleted accounts and returns domain.ErrNotFound on a miss.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Provider is the authentication collaborator used at login.
type Provider struct {
	users           userLookup
	requireVerified bool
	dummyHash       []byte
}

func NewProvider(users userLookup, requireVerified bool) *Provider {
	// Compared against when the account is missing so both paths cost one bcrypt run.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return &Provider{users: users, requireVerified: requireVerified, dummyHash: dummy}
}

func (p *Provider) Authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	u, err := p.users.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	if p.requireVerified && !u.IsVerified {
		slog.Info("login rejected for unverified account", "user_id", u.UserID)
		return nil, errBadCredentials
	}
	authorities := make([]string, len(u.Authorities))
	copy(authorities, u.Authorities)
	return &domain.Principal{ID: u.Username, Authorities: authorities}, nil
}
