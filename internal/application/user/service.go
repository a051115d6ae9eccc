package user

import (
	"context"
	"fmt"
	"time"

	"github.com/onlinestore-api/internal/domain"
	"github.com/onlinestore-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// Create builds a new unverified account and writes it through tx.
	Create(ctx context.Context, tx domain.AccountTx, req domain.RegisterRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	SoftDelete(ctx context.Context, userID string) error
}

type service struct {
	repo       userStore
	bcryptCost int
}

type ServiceDeps struct {
	UserRepo userStore
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{repo: deps.UserRepo, bcryptCost: cost}
}

func (s *service) Create(ctx context.Context, tx domain.AccountTx, req domain.RegisterRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     domain.NormalizeUsername(req.Username),
		Email:        domain.NormalizeEmail(req.Email),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Authorities:  []string{domain.AuthorityUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	return s.repo.SoftDelete(ctx, userID)
}
