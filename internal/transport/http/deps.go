package http

import (
	"context"
	"io"
	"time"

	"github.com/onlinestore-api/internal/domain"
)

// AccountRepository is the minimal interface the router requires from a credential store.
// Both the DynamoDB and the Postgres user repos satisfy it.
type AccountRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.AccountTx) error) error
	FindByEmailAndCode(ctx context.Context, email, code string) (*domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SoftDelete(ctx context.Context, userID string) error
}

// ProductRepository is the minimal interface the router requires from a product store.
type ProductRepository interface {
	Put(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

// CategoryRepository is the minimal interface the router requires from a category store.
type CategoryRepository interface {
	Put(ctx context.Context, c *domain.Category) error
	Get(ctx context.Context, categoryID int) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// MailSender delivers templated mail.
type MailSender interface {
	Send(ctx context.Context, m domain.Mail) error
}
