package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/onlinestore-api/internal/domain"
	"github.com/onlinestore-api/internal/pkg/id"
)

// ImageURLTTL is how long a presigned product image URL stays valid.
const ImageURLTTL = 15 * time.Minute

const imagePrefix = "products/"

type Service interface {
	Create(ctx context.Context, creatorID string, req domain.CreateProductRequest) (*domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	// UploadImage stores an image and returns the object key to reference from a product.
	UploadImage(ctx context.Context, filename string, r io.Reader, contentType string) (string, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
}

type productStore interface {
	Put(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

type categoryStore interface {
	Put(ctx context.Context, c *domain.Category) error
	Get(ctx context.Context, categoryID int) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	products   productStore
	categories categoryStore
	images     imageStore
	now        func() time.Time
}

type ServiceDeps struct {
	ProductRepo  productStore
	CategoryRepo categoryStore
	Images       imageStore
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		products:   deps.ProductRepo,
		categories: deps.CategoryRepo,
		images:     deps.Images,
		now:        now,
	}
}

func (s *service) Create(ctx context.Context, creatorID string, req domain.CreateProductRequest) (*domain.Product, error) {
	if _, err := s.categories.Get(ctx, req.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.Error{Kind: domain.ErrValidation, Message: "category not found"}
		}
		return nil, err
	}
	ok, err := s.images.Exists(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.Error{Kind: domain.ErrValidation, Message: "image not found"}
	}

	now := s.now()
	p := &domain.Product{
		ProductID:   id.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, productID string) (*domain.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	url, err := s.images.PresignedURL(ctx, p.Image, ImageURLTTL)
	if err != nil {
		return nil, err
	}
	p.ImageURL = url
	return p, nil
}

func (s *service) UploadImage(ctx context.Context, filename string, r io.Reader, contentType string) (string, error) {
	key := imagePrefix + id.New() + "-" + sanitizeFilename(filename)
	if err := s.images.Upload(ctx, key, r, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, nil
}

func (s *service) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	c := &domain.Category{CategoryID: in.CategoryID, Name: strings.TrimSpace(in.Name)}
	if err := s.categories.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
