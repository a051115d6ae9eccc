package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onlinestore-api/internal/domain"
)

type ProductRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Put(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO products
		(product_id, name, description, image, category_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ProductID, p.Name, p.Description, p.Image, p.CategoryID, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	return mapWriteErr(err, "product "+p.ProductID)
}

func (r *ProductRepo) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx, `SELECT product_id, name, description, image, category_id,
		created_by, created_at, updated_at FROM products WHERE product_id = $1`, productID).
		Scan(&p.ProductID, &p.Name, &p.Description, &p.Image, &p.CategoryID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

type CategoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Put(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (category_id, name) VALUES ($1, $2)`, c.CategoryID, c.Name)
	return mapWriteErr(err, fmt.Sprintf("category %d", c.CategoryID))
}

func (r *CategoryRepo) Get(ctx context.Context, categoryID int) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT category_id, name FROM categories WHERE category_id = $1`, categoryID).
		Scan(&c.CategoryID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", categoryID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.CategoryID, &c.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
