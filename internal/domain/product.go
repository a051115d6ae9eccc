package domain

import "time"

type Product struct {
	ProductID   string    `json:"id" dynamodbav:"product_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	Image       string    `json:"image" dynamodbav:"image"`
	ImageURL    string    `json:"image_url,omitempty" dynamodbav:"-"`
	CategoryID  int       `json:"category_id" dynamodbav:"category_id"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,notblank,min=5,max=255"`
	Description string `json:"description" validate:"required,notblank,min=5"`
	Image       string `json:"image" validate:"required,notblank"`
	CategoryID  int    `json:"category_id" validate:"required,gt=0"`
}

type Category struct {
	CategoryID int    `json:"id" dynamodbav:"category_id"`
	Name       string `json:"name" dynamodbav:"name"`
}

type CategoryInput struct {
	CategoryID int    `json:"id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,notblank"`
}
