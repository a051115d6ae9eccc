package domain

import (
	"context"
	"strings"
	"time"
)

// Authorities granted to accounts.
const (
	AuthorityUser  = "ROLE_USER"
	AuthorityAdmin = "ROLE_ADMIN"
)

type User struct {
	UserID           string    `json:"id" dynamodbav:"user_id"`
	Username         string    `json:"username" dynamodbav:"username"`
	Email            string    `json:"email" dynamodbav:"email"`
	PasswordHash     string    `json:"-" dynamodbav:"password_hash"`
	FirstName        string    `json:"first_name" dynamodbav:"first_name"`
	LastName         string    `json:"last_name" dynamodbav:"last_name"`
	Authorities      []string  `json:"authorities" dynamodbav:"authorities"`
	IsVerified       bool      `json:"is_verified" dynamodbav:"is_verified"`
	VerificationCode string    `json:"-" dynamodbav:"verification_code,omitempty"`
	IsDeleted        bool      `json:"-" dynamodbav:"is_deleted"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}

// NormalizeUsername is applied to usernames before they are stored or looked up.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail is applied to email addresses before they are stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,notblank"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,notblank,min=6,max=72"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AccountTx is the transactional handle a credential store hands out while
// registering an account. Writes made through it commit or roll back together.
type AccountTx interface {
	CreateUser(ctx context.Context, u *User) error
	SetVerificationCode(ctx context.Context, username, code string) error
}
