package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/onlinestore-api/internal/domain"
)

const userColumns = `user_id, username, email, password_hash, first_name, last_name,
	is_verified, verification_code, is_deleted, created_at, updated_at`

// UserRepo stores accounts in the users and user_authorities tables.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
}

// GetByUsername returns the live account with the given username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users
		WHERE username = $1 AND is_deleted = FALSE`, username)
}

// FindByEmailAndCode returns the live account whose email and pending
// verification code both match.
func (r *UserRepo) FindByEmailAndCode(ctx context.Context, email, code string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users
		WHERE email = $1 AND verification_code = $2 AND is_deleted = FALSE`, email, code)
}

// Save writes the mutable account fields of a live account back. An empty
// VerificationCode is stored as NULL. Soft-deleted accounts are not touched.
func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET
		email = $2, password_hash = $3, first_name = $4, last_name = $5,
		is_verified = $6, verification_code = NULLIF($7, ''), updated_at = $8
		WHERE user_id = $1 AND is_deleted = FALSE`,
		u.UserID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.IsVerified, u.VerificationCode, u.UpdatedAt)
	if err != nil {
		return mapWriteErr(err, "user "+u.UserID)
	}
	return requireRow(res, "user "+u.UserID)
}

func (r *UserRepo) SoftDelete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_deleted = TRUE, updated_at = $2 WHERE user_id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, "user "+userID)
}

// RunInTx runs fn inside a database transaction.
func (r *UserRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.AccountTx) error) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, &userTx{db: tx})
	})
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if u.Authorities, err = loadAuthorities(ctx, r.db, u.UserID); err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u    domain.User
		code sql.NullString
	)
	err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsVerified, &code, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.VerificationCode = code.String
	return &u, nil
}

func loadAuthorities(ctx context.Context, db DBTX, userID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT authority FROM user_authorities WHERE user_id = $1 ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

// userTx writes through an open *sql.Tx.
type userTx struct {
	db DBTX
}

func (tx *userTx) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := tx.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)`,
		u.UserID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.IsVerified, u.VerificationCode, u.IsDeleted, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapWriteErr(err, "username or email")
	}
	for i, a := range u.Authorities {
		if _, err := tx.db.ExecContext(ctx,
			`INSERT INTO user_authorities (user_id, authority, position) VALUES ($1, $2, $3)`,
			u.UserID, a, i); err != nil {
			return mapWriteErr(err, "authority "+a)
		}
	}
	return nil
}

func (tx *userTx) SetVerificationCode(ctx context.Context, username, code string) error {
	res, err := tx.db.ExecContext(ctx,
		`UPDATE users SET verification_code = $2 WHERE username = $1 AND is_deleted = FALSE`,
		username, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, "user "+username)
}
