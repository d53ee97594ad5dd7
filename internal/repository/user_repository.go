package repository

import (
	"context"
	"database/sql"

	"github.com/chenzhe/smart-parking/internal/model"
	"github.com/chenzhe/smart-parking/internal/utils"
)

// UserRepo provides account lookups and creation over the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create registers a new account with a bcrypt-hashed password and returns
// its id. ErrPhoneExists is returned when the phone number is taken.
func (r *UserRepo) Create(ctx context.Context, name, phone, password string, bcryptCost int) (uint64, error) {
	var existing uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE phone = ? LIMIT 1`, phone).Scan(&existing)
	if err == nil {
		return 0, ErrPhoneExists
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, phone, password) VALUES (?, ?, ?)`,
		name, phone, hash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID loads an account by primary key. sql.ErrNoRows passes through.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, name, phone, password, created_at FROM users WHERE id = ? LIMIT 1`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByPhone loads an account by phone number. sql.ErrNoRows passes through
// so callers can distinguish unknown accounts from store failures.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	const q = `SELECT id, name, phone, password, created_at FROM users WHERE phone = ? LIMIT 1`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, phone).Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
