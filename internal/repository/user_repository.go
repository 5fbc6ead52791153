package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeUsername lower-cases and trims a username (email).
func NormalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Create hashes password, inserts the user and returns it.
func (r *UserRepo) Create(ctx context.Context, username, password, fullName string, cost int) (model.User, error) {
	username = NormalizeUsername(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, full_name) VALUES (?,?,?)",
		username, hash, strings.TrimSpace(fullName))
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByUsername fetches a user by normalized username. A missing user is
// sql.ErrNoRows.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,full_name,created_at FROM users WHERE username=? LIMIT 1",
		NormalizeUsername(username)).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id. A missing user is sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,full_name,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	return u, err
}

// UserByID resolves the subject of an access token.
func (r *UserRepo) UserByID(ctx context.Context, id uint64) (model.User, bool, error) {
	u, err := r.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

// UpdatePasswordHash replaces the stored hash, used when the bcrypt cost
// was raised since the user last signed in.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}
