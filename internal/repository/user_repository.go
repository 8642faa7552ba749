package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/amtorres/mindmap-api/internal/utils"
)

// User mirrors the 'usuarios' table. The stored password hash never leaves
// the repository layer in API responses.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
}

// UserRepo encapsulates all credential-store queries.
type UserRepo struct {
	db   *sql.DB
	cost int // bcrypt cost applied when creating users
}

// NewUserRepo constructs a UserRepo around an open pool. The cost controls
// bcrypt hashing for new registrations.
func NewUserRepo(db *sql.DB, cost int) *UserRepo {
	return &UserRepo{db: db, cost: cost}
}

// Create hashes the password and inserts the user, returning the new id.
// Emails are stored exactly as sent; uniqueness is enforced by the database
// index and surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, name, email, password string) (uint64, error) {
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO usuarios (nombre, email, password_hash) VALUES (?,?,?)",
		name, email, hash)
	if err != nil {
		// MySQL 1062: duplicate entry for the unique email index.
		if strings.Contains(err.Error(), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Authenticate verifies an email/password pair and returns the matching
// user. Unknown email and wrong password both come back as ErrUserNotFound
// so login failures stay uniform.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, email, password_hash FROM usuarios WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, email, password_hash FROM usuarios WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// Update changes the display name and/or password of a user. Empty values
// leave the corresponding column untouched.
func (r *UserRepo) Update(ctx context.Context, id uint64, name, password string) error {
	if name == "" && password == "" {
		return nil
	}
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if name != "" {
		sets = append(sets, "nombre=?")
		args = append(args, name)
	}
	if password != "" {
		hash, err := utils.HashPassword(password, r.cost)
		if err != nil {
			return err
		}
		sets = append(sets, "password_hash=?")
		args = append(args, hash)
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE usuarios SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user row. Mind maps cascade at the schema level.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM usuarios WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
