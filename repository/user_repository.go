package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"donationRegistry/models"
)

type UserRepository struct {
	db       *sql.DB
	hashCost int
}

// UserOption customizes a UserRepository.
type UserOption func(*UserRepository)

// WithHashCost overrides the bcrypt cost used for new passwords.
func WithHashCost(cost int) UserOption {
	return func(r *UserRepository) { r.hashCost = cost }
}

func NewUserRepository(db *sql.DB, opts ...UserOption) *UserRepository {
	r := &UserRepository{db: db, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a new user with a bcrypt hash of password.
// Role defaults to operator. Uniqueness of username is left to the store's
// UNIQUE constraint; a violation is reported as ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, name, username, password string, role models.Role) (*models.User, error) {
	if role == "" {
		role = models.RoleOperator
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO users (name, username, password_hash, role) VALUES (?, ?, ?, ?)`,
		name, username, string(hash), string(role))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Name: name, Username: username, PasswordHash: string(hash), Role: role}, nil
}

// EnsureDefaultAdmin seeds the bootstrap admin account unless a user named
// "admin" already exists. It never overwrites an existing row.
func (r *UserRepository) EnsureDefaultAdmin(ctx context.Context) error {
	admin := models.DefaultAdmin()
	hash, err := bcrypt.GenerateFromPassword([]byte(models.DefaultAdminPassword), r.hashCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = r.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (name, username, password_hash, role) VALUES (?, ?, ?, ?)`,
		admin.Name, admin.Username, string(hash), string(admin.Role))
	return err
}

// FindByCredentials returns the user whose username matches exactly and whose
// stored hash accepts password. It returns (nil, nil) when either check fails.
func (r *UserRepository) FindByCredentials(ctx context.Context, username, password string) (*models.User, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil || u == nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, nil
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, name, username, password_hash, role FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, name, username, password_hash, role FROM users WHERE username = ?`, username)
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	var role string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
