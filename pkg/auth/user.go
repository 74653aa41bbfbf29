// Package auth provides user accounts, credential verification, API
// tokens, and the HTTP middleware gating admin routes.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// ErrInvalidCredentials is returned for a bad username or password. The
// two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is a dashboard account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may perform mutations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// userColumns lists columns returned by user SELECT queries, in scan order.
var userColumns = []string{"id", "username", "password_hash", "role", "created_at"}

// UserStore persists users in SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store over the write handle.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create hashes the password with bcrypt and inserts a new user.
func (s *UserStore) Create(ctx context.Context, username, password, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}

	query, args, err := sq.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username. Returns nil, nil if not found.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getWhere(ctx, sq.Eq{"username": username})
}

// GetByID retrieves a user by ID. Returns nil, nil if not found.
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.getWhere(ctx, sq.Eq{"id": id})
}

func (s *UserStore) getWhere(ctx context.Context, pred sq.Eq) (*User, error) {
	query, args, err := sq.Select(userColumns...).From("users").Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user select: %w", err)
	}

	var user User
	row := s.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // not-found is nil,nil like the session store
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies a username/password pair and returns the user.
// Both unknown users and wrong passwords yield ErrInvalidCredentials.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
