package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, nombre, password_hash, rol, activo, created_at
		FROM usuarios
		WHERE username = $1 AND activo = true
		LIMIT 1`,
		strings.ToLower(strings.TrimSpace(username)),
	).Scan(&u.ID, &u.Username, &u.Nombre, &u.PasswordHash, &u.Rol, &u.Activo, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", username, err)
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, nombre, password_hash, rol, activo, created_at
		FROM usuarios
		WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Username, &u.Nombre, &u.PasswordHash, &u.Rol, &u.Activo, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user id=%d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user id=%d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, username, nombre, password, rol string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrValidation, minPasswordLen)
	}
	if rol == "" {
		rol = RolTecnico
	}
	if rol != RolAdmin && rol != RolTecnico {
		return nil, fmt.Errorf("%w: unknown rol %q", ErrValidation, rol)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO usuarios (username, nombre, password_hash, rol)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, nombre, password_hash, rol, activo, created_at`,
		username, strings.TrimSpace(nombre), string(hash), rol,
	).Scan(&u.ID, &u.Username, &u.Nombre, &u.PasswordHash, &u.Rol, &u.Activo, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(u.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return u, nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
