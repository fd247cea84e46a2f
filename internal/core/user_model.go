package core

import (
	"context"
	"time"
)

// User is a shop operator who can log in to the API.
type User struct {
	ID           int
	Username     string
	Nombre       string
	PasswordHash string
	Rol          string
	Activo       bool
	CreatedAt    time.Time
}

const (
	RolAdmin   = "admin"
	RolTecnico = "tecnico"
)

// UserService provides user lookup, provisioning and password checks.
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)

	// CreateUser hashes password with bcrypt and stores an active user.
	CreateUser(ctx context.Context, username, nombre, password, rol string) (*User, error)

	// Authenticate returns the active user whose password matches, or ErrNotFound.
	Authenticate(ctx context.Context, username, password string) (*User, error)
}
