package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Role         string    `bun:"role,notnull" json:"role"`
	IsActive     bool      `bun:"is_active,notnull" json:"is_active"`
	Phone        string    `bun:"phone,nullzero" json:"phone,omitempty"`
	IDNumber     string    `bun:"id_number,nullzero" json:"id_number,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	TokenHash string    `bun:"token_hash,unique,notnull" json:"-"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
