package models

import (
	"time"

	"github.com/uptrace/bun"
)

type GiftCard struct {
	bun.BaseModel `bun:"table:gift_cards"`

	ID             string    `bun:"id,pk" json:"id"`
	Code           string    `bun:"code,unique,notnull" json:"code"`
	Balance        float64   `bun:"balance,notnull" json:"balance"`
	InitialBalance float64   `bun:"initial_balance,notnull" json:"initial_balance"`
	Active         bool      `bun:"active,notnull" json:"active"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}
