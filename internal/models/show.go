package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ShowStatusAvailable = "available"
	ShowStatusSoldOut   = "sold_out"
	ShowStatusClosed    = "closed"
	ShowStatusFewLeft   = "few_left"
)

type Show struct {
	bun.BaseModel `bun:"table:shows"`

	ID           string    `bun:"id,pk" json:"id"`
	Title        string    `bun:"title,notnull" json:"title"`
	Slug         string    `bun:"slug,unique,notnull" json:"slug"`
	Date         time.Time `bun:"date,notnull" json:"date"`
	VenueName    string    `bun:"venue_name,nullzero" json:"venue_name,omitempty"`
	VenueAddress string    `bun:"venue_address,nullzero" json:"venue_address,omitempty"`
	Description  string    `bun:"description,nullzero" json:"description,omitempty"`
	Published    bool      `bun:"published,notnull" json:"published"`
	Archived     bool      `bun:"archived,notnull" json:"archived"`
	Status       string    `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	TicketTiers []TicketTier `bun:"rel:has-many,join:id=show_id" json:"ticket_tiers"`
}

// TicketTier is a named price point on a show ("General", "VIP"). Position
// preserves the order the tiers were defined in.
type TicketTier struct {
	bun.BaseModel `bun:"table:ticket_tiers"`

	ID       string  `bun:"id,pk" json:"id"`
	ShowID   string  `bun:"show_id,notnull" json:"show_id"`
	Label    string  `bun:"label,notnull" json:"label"`
	Price    float64 `bun:"price,notnull" json:"price"`
	Currency string  `bun:"currency,notnull" json:"currency"`
	Position int     `bun:"position,notnull" json:"position"`
}
