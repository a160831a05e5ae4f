package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Page struct {
	bun.BaseModel `bun:"table:pages"`

	ID        string    `bun:"id,pk" json:"id"`
	Slug      string    `bun:"slug,unique,notnull" json:"slug"`
	Title     string    `bun:"title,notnull" json:"title"`
	Body      string    `bun:"body,nullzero" json:"body,omitempty"`
	Published bool      `bun:"published,notnull" json:"published"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// SiteSettings is a singleton row (fixed ID) read on almost every page
// render, which is why reads go through the catalog service's TTL cache.
type SiteSettings struct {
	bun.BaseModel `bun:"table:site_settings"`

	ID           string    `bun:"id,pk" json:"id"`
	SiteTitle    string    `bun:"site_title,notnull" json:"site_title"`
	ContactEmail string    `bun:"contact_email,nullzero" json:"contact_email,omitempty"`
	ContactPhone string    `bun:"contact_phone,nullzero" json:"contact_phone,omitempty"`
	Address      string    `bun:"address,nullzero" json:"address,omitempty"`
	FooterText   string    `bun:"footer_text,nullzero" json:"footer_text,omitempty"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// SiteSettingsID is the fixed primary key of the settings singleton.
const SiteSettingsID = "site"

type FAQItem struct {
	bun.BaseModel `bun:"table:faq_items"`

	ID        string    `bun:"id,pk" json:"id"`
	Question  string    `bun:"question,notnull" json:"question"`
	Answer    string    `bun:"answer,notnull" json:"answer"`
	Position  int       `bun:"position,notnull" json:"position"`
	Published bool      `bun:"published,notnull" json:"published"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}
