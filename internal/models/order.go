package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order is immutable after creation except for its status. Purchaser and
// show display fields are copied at order time so later edits to the user
// or show never change historical orders.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          string `bun:"id,pk" json:"id"`
	OrderNumber string `bun:"order_number,unique,notnull" json:"order_number"`

	UserID       string `bun:"user_id,notnull" json:"user_id"`
	UserEmail    string `bun:"user_email,notnull" json:"user_email"`
	UserName     string `bun:"user_name,notnull" json:"user_name"`
	UserPhone    string `bun:"user_phone,nullzero" json:"user_phone,omitempty"`
	UserIDNumber string `bun:"user_id_number,nullzero" json:"user_id_number,omitempty"`

	ShowID    string    `bun:"show_id,notnull" json:"show_id"`
	ShowTitle string    `bun:"show_title,notnull" json:"show_title"`
	ShowDate  time.Time `bun:"show_date,notnull" json:"show_date"`
	ShowVenue string    `bun:"show_venue,nullzero" json:"show_venue,omitempty"`

	// TicketsTotal is the gross sum of all ticket lines; TotalAmount is
	// the amount charged after the gift card was applied, never negative.
	TicketsTotal  float64 `bun:"tickets_total,notnull" json:"tickets_total"`
	TotalAmount   float64 `bun:"total_amount,notnull" json:"total_amount"`
	Status        string  `bun:"status,notnull" json:"status"`
	PaymentStatus string  `bun:"payment_status,notnull" json:"payment_status"`

	GiftCardCode       string  `bun:"gift_card_code,nullzero" json:"gift_card_code,omitempty"`
	GiftCardAmountUsed float64 `bun:"gift_card_amount_used" json:"gift_card_amount_used"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Tickets []OrderTicket `bun:"rel:has-many,join:id=order_id" json:"tickets"`
}

// OrderTicket is one priced line of an order.
type OrderTicket struct {
	bun.BaseModel `bun:"table:order_tickets"`

	ID        string  `bun:"id,pk" json:"id"`
	OrderID   string  `bun:"order_id,notnull" json:"order_id"`
	TierLabel string  `bun:"tier_label,notnull" json:"tier_label"`
	TierPrice float64 `bun:"tier_price,notnull" json:"tier_price"`
	Quantity  int     `bun:"quantity,notnull" json:"quantity"`
	Subtotal  float64 `bun:"subtotal,notnull" json:"subtotal"`
	Position  int     `bun:"position,notnull" json:"position"`
}
