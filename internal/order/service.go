package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/order/qr"
	"venue-cms/internal/utils"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrderNumber is returned by the store when the unique
	// index on order_number rejects an insert.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

// maxNumberRetries bounds how many times a colliding order number is
// regenerated before giving up.
const maxNumberRetries = 5

type Store interface {
	// InsertOrder persists the order and its tickets atomically.
	InsertOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status, paymentStatus string) error
}

// ShowCatalog is the slice of the catalog the order workflow needs: the
// authoritative show record with its ticket tiers.
type ShowCatalog interface {
	ShowByID(ctx context.Context, id string) (*models.Show, error)
}

type GiftCards interface {
	GetBalance(ctx context.Context, code string) (float64, error)
	Reserve(ctx context.Context, code string, amount float64) error
	Release(ctx context.Context, code string, amount float64) error
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLogEntry)
}

type Service struct {
	Store     Store
	Shows     ShowCatalog
	GiftCards GiftCards
	Publisher Publisher
	Audit     AuditRecorder
	Logger    *logger.Logger
	// PassKey encrypts the QR order pass payload. 32 bytes.
	PassKey []byte
}

type TicketInput struct {
	TierLabel string `json:"tier_label"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	ShowID       string        `json:"show_id"`
	Tickets      []TicketInput `json:"tickets"`
	GiftCardCode string        `json:"gift_card_code"`
	// GiftCardAmount is how much of the card to apply. Zero means draw
	// as much as the card and the order allow.
	GiftCardAmount float64 `json:"gift_card_amount"`
	Phone          string  `json:"phone"`
	IDNumber       string  `json:"id_number"`
}

func (in *CreateInput) validate() error {
	var details []string
	if strings.TrimSpace(in.ShowID) == "" {
		details = append(details, "show_id is required")
	}
	if len(in.Tickets) == 0 {
		details = append(details, "at least one ticket line is required")
	}
	for i, t := range in.Tickets {
		if strings.TrimSpace(t.TierLabel) == "" {
			details = append(details, fmt.Sprintf("tickets[%d]: tier_label is required", i))
		}
		if t.Quantity <= 0 {
			details = append(details, fmt.Sprintf("tickets[%d]: quantity must be positive", i))
		}
	}
	if in.GiftCardAmount < 0 {
		details = append(details, "gift_card_amount must not be negative")
	}
	if len(details) > 0 {
		return apperr.Validation("invalid order", details...)
	}
	return nil
}

func purchasable(show *models.Show) bool {
	if !show.Published || show.Archived {
		return false
	}
	return show.Status == models.ShowStatusAvailable || show.Status == models.ShowStatusFewLeft
}

// Create runs the full order workflow: validate, price from the show's
// authoritative tiers, apply the gift card, persist atomically under a
// fresh order number, then emit the created event.
func (s *Service) Create(ctx context.Context, buyer auth.Identity, in CreateInput) (*models.Order, error) {
	// Step 1: validate the request shape.
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Step 2: load the show and check it is on sale.
	show, err := s.Shows.ShowByID(ctx, in.ShowID)
	if err != nil {
		return nil, err
	}
	if !purchasable(show) {
		return nil, apperr.Validation("show is not available for purchase")
	}

	// Step 3: price every line from the show's tiers. Client-submitted
	// prices are never trusted; an unknown tier label rejects the order.
	tiersByLabel := make(map[string]models.TicketTier, len(show.TicketTiers))
	for _, tier := range show.TicketTiers {
		tiersByLabel[tier.Label] = tier
	}
	var ticketsTotal float64
	tickets := make([]models.OrderTicket, len(in.Tickets))
	for i, line := range in.Tickets {
		tier, ok := tiersByLabel[strings.TrimSpace(line.TierLabel)]
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("unknown ticket tier %q", line.TierLabel))
		}
		subtotal := tier.Price * float64(line.Quantity)
		tickets[i] = models.OrderTicket{
			ID:        utils.NewID(),
			TierLabel: tier.Label,
			TierPrice: tier.Price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
			Position:  i,
		}
		ticketsTotal += subtotal
	}

	// Step 4: apply the gift card. A requested amount must fit within
	// the card's balance; without one the whole balance is offered. The
	// amount drawn is then capped at the tickets total, so the amount to
	// pay is max(0, ticketsTotal - giftUsed) and never negative.
	giftCode := strings.ToUpper(strings.TrimSpace(in.GiftCardCode))
	var giftUsed float64
	if giftCode != "" {
		balance, err := s.GiftCards.GetBalance(ctx, giftCode)
		if err != nil {
			return nil, err
		}
		giftUsed = balance
		if in.GiftCardAmount > 0 {
			if in.GiftCardAmount > balance {
				return nil, apperr.Payment("gift card balance does not cover the requested amount")
			}
			giftUsed = in.GiftCardAmount
		}
		if giftUsed > ticketsTotal {
			giftUsed = ticketsTotal
		}
		if giftUsed > 0 {
			if err := s.GiftCards.Reserve(ctx, giftCode, giftUsed); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:                 utils.NewID(),
		UserID:             buyer.UserID,
		UserEmail:          buyer.Email,
		UserName:           buyer.Name,
		UserPhone:          in.Phone,
		UserIDNumber:       in.IDNumber,
		ShowID:             show.ID,
		ShowTitle:          show.Title,
		ShowDate:           show.Date,
		ShowVenue:          show.VenueName,
		TicketsTotal:       ticketsTotal,
		TotalAmount:        ticketsTotal - giftUsed,
		Status:             models.OrderStatusConfirmed,
		PaymentStatus:      models.PaymentStatusPaid,
		GiftCardCode:       giftCode,
		GiftCardAmountUsed: giftUsed,
		CreatedAt:          now,
	}
	for i := range tickets {
		tickets[i].OrderID = order.ID
	}
	order.Tickets = tickets

	// Step 5: persist under a fresh order number, regenerating on the
	// rare collision. The unique index on order_number is the arbiter.
	var persistErr error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		order.OrderNumber = utils.NewOrderNumber()
		persistErr = s.Store.InsertOrder(ctx, order)
		if persistErr == nil {
			break
		}
		if !errors.Is(persistErr, ErrDuplicateOrderNumber) {
			break
		}
		s.Logger.Warn("ORDER", fmt.Sprintf("order number collision on %s, retrying", order.OrderNumber))
	}
	if persistErr != nil {
		// Step 6: compensate the gift card before reporting failure.
		if giftUsed > 0 {
			if relErr := s.GiftCards.Release(ctx, giftCode, giftUsed); relErr != nil {
				s.Logger.Error("ORDER", fmt.Sprintf("gift card release failed for %s: %v", giftCode, relErr))
			}
		}
		if errors.Is(persistErr, ErrDuplicateOrderNumber) {
			return nil, apperr.Conflict("could not allocate an order number, please retry")
		}
		return nil, fmt.Errorf("persist order: %w", persistErr)
	}

	s.Logger.LogOrder("created", order.OrderNumber, fmt.Sprintf("%s total %.2f", order.UserEmail, order.TotalAmount))

	// Step 7: the created event is best-effort; the order stands either way.
	if s.Publisher != nil {
		if err := s.Publisher.PublishOrderCreated(ctx, order); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("order created event not published for %s: %v", order.OrderNumber, err))
		}
	}
	return order, nil
}

// get loads an order and enforces ownership: non-admins may only touch
// their own orders, and a foreign order is a 403, not a 404, because the
// order does exist.
func (s *Service) get(ctx context.Context, actor auth.Identity, id string) (*models.Order, error) {
	order, err := s.Store.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("lookup order: %w", err)
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("you do not have access to this order")
	}
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, actor auth.Identity, id string) (*models.Order, error) {
	return s.get(ctx, actor, id)
}

func (s *Service) GetByNumber(ctx context.Context, actor auth.Identity, number string) (*models.Order, error) {
	order, err := s.Store.GetOrderByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("lookup order: %w", err)
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("you do not have access to this order")
	}
	return order, nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.Identity) ([]models.Order, error) {
	return s.Store.ListOrdersByUser(ctx, actor.UserID)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.Store.ListOrders(ctx)
}

// Cancel moves an order to cancelled. Cancelling twice is a no-op;
// refunded orders are final.
func (s *Service) Cancel(ctx context.Context, actor auth.Identity, id string) (*models.Order, error) {
	order, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusCancelled:
		return order, nil
	case models.OrderStatusRefunded:
		return nil, apperr.Conflict("refunded orders cannot be cancelled")
	}

	paymentStatus := order.PaymentStatus
	if paymentStatus == models.PaymentStatusPaid {
		paymentStatus = models.PaymentStatusRefunded
	}
	if err := s.Store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled, paymentStatus); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	order.Status = models.OrderStatusCancelled
	order.PaymentStatus = paymentStatus
	order.UpdatedAt = time.Now().UTC()

	if actor.IsAdmin() && actor.UserID != order.UserID {
		s.Audit.Record(ctx, models.AuditLogEntry{
			ActorUserID: actor.UserID,
			ActorEmail:  actor.Email,
			Action:      models.AuditActionUpdate,
			EntityType:  "order",
			EntityID:    order.ID,
			Summary:     fmt.Sprintf("cancelled order %s", order.OrderNumber),
		})
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishOrderCancelled(ctx, order); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("order cancelled event not published for %s: %v", order.OrderNumber, err))
		}
	}
	return order, nil
}

// Pass renders the scannable entry pass for a confirmed order as a PNG
// QR code with an encrypted payload.
func (s *Service) Pass(ctx context.Context, actor auth.Identity, id string) ([]byte, error) {
	order, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, apperr.Validation("order pass is only available for confirmed orders")
	}
	png, err := qr.OrderPass(order, s.PassKey)
	if err != nil {
		return nil, fmt.Errorf("render order pass: %w", err)
	}
	return png, nil
}
