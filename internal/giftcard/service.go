package giftcard

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
	"venue-cms/internal/utils"
)

var (
	ErrCardNotFound = errors.New("gift card not found")
	ErrCodeExists   = errors.New("gift card code already exists")
)

type Store interface {
	InsertGiftCard(ctx context.Context, card *models.GiftCard) error
	GetGiftCardByCode(ctx context.Context, code string) (*models.GiftCard, error)
	ListGiftCards(ctx context.Context) ([]models.GiftCard, error)
	// DecrementBalance atomically subtracts amount when the remaining
	// balance covers it; the bool reports whether the decrement happened.
	DecrementBalance(ctx context.Context, code string, amount float64) (bool, error)
	IncrementBalance(ctx context.Context, code string, amount float64) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLogEntry)
}

type Service struct {
	Store  Store
	Audit  AuditRecorder
	Logger *logger.Logger
}

func NewService(store Store, audit AuditRecorder, log *logger.Logger) *Service {
	return &Service{Store: store, Audit: audit, Logger: log}
}

// GetBalance returns the remaining balance for an active card.
func (s *Service) GetBalance(ctx context.Context, code string) (float64, error) {
	card, err := s.lookup(ctx, code)
	if err != nil {
		return 0, err
	}
	return card.Balance, nil
}

// Reserve subtracts amount from the card's balance. Insufficient balance is
// a payment error; the conditional update at the store is the only
// serialization point, so two concurrent reserves can never overspend.
func (s *Service) Reserve(ctx context.Context, code string, amount float64) error {
	if amount <= 0 {
		return apperr.Validation("gift card amount must be positive")
	}
	card, err := s.lookup(ctx, code)
	if err != nil {
		return err
	}

	ok, err := s.Store.DecrementBalance(ctx, card.Code, amount)
	if err != nil {
		return fmt.Errorf("decrement gift card %s: %w", card.Code, err)
	}
	if !ok {
		return apperr.Payment("insufficient gift card balance")
	}
	return nil
}

// Release restores a previously reserved amount. Used only as compensation
// when the order insert fails after a successful reserve.
func (s *Service) Release(ctx context.Context, code string, amount float64) error {
	if amount <= 0 {
		return nil
	}
	if err := s.Store.IncrementBalance(ctx, strings.ToUpper(strings.TrimSpace(code)), amount); err != nil {
		return fmt.Errorf("release gift card %s: %w", code, err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, code string) (*models.GiftCard, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperr.Validation("gift card code is required")
	}
	card, err := s.Store.GetGiftCardByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			return nil, apperr.NotFound("gift card not found")
		}
		return nil, fmt.Errorf("lookup gift card: %w", err)
	}
	if !card.Active {
		return nil, apperr.NotFound("gift card not found")
	}
	return card, nil
}

// ---------------- ADMIN ----------------

type CreateInput struct {
	Code    string  `json:"code"`
	Balance float64 `json:"balance"`
}

func (s *Service) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*models.GiftCard, error) {
	if in.Balance <= 0 {
		return nil, apperr.Validation("balance must be positive")
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		code = utils.NewGiftCardCode()
	}

	card := &models.GiftCard{
		ID:             utils.NewID(),
		Code:           code,
		Balance:        in.Balance,
		InitialBalance: in.Balance,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Store.InsertGiftCard(ctx, card); err != nil {
		if errors.Is(err, ErrCodeExists) {
			return nil, apperr.Conflict("gift card code already exists")
		}
		return nil, fmt.Errorf("insert gift card: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionCreate,
		EntityType:  "gift_card",
		EntityID:    card.ID,
		Summary:     fmt.Sprintf("issued %s for %.2f", card.Code, card.Balance),
	})
	return card, nil
}

func (s *Service) List(ctx context.Context) ([]models.GiftCard, error) {
	return s.Store.ListGiftCards(ctx)
}
