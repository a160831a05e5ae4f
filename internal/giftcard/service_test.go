package giftcard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
)

type mockStore struct {
	cards map[string]*models.GiftCard
}

func newMockStore() *mockStore {
	return &mockStore{cards: make(map[string]*models.GiftCard)}
}

func (m *mockStore) InsertGiftCard(_ context.Context, card *models.GiftCard) error {
	if _, exists := m.cards[card.Code]; exists {
		return ErrCodeExists
	}
	m.cards[card.Code] = card
	return nil
}

func (m *mockStore) GetGiftCardByCode(_ context.Context, code string) (*models.GiftCard, error) {
	card, ok := m.cards[code]
	if !ok {
		return nil, ErrCardNotFound
	}
	return card, nil
}

func (m *mockStore) ListGiftCards(_ context.Context) ([]models.GiftCard, error) {
	var out []models.GiftCard
	for _, c := range m.cards {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockStore) DecrementBalance(_ context.Context, code string, amount float64) (bool, error) {
	card, ok := m.cards[code]
	if !ok || card.Balance < amount {
		return false, nil
	}
	card.Balance -= amount
	return true, nil
}

func (m *mockStore) IncrementBalance(_ context.Context, code string, amount float64) error {
	if card, ok := m.cards[code]; ok {
		card.Balance += amount
	}
	return nil
}

type mockAudit struct {
	entries []models.AuditLogEntry
}

func (m *mockAudit) Record(_ context.Context, entry models.AuditLogEntry) {
	m.entries = append(m.entries, entry)
}

func newTestService() (*Service, *mockStore) {
	store := newMockStore()
	return NewService(store, &mockAudit{}, logger.NewLogger()), store
}

func seedCard(store *mockStore, code string, balance float64, active bool) {
	store.cards[code] = &models.GiftCard{
		ID:             "gc-" + code,
		Code:           code,
		Balance:        balance,
		InitialBalance: balance,
		Active:         active,
	}
}

func TestGetBalanceNormalizesCode(t *testing.T) {
	svc, store := newTestService()
	seedCard(store, "ABCD1234", 75, true)

	balance, err := svc.GetBalance(context.Background(), "  abcd1234 ")
	require.NoError(t, err)
	assert.Equal(t, 75.0, balance)
}

func TestGetBalanceInactiveCardHidden(t *testing.T) {
	svc, store := newTestService()
	seedCard(store, "ABCD1234", 75, false)

	_, err := svc.GetBalance(context.Background(), "ABCD1234")
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

func TestReserveDecrementsBalance(t *testing.T) {
	svc, store := newTestService()
	seedCard(store, "ABCD1234", 75, true)

	require.NoError(t, svc.Reserve(context.Background(), "ABCD1234", 30))
	assert.Equal(t, 45.0, store.cards["ABCD1234"].Balance)
}

func TestReserveInsufficientBalance(t *testing.T) {
	svc, store := newTestService()
	seedCard(store, "ABCD1234", 20, true)

	err := svc.Reserve(context.Background(), "ABCD1234", 30)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindPayment, kind)
	// Balance untouched on rejection.
	assert.Equal(t, 20.0, store.cards["ABCD1234"].Balance)
}

func TestReserveRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Reserve(context.Background(), "ABCD1234", 0)
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestReleaseRestoresBalance(t *testing.T) {
	svc, store := newTestService()
	seedCard(store, "ABCD1234", 75, true)

	require.NoError(t, svc.Reserve(context.Background(), "ABCD1234", 30))
	require.NoError(t, svc.Release(context.Background(), "abcd1234", 30))
	assert.Equal(t, 75.0, store.cards["ABCD1234"].Balance)
}

func TestCreateGeneratesCode(t *testing.T) {
	svc, _ := newTestService()
	actor := auth.Identity{UserID: "adm", Email: "admin@example.com", Role: models.RoleAdmin}

	card, err := svc.Create(context.Background(), actor, CreateInput{Balance: 100})
	require.NoError(t, err)
	assert.Len(t, card.Code, 16)
	assert.Equal(t, 100.0, card.Balance)
	assert.Equal(t, 100.0, card.InitialBalance)
	assert.True(t, card.Active)
}

func TestCreateRejectsNonPositiveBalance(t *testing.T) {
	svc, _ := newTestService()
	actor := auth.Identity{UserID: "adm", Email: "admin@example.com", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), actor, CreateInput{Balance: 0})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	svc, store := newTestService()
	seedCard(store, "ABCD1234", 50, true)
	actor := auth.Identity{UserID: "adm", Email: "admin@example.com", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), actor, CreateInput{Code: "abcd1234", Balance: 100})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}
