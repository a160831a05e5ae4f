package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
)

// ---------------- mocks ----------------

type mockStore struct {
	orders        map[string]*models.Order
	insertCalls   int
	duplicateHits int
	failInsert    error
	failStatus    error
}

func newMockStore() *mockStore {
	return &mockStore{orders: make(map[string]*models.Order)}
}

func (m *mockStore) InsertOrder(_ context.Context, o *models.Order) error {
	m.insertCalls++
	if m.failInsert != nil {
		return m.failInsert
	}
	if m.duplicateHits > 0 {
		m.duplicateHits--
		return ErrDuplicateOrderNumber
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockStore) GetOrderByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) GetOrderByNumber(_ context.Context, number string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *mockStore) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockStore) ListOrders(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockStore) UpdateOrderStatus(_ context.Context, id, status, paymentStatus string) error {
	if m.failStatus != nil {
		return m.failStatus
	}
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.PaymentStatus = paymentStatus
	return nil
}

type mockShows struct {
	shows map[string]*models.Show
}

func (m *mockShows) ShowByID(_ context.Context, id string) (*models.Show, error) {
	show, ok := m.shows[id]
	if !ok {
		return nil, apperr.NotFound("show not found")
	}
	return show, nil
}

type mockGiftCards struct {
	balances map[string]float64
	reserved []float64
	released []float64
}

func (m *mockGiftCards) GetBalance(_ context.Context, code string) (float64, error) {
	balance, ok := m.balances[code]
	if !ok {
		return 0, apperr.NotFound("gift card not found")
	}
	return balance, nil
}

func (m *mockGiftCards) Reserve(_ context.Context, code string, amount float64) error {
	if m.balances[code] < amount {
		return apperr.Payment("insufficient gift card balance")
	}
	m.balances[code] -= amount
	m.reserved = append(m.reserved, amount)
	return nil
}

func (m *mockGiftCards) Release(_ context.Context, code string, amount float64) error {
	m.balances[code] += amount
	m.released = append(m.released, amount)
	return nil
}

type mockAudit struct {
	entries []models.AuditLogEntry
}

func (m *mockAudit) Record(_ context.Context, entry models.AuditLogEntry) {
	m.entries = append(m.entries, entry)
}

// ---------------- fixtures ----------------

func testShow() *models.Show {
	return &models.Show{
		ID:        "show-1",
		Title:     "Evening Gala",
		Slug:      "evening-gala",
		Date:      time.Date(2026, 10, 1, 19, 30, 0, 0, time.UTC),
		VenueName: "Grand Hall",
		Published: true,
		Status:    models.ShowStatusAvailable,
		TicketTiers: []models.TicketTier{
			{ID: "t1", ShowID: "show-1", Label: "General", Price: 25, Currency: "EUR"},
			{ID: "t2", ShowID: "show-1", Label: "VIP", Price: 60, Currency: "EUR"},
		},
	}
}

func newTestService(store *mockStore, shows *mockShows, cards *mockGiftCards) (*Service, *mockAudit) {
	audit := &mockAudit{}
	svc := &Service{
		Store:     store,
		Shows:     shows,
		GiftCards: cards,
		Audit:     audit,
		Logger:    logger.NewLogger(),
	}
	return svc, audit
}

var buyer = auth.Identity{UserID: "u1", Email: "buyer@example.com", Name: "Buyer", Role: models.RoleEditor}

// ---------------- create ----------------

func TestCreateOrderPricesFromShowTiers(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store, &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, &mockGiftCards{})

	o, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID: "show-1",
		Tickets: []TicketInput{
			{TierLabel: "General", Quantity: 2},
			{TierLabel: "VIP", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 110.0, o.TicketsTotal)
	assert.Equal(t, 110.0, o.TotalAmount)
	require.Len(t, o.Tickets, 2)
	assert.Equal(t, 50.0, o.Tickets[0].Subtotal)
	assert.Equal(t, 60.0, o.Tickets[1].Subtotal)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)
	assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
	assert.Len(t, o.OrderNumber, 12)

	// Purchaser and show details are snapshotted onto the order.
	assert.Equal(t, "buyer@example.com", o.UserEmail)
	assert.Equal(t, "Evening Gala", o.ShowTitle)
	assert.Equal(t, "Grand Hall", o.ShowVenue)
}

func TestCreateOrderRejectsUnknownTier(t *testing.T) {
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, &mockGiftCards{})

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:  "show-1",
		Tickets: []TicketInput{{TierLabel: "Backstage", Quantity: 1}},
	})
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateOrderRejectsEmptyTickets(t *testing.T) {
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, &mockGiftCards{})

	_, err := svc.Create(context.Background(), buyer, CreateInput{ShowID: "show-1"})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateOrderRejectsUnpublishedShow(t *testing.T) {
	show := testShow()
	show.Published = false
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": show}}, &mockGiftCards{})

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:  "show-1",
		Tickets: []TicketInput{{TierLabel: "General", Quantity: 1}},
	})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateOrderRejectsClosedShow(t *testing.T) {
	show := testShow()
	show.Status = models.ShowStatusClosed
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": show}}, &mockGiftCards{})

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:  "show-1",
		Tickets: []TicketInput{{TierLabel: "General", Quantity: 1}},
	})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateOrderAppliesGiftCardPartially(t *testing.T) {
	cards := &mockGiftCards{balances: map[string]float64{"GIFT30": 30}}
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	o, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID: "show-1",
		Tickets: []TicketInput{
			{TierLabel: "General", Quantity: 2},
			{TierLabel: "VIP", Quantity: 1},
		},
		GiftCardCode: "gift30",
	})
	require.NoError(t, err)

	assert.Equal(t, 110.0, o.TicketsTotal)
	assert.Equal(t, 80.0, o.TotalAmount)
	assert.Equal(t, 30.0, o.GiftCardAmountUsed)
	assert.Equal(t, "GIFT30", o.GiftCardCode)
	assert.Equal(t, []float64{30}, cards.reserved)
	assert.Equal(t, 0.0, cards.balances["GIFT30"])
}

func TestCreateOrderHonorsRequestedGiftAmount(t *testing.T) {
	cards := &mockGiftCards{balances: map[string]float64{"GIFT200": 200}}
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	o, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID: "show-1",
		Tickets: []TicketInput{
			{TierLabel: "General", Quantity: 2},
			{TierLabel: "VIP", Quantity: 1},
		},
		GiftCardCode:   "GIFT200",
		GiftCardAmount: 50,
	})
	require.NoError(t, err)

	// Only the requested 50 is drawn even though the card holds more.
	assert.Equal(t, 110.0, o.TicketsTotal)
	assert.Equal(t, 60.0, o.TotalAmount)
	assert.Equal(t, 50.0, o.GiftCardAmountUsed)
	assert.Equal(t, 150.0, cards.balances["GIFT200"])
}

func TestCreateOrderRequestedGiftAmountExceedsBalance(t *testing.T) {
	cards := &mockGiftCards{balances: map[string]float64{"GIFT20": 20}}
	store := newMockStore()
	svc, _ := newTestService(store, &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:         "show-1",
		Tickets:        []TicketInput{{TierLabel: "General", Quantity: 1}},
		GiftCardCode:   "GIFT20",
		GiftCardAmount: 30,
	})
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindPayment, kind)
	assert.Equal(t, 20.0, cards.balances["GIFT20"])
	assert.Empty(t, cards.reserved)
	assert.Zero(t, store.insertCalls)
}

func TestCreateOrderRejectsNegativeGiftAmount(t *testing.T) {
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, &mockGiftCards{})

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:         "show-1",
		Tickets:        []TicketInput{{TierLabel: "General", Quantity: 1}},
		GiftCardCode:   "GIFT",
		GiftCardAmount: -5,
	})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindValidation, kind)
}

func TestCreateOrderGiftCardNeverExceedsTotal(t *testing.T) {
	cards := &mockGiftCards{balances: map[string]float64{"BIG": 500}}
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	o, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:       "show-1",
		Tickets:      []TicketInput{{TierLabel: "General", Quantity: 2}},
		GiftCardCode: "BIG",
	})
	require.NoError(t, err)

	// 50 gross, 500 on the card: only 50 is drawn and nothing is owed.
	assert.Equal(t, 50.0, o.TicketsTotal)
	assert.Equal(t, 0.0, o.TotalAmount)
	assert.Equal(t, 50.0, o.GiftCardAmountUsed)
	assert.Equal(t, 450.0, cards.balances["BIG"])
}

func TestCreateOrderUnknownGiftCard(t *testing.T) {
	cards := &mockGiftCards{balances: map[string]float64{}}
	svc, _ := newTestService(newMockStore(), &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:       "show-1",
		Tickets:      []TicketInput{{TierLabel: "General", Quantity: 1}},
		GiftCardCode: "NOPE",
	})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

func TestCreateOrderRetriesNumberCollision(t *testing.T) {
	store := newMockStore()
	store.duplicateHits = 2
	svc, _ := newTestService(store, &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, &mockGiftCards{})

	o, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:  "show-1",
		Tickets: []TicketInput{{TierLabel: "General", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.insertCalls)
	assert.NotEmpty(t, o.OrderNumber)
}

func TestCreateOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	store := newMockStore()
	store.duplicateHits = 100
	cards := &mockGiftCards{balances: map[string]float64{"GIFT30": 30}}
	svc, _ := newTestService(store, &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:       "show-1",
		Tickets:      []TicketInput{{TierLabel: "VIP", Quantity: 1}},
		GiftCardCode: "GIFT30",
	})
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
	assert.Equal(t, maxNumberRetries, store.insertCalls)
	// The reserved amount is returned to the card.
	assert.Equal(t, []float64{30}, cards.released)
	assert.Equal(t, 30.0, cards.balances["GIFT30"])
}

func TestCreateOrderReleasesGiftCardOnPersistFailure(t *testing.T) {
	store := newMockStore()
	store.failInsert = errors.New("connection reset")
	cards := &mockGiftCards{balances: map[string]float64{"GIFT30": 30}}
	svc, _ := newTestService(store, &mockShows{shows: map[string]*models.Show{"show-1": testShow()}}, cards)

	_, err := svc.Create(context.Background(), buyer, CreateInput{
		ShowID:       "show-1",
		Tickets:      []TicketInput{{TierLabel: "VIP", Quantity: 1}},
		GiftCardCode: "GIFT30",
	})
	require.Error(t, err)
	_, classified := apperr.KindOf(err)
	assert.False(t, classified)
	assert.Equal(t, 30.0, cards.balances["GIFT30"])
}

// ---------------- ownership ----------------

func seedOrder(store *mockStore, userID string) *models.Order {
	o := &models.Order{
		ID:            "ord-1",
		OrderNumber:   "123456780001",
		UserID:        userID,
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
	}
	store.orders[o.ID] = o
	return o
}

func TestGetByIDForbiddenForOtherUser(t *testing.T) {
	store := newMockStore()
	seedOrder(store, "someone-else")
	svc, _ := newTestService(store, &mockShows{}, &mockGiftCards{})

	_, err := svc.GetByID(context.Background(), buyer, "ord-1")
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindForbidden, kind)
}

func TestGetByIDAllowsAdmin(t *testing.T) {
	store := newMockStore()
	seedOrder(store, "someone-else")
	svc, _ := newTestService(store, &mockShows{}, &mockGiftCards{})

	admin := auth.Identity{UserID: "adm", Email: "admin@example.com", Role: models.RoleAdmin}
	o, err := svc.GetByID(context.Background(), admin, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", o.ID)
}

func TestGetByIDMissingOrderIsNotFound(t *testing.T) {
	svc, _ := newTestService(newMockStore(), &mockShows{}, &mockGiftCards{})

	_, err := svc.GetByID(context.Background(), buyer, "missing")
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindNotFound, kind)
}

// ---------------- cancel ----------------

func TestCancelMarksPaidOrderRefunded(t *testing.T) {
	store := newMockStore()
	seedOrder(store, buyer.UserID)
	svc, _ := newTestService(store, &mockShows{}, &mockGiftCards{})

	o, err := svc.Cancel(context.Background(), buyer, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, o.Status)
	assert.Equal(t, models.PaymentStatusRefunded, o.PaymentStatus)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newMockStore()
	o := seedOrder(store, buyer.UserID)
	o.Status = models.OrderStatusCancelled
	svc, _ := newTestService(store, &mockShows{}, &mockGiftCards{})

	got, err := svc.Cancel(context.Background(), buyer, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
}

func TestCancelRefundedOrderConflicts(t *testing.T) {
	store := newMockStore()
	o := seedOrder(store, buyer.UserID)
	o.Status = models.OrderStatusRefunded
	svc, _ := newTestService(store, &mockShows{}, &mockGiftCards{})

	_, err := svc.Cancel(context.Background(), buyer, "ord-1")
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindConflict, kind)
}

func TestCancelForbiddenForOtherUser(t *testing.T) {
	store := newMockStore()
	seedOrder(store, "someone-else")
	svc, _ := newTestService(store, &mockShows{}, &mockGiftCards{})

	_, err := svc.Cancel(context.Background(), buyer, "ord-1")
	kind, _ := apperr.KindOf(err)
	assert.Equal(t, apperr.KindForbidden, kind)
}

func TestAdminCancelOfForeignOrderIsAudited(t *testing.T) {
	store := newMockStore()
	seedOrder(store, "someone-else")
	svc, audit := newTestService(store, &mockShows{}, &mockGiftCards{})

	admin := auth.Identity{UserID: "adm", Email: "admin@example.com", Role: models.RoleAdmin}
	_, err := svc.Cancel(context.Background(), admin, "ord-1")
	require.NoError(t, err)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionUpdate, audit.entries[0].Action)
	assert.Equal(t, "order", audit.entries[0].EntityType)
}
