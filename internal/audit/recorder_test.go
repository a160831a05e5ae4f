package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-cms/internal/logger"
	"venue-cms/internal/models"
)

type mockStore struct {
	entries   []models.AuditLogEntry
	failWrite bool
}

func (m *mockStore) InsertAuditEntry(_ context.Context, entry *models.AuditLogEntry) error {
	if m.failWrite {
		return errors.New("table locked")
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockStore) ListAuditEntries(_ context.Context, limit, offset int) ([]models.AuditLogEntry, error) {
	if offset >= len(m.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], nil
}

func TestRecordFillsIDAndTimestamp(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, logger.NewLogger())

	svc.Record(context.Background(), models.AuditLogEntry{
		ActorUserID: "u1",
		ActorEmail:  "admin@example.com",
		Action:      models.AuditActionCreate,
		EntityType:  "show",
		EntityID:    "show-1",
	})

	require.Len(t, store.entries, 1)
	assert.NotEmpty(t, store.entries[0].ID)
	assert.False(t, store.entries[0].CreatedAt.IsZero())
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	store := &mockStore{failWrite: true}
	svc := NewService(store, logger.NewLogger())

	// Must not panic or propagate the failure.
	svc.Record(context.Background(), models.AuditLogEntry{
		ActorUserID: "u1",
		ActorEmail:  "admin@example.com",
		Action:      models.AuditActionDelete,
		EntityType:  "page",
	})
	assert.Empty(t, store.entries)
}

func TestListClampsLimit(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, logger.NewLogger())
	for i := 0; i < 60; i++ {
		svc.Record(context.Background(), models.AuditLogEntry{
			ActorUserID: "u1",
			ActorEmail:  "admin@example.com",
			Action:      models.AuditActionUpdate,
			EntityType:  "show",
		})
	}

	entries, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)

	entries, err = svc.List(context.Background(), 1000, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)

	entries, err = svc.List(context.Background(), 10, 55)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}
