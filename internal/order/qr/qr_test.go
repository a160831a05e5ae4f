package qr

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-cms/internal/models"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:          "ord-1",
		OrderNumber: "000000010001",
		UserName:    "Buyer",
		ShowTitle:   "Evening Gala",
		ShowDate:    time.Date(2026, 10, 1, 19, 30, 0, 0, time.UTC),
		Tickets: []models.OrderTicket{
			{TierLabel: "General", Quantity: 2},
		},
	}
}

func TestKeyIs32Bytes(t *testing.T) {
	assert.Len(t, Key("any secret"), 32)
	assert.Len(t, Key(""), 32)
	assert.NotEqual(t, Key("a"), Key("b"))
}

func TestOrderPassProducesPNG(t *testing.T) {
	png, err := OrderPass(sampleOrder(), Key("secret"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestOrderPassPayloadIsEncrypted(t *testing.T) {
	first, err := OrderPass(sampleOrder(), Key("secret"))
	require.NoError(t, err)
	second, err := OrderPass(sampleOrder(), Key("secret"))
	require.NoError(t, err)

	// A random IV per pass means two renders of the same order differ.
	assert.NotEqual(t, first, second)
}

func TestOrderPassRejectsBadKey(t *testing.T) {
	_, err := OrderPass(sampleOrder(), []byte("short"))
	assert.Error(t, err)
}
