package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"venue-cms/internal/models"
)

// Key normalizes an arbitrary secret string to a 32-byte AES key.
func Key(secret string) []byte {
	hashed := sha256.Sum256([]byte(secret))
	return hashed[:]
}

// passPayload is what a door scanner decrypts from the QR code. It only
// carries what the gate needs to admit the holder.
type passPayload struct {
	OrderNumber string    `json:"order_number"`
	ShowTitle   string    `json:"show_title"`
	ShowDate    time.Time `json:"show_date"`
	HolderName  string    `json:"holder_name"`
	Tickets     []passTicket `json:"tickets"`
	IssuedAt    time.Time `json:"issued_at"`
}

type passTicket struct {
	TierLabel string `json:"tier_label"`
	Quantity  int    `json:"quantity"`
}

// OrderPass renders the order's entry pass as a 256px PNG QR code whose
// payload is AES-encrypted with the given 32-byte key.
func OrderPass(order *models.Order, key []byte) ([]byte, error) {
	payload := passPayload{
		OrderNumber: order.OrderNumber,
		ShowTitle:   order.ShowTitle,
		ShowDate:    order.ShowDate,
		HolderName:  order.UserName,
		IssuedAt:    time.Now().UTC(),
	}
	for _, t := range order.Tickets {
		payload.Tickets = append(payload.Tickets, passTicket{
			TierLabel: t.TierLabel,
			Quantity:  t.Quantity,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encrypted, err := encryptAES(data, key)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
