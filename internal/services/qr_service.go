package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/Asunoke/zayno/internal/config"
	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

// QRService issues receive-money QR codes. A code embeds the recipient's
// ZYN number, verified name and an optional requested amount; the payload
// lives in Redis for a few minutes so a scanned code can be validated and
// used exactly once.
type QRService struct {
	db    *sql.DB
	redis *redis.Client
	cfg   *config.BankingConfig
}

// ReceivePayload is what a scanned code resolves to. The payer's client
// pre-fills the transfer form from it.
type ReceivePayload struct {
	ZynID    string `json:"zynId"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"` // 0 means the payer chooses
	IssuedAt int64  `json:"issuedAt"`
	Nonce    string `json:"nonce"`
}

func NewQRService(db *sql.DB, redis *redis.Client) *QRService {
	return &QRService{
		db:    db,
		redis: redis,
		cfg:   config.GetBankingConfig(),
	}
}

// GenerateReceiveCode builds a single-use QR code asking to be paid. The
// ZYN number must belong to an active account; the account's name is
// embedded so the payer sees who they are paying before confirming.
func (s *QRService) GenerateReceiveCode(ctx context.Context, zynID string, amount int64) (string, string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM accounts WHERE zyn_id = $1 AND is_active = TRUE`, zynID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrAccountNotFound
	}
	if err != nil {
		return "", "", transientErr("qr recipient lookup", err)
	}

	payload := ReceivePayload{
		ZynID:    zynID,
		Name:     name,
		Amount:   amount,
		IssuedAt: time.Now().Unix(),
		Nonce:    generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	qrCode := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("qr:%s", qrCode)
	if err := s.redis.Set(ctx, key, jsonData, s.cfg.QRCodeTTL).Err(); err != nil {
		return "", "", transientErr("qr store", err)
	}

	qr, err := qrcode.New(qrCode, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return qrCode, qrImage, nil
}

// ResolveCode validates a scanned code and consumes it. A code that was
// never issued, already used or past its TTL resolves the same way.
func (s *QRService) ResolveCode(ctx context.Context, qrData string) (*ReceivePayload, error) {
	key := fmt.Sprintf("qr:%s", qrData)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrRequestExpired
	}
	if err != nil {
		return nil, transientErr("qr lookup", err)
	}

	var payload ReceivePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return &payload, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
