package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const notificationQueue = "zayno:notifications"

// Notifier pushes customer-facing events onto a Redis queue consumed by
// the messaging workers (SMS, push). Delivery is best effort: a failed
// push is logged and never blocks the ledger operation that produced it.
type Notifier struct {
	redis *redis.Client
}

type Notification struct {
	AccountID string    `json:"account_id"`
	Event     string    `json:"event"`
	Message   string    `json:"message"`
	Amount    int64     `json:"amount,omitempty"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

// Notify enqueues an event for the account. No-op when Redis is down.
func (n *Notifier) Notify(ctx context.Context, notification Notification) {
	if n == nil || n.redis == nil {
		return
	}

	notification.CreatedAt = time.Now()
	data, err := json.Marshal(notification)
	if err != nil {
		log.Printf("[NOTIFY] marshal failed: %v", err)
		return
	}

	if err := n.redis.RPush(ctx, notificationQueue, string(data)).Err(); err != nil {
		log.Printf("[NOTIFY] push failed for account %s: %v", notification.AccountID, err)
	}
}
