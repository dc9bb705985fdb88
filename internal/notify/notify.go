package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/pkg/clients"
	"github.com/GlebRadaev/settlement/pkg/workerpool"
)

const (
	EventCommissionEarned  = "commission.earned"
	EventPayoutCreated     = "payout.created"
	EventPayoutCompleted   = "payout.completed"
	EventPayoutRejected    = "payout.rejected"
	EventPayoutStale       = "payout.stale"
	EventStorageFreePeriod = "storage.free_period_ending"
	EventStorageFeeCharged = "storage.fee_charged"
	EventBalanceDrift      = "balance.drift_detected"
)

// Event is the payload handed to the notification module.
type Event struct {
	Type       string    `json:"type"`
	AccountID  int64     `json:"account_id"`
	EntityID   int64     `json:"entity_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Pool interface {
	TryAddTask(task workerpool.Task) bool
}

// Notifier delivers events in the background. Publish never blocks the caller
// and delivery is attempted once.
type Notifier struct {
	url    string
	client clients.HTTPClientI
	pool   Pool
}

func New(url string, client clients.HTTPClientI, pool Pool) *Notifier {
	return &Notifier{
		url:    url,
		client: client,
		pool:   pool,
	}
}

func (n *Notifier) Publish(_ context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	fields := []zap.Field{
		zap.String("type", event.Type),
		zap.Int64("account_id", event.AccountID),
		zap.Int64("entity_id", event.EntityID),
		zap.String("reference", event.Reference),
	}

	if n.url == "" {
		zap.L().Info("notification", fields...)
		metrics.RecordNotification(event.Type, "logged")
		return
	}

	if !n.pool.TryAddTask(func() error { return n.deliver(event) }) {
		zap.L().Warn("notification queue is full, event dropped", fields...)
		metrics.RecordNotification(event.Type, "dropped")
	}
}

func (n *Notifier) deliver(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		metrics.RecordNotification(event.Type, "failed")
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	status, _, err := n.client.Post(n.url, headers, body)
	if err != nil {
		metrics.RecordNotification(event.Type, "failed")
		return fmt.Errorf("deliver %s event: %w", event.Type, err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		metrics.RecordNotification(event.Type, "failed")
		return fmt.Errorf("deliver %s event: unexpected status %d", event.Type, status)
	}
	metrics.RecordNotification(event.Type, "sent")
	return nil
}
