package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventOrderStatusChanged = "OrderStatusChanged"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	MerchantID    string          `json:"merchant_id"`
	CorrelationID string          `json:"correlation_id,omitempty"` // server order id
	Payload       json.RawMessage `json:"payload"`
}

type StatusChangedPayload struct {
	ServerID     string          `json:"server_id"`
	DisplayID    string          `json:"display_id"`
	CustomerName string          `json:"customer_name"`
	From         Status          `json:"from"`
	To           Status          `json:"to"`
	Total        decimal.Decimal `json:"total"`
}

// NewStatusChangedEvent wraps a committed change in a v1 envelope.
func NewStatusChangedEvent(producer, merchantID string, c Change, at time.Time) (Envelope, error) {
	payload, err := json.Marshal(StatusChangedPayload{
		ServerID:     c.ID,
		DisplayID:    c.After.DisplayID,
		CustomerName: c.After.CustomerName,
		From:         c.Before.Status,
		To:           c.After.Status,
		Total:        c.After.Total,
	})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		MerchantID:    merchantID,
		CorrelationID: c.ID,
		Payload:       payload,
	}, nil
}
