package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePickup   Type = "PICKUP"
	TypeDelivery Type = "DELIVERY"
)

type Order struct {
	ServerID       string          `json:"server_id"`  // backend record id, used for API calls
	DisplayID      string          `json:"display_id"` // e.g. "#4039"
	CustomerName   string          `json:"customer_name"`
	Status         Status          `json:"status"`
	Type           Type            `json:"type"`
	Items          []Item          `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
	UnreadMessages int             `json:"unread_messages"`
}

// Item lines are fixed once the order is placed.
type Item struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (o Order) clone() Order {
	if o.Items != nil {
		o.Items = append([]Item(nil), o.Items...)
	}
	return o
}

func (o Order) withStatus(s Status) Order {
	o = o.clone()
	o.Status = s
	return o
}
