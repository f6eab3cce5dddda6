package ordersapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-merchant-console/internal/orders"
)

type statusBody struct {
	Status orders.ServerStatus `json:"status"`
}

type itemRecord struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// orderRecord is the upstream wire shape of an order.
type orderRecord struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerName   string          `json:"customer_name"`
	Status         string          `json:"status"`
	Type           string          `json:"type"`
	Items          []itemRecord    `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
	UnreadMessages int             `json:"unread_messages"`
}

func (r orderRecord) toOrder() (orders.Order, error) {
	if r.ID == "" {
		return orders.Order{}, fmt.Errorf("missing id")
	}
	status, err := orders.ParseServerStatus(r.Status)
	if err != nil {
		return orders.Order{}, err
	}
	typ := orders.TypePickup
	if strings.EqualFold(r.Type, string(orders.TypeDelivery)) {
		typ = orders.TypeDelivery
	}
	items := make([]orders.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, orders.Item{ProductName: it.ProductName, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return orders.Order{
		ServerID:       r.ID,
		DisplayID:      displayID(r.OrderNumber, r.ID),
		CustomerName:   r.CustomerName,
		Status:         status,
		Type:           typ,
		Items:          items,
		Subtotal:       r.Subtotal,
		TaxAmount:      r.TaxAmount,
		Total:          r.Total,
		CreatedAt:      r.CreatedAt,
		UnreadMessages: r.UnreadMessages,
	}, nil
}

// displayID formats the human-facing code, e.g. "4039" -> "#4039".
func displayID(number, serverID string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		number = serverID
	}
	if strings.HasPrefix(number, "#") {
		return number
	}
	return "#" + number
}
