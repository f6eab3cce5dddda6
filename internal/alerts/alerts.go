// Package alerts builds the merchant's notification list from the order and
// product collections and from order status events.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/go-merchant-console/internal/orders"
	"github.com/ariefcatur/go-merchant-console/internal/products"
)

type Kind string

const (
	KindNewOrder       Kind = "NEW_ORDER"
	KindUnreadMessages Kind = "UNREAD_MESSAGES"
	KindSoldOut        Kind = "SOLD_OUT"
	KindExpiringSoon   Kind = "EXPIRING_SOON"
	KindExpired        Kind = "EXPIRED"
	KindStatusChanged  Kind = "STATUS_CHANGED"
)

// ExpiringWindow is how far ahead a product counts as expiring soon.
const ExpiringWindow = 48 * time.Hour

type Alert struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Ref     string    `json:"ref"` // order server id or product id
	At      time.Time `json:"at"`
}

// Build derives the alert list, newest first.
func Build(list []orders.Order, ps []products.Product, now time.Time) []Alert {
	var out []Alert
	for _, o := range list {
		if o.Status == orders.StatusCancelled {
			continue
		}
		if o.Status == orders.StatusNew {
			out = append(out, Alert{
				ID:      string(KindNewOrder) + ":" + o.ServerID,
				Kind:    KindNewOrder,
				Title:   "New order " + o.DisplayID,
				Message: fmt.Sprintf("%s placed a %s order (%s)", o.CustomerName, typeLabel(o.Type), o.Total.StringFixed(2)),
				Ref:     o.ServerID,
				At:      o.CreatedAt,
			})
		}
		if o.UnreadMessages > 0 {
			out = append(out, Alert{
				ID:      string(KindUnreadMessages) + ":" + o.ServerID,
				Kind:    KindUnreadMessages,
				Title:   "Messages on " + o.DisplayID,
				Message: fmt.Sprintf("%d unread from %s", o.UnreadMessages, o.CustomerName),
				Ref:     o.ServerID,
				At:      o.CreatedAt,
			})
		}
	}

	for _, p := range ps {
		switch p.DeriveStatus(now) {
		case products.StatusSoldOut:
			out = append(out, productAlert(KindSoldOut, p, p.Name+" is sold out", p.UpdatedAt))
		case products.StatusExpired:
			out = append(out, productAlert(KindExpired, p, p.Name+" has expired", p.ExpiryDate))
		case products.StatusActive:
			if !p.ExpiryDate.IsZero() && p.ExpiryDate.Sub(now) <= ExpiringWindow {
				msg := fmt.Sprintf("%s expires %s, %d left", p.Name, p.ExpiryDate.Format("Jan 2 15:04"), p.Quantity)
				out = append(out, productAlert(KindExpiringSoon, p, msg, now))
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

func productAlert(k Kind, p products.Product, msg string, at time.Time) Alert {
	return Alert{
		ID:      string(k) + ":" + p.ID,
		Kind:    k,
		Title:   p.Name,
		Message: msg,
		Ref:     p.ID,
		At:      at,
	}
}

// FromStatusChange turns a committed transition into a feed entry.
func FromStatusChange(eventID string, p orders.StatusChangedPayload, at time.Time) Alert {
	msg := fmt.Sprintf("Order %s moved from %s to %s", p.DisplayID, p.From, p.To)
	if p.To == orders.StatusCancelled {
		msg = fmt.Sprintf("Order %s was cancelled", p.DisplayID)
	}
	return Alert{
		ID:      eventID,
		Kind:    KindStatusChanged,
		Title:   "Order " + p.DisplayID,
		Message: msg,
		Ref:     p.ServerID,
		At:      at,
	}
}

func typeLabel(t orders.Type) string {
	if t == orders.TypeDelivery {
		return "delivery"
	}
	return "pickup"
}
