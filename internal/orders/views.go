package orders

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Mode string

const (
	ModeLive    Mode = "live"
	ModeHistory Mode = "history"
)

type SortKey string

const (
	SortDateDesc  SortKey = "date_desc"
	SortDateAsc   SortKey = "date_asc"
	SortTotalDesc SortKey = "total_desc"
	SortTotalAsc  SortKey = "total_asc"
)

// Query is a read-only projection over the collection. Zero values mean
// "all": an empty Tab shows every active status, an empty Type every type.
// Live mode never shows cancelled orders.
type Query struct {
	Mode   Mode
	Tab    Status
	Search string
	Type   Type
	Date   time.Time // history mode only, compared by calendar day in Loc
	Sort   SortKey
	Loc    *time.Location
}

// ParseTab accepts "all" or a status name in any case.
func ParseTab(s string) (Status, error) {
	switch strings.ToUpper(s) {
	case "", "ALL":
		return "", nil
	case string(StatusNew), string(StatusPreparing), string(StatusReady), string(StatusCompleted):
		return Status(strings.ToUpper(s)), nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

func ParseType(s string) (Type, error) {
	switch strings.ToUpper(s) {
	case "", "ALL":
		return "", nil
	case string(TypePickup), string(TypeDelivery):
		return Type(strings.ToUpper(s)), nil
	}
	return "", fmt.Errorf("unknown order type %q", s)
}

func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortDateDesc, nil
	case SortDateDesc, SortDateAsc, SortTotalDesc, SortTotalAsc:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// Apply filters and sorts a copy of list. Ties keep collection order.
func (q Query) Apply(list []Order) []Order {
	loc := q.Loc
	if loc == nil {
		loc = time.UTC
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	day := dayOf(q.Date, loc)

	out := make([]Order, 0, len(list))
	for _, o := range list {
		if q.Mode == ModeHistory {
			if !q.Date.IsZero() && !dayOf(o.CreatedAt, loc).Equal(day) {
				continue
			}
		} else if o.Status == StatusCancelled || (q.Tab != "" && o.Status != q.Tab) {
			continue
		}
		if q.Type != "" && o.Type != q.Type {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), needle) &&
			!strings.Contains(strings.ToLower(o.DisplayID), needle) {
			continue
		}
		out = append(out, o)
	}

	less := lessFor(q.Sort)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func lessFor(k SortKey) func(a, b Order) bool {
	switch k {
	case SortDateAsc:
		return func(a, b Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortTotalDesc:
		return func(a, b Order) bool { return a.Total.GreaterThan(b.Total) }
	case SortTotalAsc:
		return func(a, b Order) bool { return a.Total.LessThan(b.Total) }
	default:
		return func(a, b Order) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Badges feed the navigation indicators. The counts overlap freely.
type Badges struct {
	NewOrders      int `json:"new_orders"`
	UnreadMessages int `json:"unread_messages"`
}

func CountBadges(list []Order) Badges {
	var b Badges
	for _, o := range list {
		if o.Status == StatusCancelled {
			continue
		}
		if o.Status == StatusNew {
			b.NewOrders++
		}
		if o.UnreadMessages > 0 {
			b.UnreadMessages++
		}
	}
	return b
}
