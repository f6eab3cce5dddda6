package orders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var errUpstream = errors.New("upstream 503")

type statusCall struct {
	ID     string
	Status ServerStatus
}

type fakeAPI struct {
	mu    sync.Mutex
	list  []Order
	calls []statusCall
	fail  map[string]error
	gate  map[string]chan struct{}
	lists int
}

func newFakeAPI(list ...Order) *fakeAPI {
	return &fakeAPI{list: list, fail: map[string]error{}, gate: map[string]chan struct{}{}}
}

func (f *fakeAPI) ListOrders(ctx context.Context) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]Order(nil), f.list...), nil
}

func (f *fakeAPI) UpdateStatus(ctx context.Context, id string, s ServerStatus) (Order, error) {
	f.mu.Lock()
	f.calls = append(f.calls, statusCall{ID: id, Status: s})
	gate := f.gate[id]
	err := f.fail[id]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return Order{}, err
	}
	return Order{ServerID: id}, nil
}

func (f *fakeAPI) hold(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gate[id] = ch
	return ch
}

func (f *fakeAPI) failWith(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[id] = err
}

func (f *fakeAPI) recorded() []statusCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]statusCall(nil), f.calls...)
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func order(serverID, displayID string, s Status) Order {
	return Order{
		ServerID:     serverID,
		DisplayID:    displayID,
		CustomerName: "Customer " + displayID,
		Status:       s,
		Type:         TypePickup,
		Items:        []Item{{ProductName: "Bread box", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
		Subtotal:     decimal.NewFromInt(5),
		TaxAmount:    decimal.RequireFromString("0.40"),
		Total:        decimal.RequireFromString("5.40"),
		CreatedAt:    t0,
	}
}
