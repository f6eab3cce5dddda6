package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/alerts"
	"github.com/ariefcatur/go-merchant-console/internal/orders"
	"github.com/ariefcatur/go-merchant-console/internal/pricing"
	"github.com/ariefcatur/go-merchant-console/internal/products"
)

type stubAPI struct {
	list []orders.Order
	fail error
	sent []orders.ServerStatus
}

func (s *stubAPI) ListOrders(context.Context) ([]orders.Order, error) { return s.list, nil }

func (s *stubAPI) UpdateStatus(_ context.Context, id string, st orders.ServerStatus) (orders.Order, error) {
	s.sent = append(s.sent, st)
	if s.fail != nil {
		return orders.Order{}, s.fail
	}
	return orders.Order{ServerID: id}, nil
}

type stubProducts struct {
	items map[string]products.Product
}

func (s *stubProducts) ListProducts(context.Context) ([]products.Product, error) {
	out := make([]products.Product, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProducts) GetProduct(_ context.Context, id string) (products.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (s *stubProducts) UpdateStock(_ context.Context, id string, qty int) (products.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	p.SetQuantity(qty, time.Now())
	s.items[id] = p
	return p, nil
}

func (s *stubProducts) UpdatePricing(_ context.Context, id string, f pricing.Form) (products.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	if err := p.ApplyPricing(f); err != nil {
		return products.Product{}, err
	}
	s.items[id] = p
	return p, nil
}

type stubFeed struct{ list []alerts.Alert }

func (s stubFeed) Recent(context.Context, int64) ([]alerts.Alert, error) { return s.list, nil }

var day = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixture() []orders.Order {
	return []orders.Order{
		{ServerID: "srv-4039", DisplayID: "#4039", CustomerName: "Maria Lopez", Status: orders.StatusNew,
			Type: orders.TypeDelivery, Total: decimal.NewFromInt(20), CreatedAt: day, UnreadMessages: 1},
		{ServerID: "srv-4038", DisplayID: "#4038", CustomerName: "Joe Baker", Status: orders.StatusPreparing,
			Type: orders.TypePickup, Total: decimal.NewFromInt(12), CreatedAt: day.Add(-24 * time.Hour)},
	}
}

func newServer(t *testing.T, api *stubAPI) (*chi.Mux, *orders.Controller, *stubProducts) {
	t.Helper()
	ctl := orders.NewController(api, orders.NewStore(), nil)
	require.NoError(t, ctl.Refresh(context.Background()))

	ps := &stubProducts{items: map[string]products.Product{
		"p1": {ID: "p1", Name: "Bagels", Quantity: 3, IsFeatured: true, Status: products.StatusActive},
	}}
	r := NewRouter()
	(&OrdersHandler{Controller: ctl, Log: zap.NewNop()}).Register(r)
	(&ProductsHandler{Repo: ps}).Register(r)
	(&AlertsHandler{Orders: ctl.Store(), Products: ps, Feed: stubFeed{}, Now: func() time.Time { return day }, Log: zap.NewNop()}).Register(r)
	return r, ctl, ps
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestListOrdersFilters(t *testing.T) {
	r, _, _ := newServer(t, &stubAPI{list: fixture()})

	rec := do(t, r, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orders.Order](t, rec), 2)

	rec = do(t, r, http.MethodGet, "/orders?tab=preparing", "")
	got := decode[[]orders.Order](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "#4038", got[0].DisplayID)

	rec = do(t, r, http.MethodGet, "/orders?mode=history&date=2025-03-09&tab=new", "")
	got = decode[[]orders.Order](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "#4038", got[0].DisplayID)

	rec = do(t, r, http.MethodGet, "/orders?sort=total_asc&q=o", "")
	got = decode[[]orders.Order](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "#4038", got[0].DisplayID)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/orders?sort=name", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/orders?date=10/03/2025", "").Code)
}

func TestAcceptEndpoint(t *testing.T) {
	api := &stubAPI{list: fixture()}
	r, _, _ := newServer(t, api)

	rec := do(t, r, http.MethodPost, "/orders/srv-4039/accept", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[transitionResp](t, rec)
	assert.Equal(t, orders.OutcomeCommitted, resp.Outcome)
	require.NotNil(t, resp.Order)
	assert.Equal(t, orders.StatusPreparing, resp.Order.Status)
	assert.Equal(t, []orders.ServerStatus{orders.ServerPreparing}, api.sent)

	rec = do(t, r, http.MethodPost, "/orders/srv-4039/complete", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, orders.OutcomeRejected, decode[transitionResp](t, rec).Outcome)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/orders/srv-4039/teleport", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/orders/nope/ready", "").Code)
}

func TestAcceptEndpointRollback(t *testing.T) {
	r, ctl, _ := newServer(t, &stubAPI{list: fixture(), fail: errors.New("upstream down")})

	rec := do(t, r, http.MethodPost, "/orders/srv-4039/accept", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[transitionResp](t, rec)
	assert.Equal(t, orders.OutcomeRolledBack, resp.Outcome)
	assert.Contains(t, resp.Error, "upstream down")
	assert.Equal(t, orders.StatusNew, resp.Order.Status)

	o, _ := ctl.Store().Get("srv-4039")
	assert.Equal(t, orders.StatusNew, o.Status)
}

func TestCancelEndpoint(t *testing.T) {
	api := &stubAPI{list: fixture()}
	r, _, _ := newServer(t, api)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/orders/srv-4038", "").Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/detail", "").Code)

	rec := do(t, r, http.MethodPost, "/orders/srv-4038/cancel", `{"confirm":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.OutcomeUnchanged, decode[transitionResp](t, rec).Outcome)
	assert.Empty(t, api.sent)

	rec = do(t, r, http.MethodPost, "/orders/srv-4038/cancel", `{"confirm":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[transitionResp](t, rec)
	assert.Equal(t, orders.OutcomeCommitted, resp.Outcome)
	assert.Nil(t, resp.Order)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodGet, "/detail", "").Code)
	assert.Len(t, decode[[]orders.Order](t, do(t, r, http.MethodGet, "/orders", "")), 1)
	assert.Len(t, decode[[]orders.Order](t, do(t, r, http.MethodGet, "/orders?mode=history", "")), 2)

	// upstream reports the order as cancelled on the next refresh
	api.list = fixture()
	api.list[1].Status = orders.StatusCancelled
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/orders/refresh", "").Code)
	live := decode[[]orders.Order](t, do(t, r, http.MethodGet, "/orders", ""))
	require.Len(t, live, 1)
	assert.Equal(t, "#4039", live[0].DisplayID)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/orders/srv-4039/cancel", "nope").Code)
}

func TestBadgesAndAlerts(t *testing.T) {
	r, _, _ := newServer(t, &stubAPI{list: fixture()})

	b := decode[orders.Badges](t, do(t, r, http.MethodGet, "/badges", ""))
	assert.Equal(t, orders.Badges{NewOrders: 1, UnreadMessages: 1}, b)

	list := decode[[]alerts.Alert](t, do(t, r, http.MethodGet, "/alerts", ""))
	assert.Len(t, list, 2)

	rec := do(t, r, http.MethodGet, "/alerts/feed?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type brokenProducts struct{ stubProducts }

func (brokenProducts) ListProducts(context.Context) ([]products.Product, error) {
	return nil, errors.New("db down")
}

func TestAlertsWithoutLoggerSurvivesProductError(t *testing.T) {
	ctl := orders.NewController(&stubAPI{list: fixture()}, orders.NewStore(), nil)
	require.NoError(t, ctl.Refresh(context.Background()))
	r := NewRouter()
	(&AlertsHandler{Orders: ctl.Store(), Products: &brokenProducts{}, Feed: stubFeed{}}).Register(r)

	rec := do(t, r, http.MethodGet, "/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]alerts.Alert](t, rec), 2, "order alerts still come through")
}

func TestProductStockSoldOut(t *testing.T) {
	r, _, ps := newServer(t, &stubAPI{})

	rec := do(t, r, http.MethodPatch, "/products/p1/stock", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[products.Product](t, rec)
	assert.Equal(t, products.StatusSoldOut, p.Status)
	assert.False(t, p.IsFeatured)
	assert.False(t, ps.items["p1"].IsFeatured)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPatch, "/products/p1/stock", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/products/zz/stock", `{"quantity":1}`).Code)
}

func TestProductPricing(t *testing.T) {
	r, _, _ := newServer(t, &stubAPI{})

	rec := do(t, r, http.MethodPut, "/products/p1/pricing",
		`{"original_price":"10.00","discount_percent":30,"discounted_price":"7.00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[products.Product](t, rec)
	assert.Equal(t, int64(30), p.DiscountPercent)

	rec = do(t, r, http.MethodPut, "/products/p1/pricing", `{"original_price":null,"discount_percent":30,"discounted_price":null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/products/p1/pricing",
		`{"original_price":"10.00","discount_percent":30,"discounted_price":"9.00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	r, _, _ := newServer(t, &stubAPI{})

	rec := do(t, r, http.MethodPost, "/pricing/reconcile",
		`{"form":{"original_price":"12.00","discount_percent":null,"discounted_price":"12.00"},"field":"discount_percent","value":"25"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[reconcileResp](t, rec)
	assert.True(t, resp.Consistent)
	assert.Equal(t, pricing.NewPercent(25), resp.Form.DiscountPercent)
	assert.True(t, decimal.NewFromInt(9).Equal(resp.Form.DiscountedPrice.Decimal))

	rec = do(t, r, http.MethodPost, "/pricing/reconcile", `{"form":{},"field":"quantity","value":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
