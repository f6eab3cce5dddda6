package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/alerts"
	"github.com/ariefcatur/go-merchant-console/internal/orders"
	"github.com/ariefcatur/go-merchant-console/internal/products"
)

type FeedReader interface {
	Recent(ctx context.Context, n int64) ([]alerts.Alert, error)
}

type AlertsHandler struct {
	Orders   *orders.Store
	Products ProductStore
	Feed     FeedReader
	Now      func() time.Time
	Log      *zap.Logger
}

func (h *AlertsHandler) Register(r chi.Router) {
	r.Get("/alerts", h.list)
	r.Get("/alerts/feed", h.feed)
}

func (h *AlertsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// product alerts are best effort; order alerts come from the session
	var ps []products.Product
	if h.Products != nil {
		var err error
		if ps, err = h.Products.ListProducts(ctx); err != nil {
			h.Log.Warn("product alerts unavailable", zap.Error(err))
		}
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	writeJSON(w, http.StatusOK, alerts.Build(h.Orders.All(), ps, now))
}

func (h *AlertsHandler) logger() *zap.Logger {
	if h.Log != nil {
		return h.Log
	}
	return zap.NewNop()
}

func (h *AlertsHandler) feed(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Feed.Recent(ctx, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}
