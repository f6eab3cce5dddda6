package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/orders"
)

type OrdersHandler struct {
	Controller *orders.Controller
	Loc        *time.Location
	Log        *zap.Logger
}

type transitionResp struct {
	Outcome orders.Outcome `json:"outcome"`
	Order   *orders.Order  `json:"order,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type cancelReq struct {
	Confirm bool `json:"confirm"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders/refresh", h.refresh)
	r.Get("/orders/{id}", h.openDetail)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Post("/orders/{id}/{action}", h.transition)
	r.Get("/detail", h.detail)
	r.Delete("/detail", h.closeDetail)
	r.Get("/badges", h.badges)
}

func (h *OrdersHandler) loc() *time.Location {
	if h.Loc != nil {
		return h.Loc
	}
	return time.UTC
}

func (h *OrdersHandler) parseQuery(r *http.Request) (orders.Query, error) {
	v := r.URL.Query()
	q := orders.Query{Mode: orders.ModeLive, Search: v.Get("q"), Loc: h.loc()}
	var err error
	if v.Get("mode") == string(orders.ModeHistory) {
		q.Mode = orders.ModeHistory
	}
	if q.Tab, err = orders.ParseTab(v.Get("tab")); err != nil {
		return q, err
	}
	if q.Type, err = orders.ParseType(v.Get("type")); err != nil {
		return q, err
	}
	if q.Sort, err = orders.ParseSort(v.Get("sort")); err != nil {
		return q, err
	}
	if d := v.Get("date"); d != "" {
		if q.Date, err = time.ParseInLocation(time.DateOnly, d, q.Loc); err != nil {
			return q, errors.New("date must be YYYY-MM-DD")
		}
	}
	return q, nil
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list := h.Controller.Store().All()
	if q.Mode == orders.ModeHistory {
		list = h.Controller.Store().History()
	}
	writeJSON(w, http.StatusOK, q.Apply(list))
}

func (h *OrdersHandler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Controller.Refresh(ctx); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"orders": h.Controller.Store().Len()})
}

func (h *OrdersHandler) openDetail(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Controller.Select(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) detail(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Controller.Selected()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) closeDetail(w http.ResponseWriter, r *http.Request) {
	h.Controller.CloseDetail()
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) badges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orders.CountBadges(h.Controller.Store().All()))
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := orders.ParseAction(chi.URLParam(r, "action"))
	if !ok || a == orders.ActionCancel {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	out, err := h.Controller.Do(r.Context(), id, a)
	h.respond(w, id, out, err)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")
	out, err := h.Controller.Cancel(r.Context(), id, func(orders.Order) bool { return req.Confirm })
	h.respond(w, id, out, err)
}

func (h *OrdersHandler) respond(w http.ResponseWriter, id string, out orders.Outcome, err error) {
	resp := transitionResp{Outcome: out}
	if o, ok := h.Controller.Store().Get(id); ok {
		resp.Order = &o
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, statusFor(out, err), resp)
}

func statusFor(out orders.Outcome, err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInFlight), out == orders.OutcomeRejected:
		return http.StatusConflict
	case err != nil:
		return http.StatusBadGateway
	}
	return http.StatusOK
}
