package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-merchant-console/internal/pricing"
	"github.com/ariefcatur/go-merchant-console/internal/products"
)

type ProductStore interface {
	ListProducts(ctx context.Context) ([]products.Product, error)
	GetProduct(ctx context.Context, id string) (products.Product, error)
	UpdateStock(ctx context.Context, id string, qty int) (products.Product, error)
	UpdatePricing(ctx context.Context, id string, f pricing.Form) (products.Product, error)
}

type ProductsHandler struct {
	Repo ProductStore
}

type stockReq struct {
	Quantity *int `json:"quantity"`
}

type reconcileReq struct {
	Form  pricing.Form  `json:"form"`
	Field pricing.Field `json:"field"`
	Value string        `json:"value"`
}

type reconcileResp struct {
	Form       pricing.Form `json:"form"`
	Consistent bool         `json:"consistent"`
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Patch("/products/{id}/stock", h.updateStock)
	r.Put("/products/{id}/pricing", h.updatePricing)
	r.Post("/pricing/reconcile", h.reconcile)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListProducts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	var req stockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.UpdateStock(ctx, chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) updatePricing(w http.ResponseWriter, r *http.Request) {
	var f pricing.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.UpdatePricing(ctx, chi.URLParam(r, "id"), f)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// reconcile applies one form edit and returns the re-derived fields.
func (h *ProductsHandler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	f, err := pricing.Reconcile(req.Form, req.Field, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reconcileResp{Form: f, Consistent: f.Consistent()})
}

func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, products.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, products.ErrIncompletePricing), errors.Is(err, products.ErrInconsistentPricing):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
