package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const maxRequestBody = 1 << 16

// GET v1/catalog?category=Men&search=shirt (200 OK)

type CatalogHandler struct {
	filterer port.CatalogFilterer
}

func RegisterCatalog(r chi.Router, filterer port.CatalogFilterer) {
	h := CatalogHandler{filterer}
	r.Get("/catalog", h.GetCatalog)
}

func (h CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		category = domain.AllCategories
	}

	view := h.filterer.FilterCatalog(category, q.Get("search"))
	writeJSON(w, http.StatusOK, CatalogView{Categories: fromCatalog(view)})
}

// GET v1/storefront (200 OK)
// PUT v1/storefront/category JSON {"category": string} (200 OK, 400 Bad request)
// PUT v1/storefront/search JSON {"term": string} (200 OK, 400 Bad request)

type StorefrontHandler struct {
	viewer port.StorefrontViewer
}

func RegisterStorefront(r chi.Router, viewer port.StorefrontViewer) {
	h := StorefrontHandler{viewer}
	r.Route("/storefront", func(r chi.Router) {
		r.Get("/", h.GetStorefront)
		r.Put("/category", h.PutCategory)
		r.Put("/search", h.PutSearch)
	})
}

func (h StorefrontHandler) GetStorefront(w http.ResponseWriter, r *http.Request) {
	snap := h.viewer.Snapshot(sessionID(r.Context()))
	writeJSON(w, http.StatusOK, fromSnapshot(snap))
}

func (h StorefrontHandler) PutCategory(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.PutCategory"

	var req CategoryRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	snap, err := h.viewer.SelectCategory(r.Context(), sessionID(r.Context()), req.Category)
	respondSnapshot(w, r, op, snap, err)
}

func (h StorefrontHandler) PutSearch(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.PutSearch"

	var req SearchRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	snap, err := h.viewer.Search(r.Context(), sessionID(r.Context()), req.Term)
	respondSnapshot(w, r, op, snap, err)
}

// GET v1/cart (200 OK)
// POST v1/cart/visibility (200 OK)
// POST v1/cart/items JSON {"product_id": int} (200 OK, 400 Bad request, 404 Not found)
// DELETE v1/cart/items/{productID} (200 OK)
// POST v1/cart/items/{productID}/increase (200 OK)
// POST v1/cart/items/{productID}/decrease (200 OK)

type CartHandler struct {
	viewer port.StorefrontViewer
	editor port.CartEditor
}

func RegisterCart(r chi.Router, viewer port.StorefrontViewer, editor port.CartEditor) {
	h := CartHandler{viewer, editor}
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/visibility", h.PostVisibility)
		r.Post("/items", h.PostItem)
		r.Route("/items/{productID}", func(r chi.Router) {
			r.Delete("/", h.DeleteItem)
			r.Post("/increase", h.PostIncrease)
			r.Post("/decrease", h.PostDecrease)
		})
	})
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	snap := h.viewer.Snapshot(sessionID(r.Context()))
	writeJSON(w, http.StatusOK, fromCart(snap.Cart, snap.CartVisible))
}

func (h CartHandler) PostVisibility(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostVisibility"
	snap, err := h.viewer.ToggleCart(r.Context(), sessionID(r.Context()))
	respondCart(w, r, op, snap, err)
}

func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"

	var req AddItemRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}
	if req.ProductID == nil {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	snap, err := h.editor.AddToCart(r.Context(), sessionID(r.Context()), *req.ProductID)
	respondCart(w, r, op, snap, err)
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"
	h.editItem(w, r, op, h.editor.RemoveFromCart)
}

func (h CartHandler) PostIncrease(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostIncrease"
	h.editItem(w, r, op, h.editor.IncreaseQuantity)
}

func (h CartHandler) PostDecrease(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostDecrease"
	h.editItem(w, r, op, h.editor.DecreaseQuantity)
}

type cartEditFunc func(
	ctx context.Context, sessionID string, productID int64,
) (domain.Snapshot, error)

func (h CartHandler) editItem(
	w http.ResponseWriter, r *http.Request, op string, edit cartEditFunc,
) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	snap, err := edit(r.Context(), sessionID(r.Context()), productID)
	respondCart(w, r, op, snap, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("failed to parse JSON", "op", op, "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return false
	}
	return true
}

func respondSnapshot(
	w http.ResponseWriter, r *http.Request, op string, snap domain.Snapshot, err error,
) {
	if err != nil {
		respondErr(w, op, err)
		return
	}
	setSessionCookie(w, r, snap.SessionID)
	writeJSON(w, http.StatusOK, fromSnapshot(snap))
}

func respondCart(
	w http.ResponseWriter, r *http.Request, op string, snap domain.Snapshot, err error,
) {
	if err != nil {
		respondErr(w, op, err)
		return
	}
	setSessionCookie(w, r, snap.SessionID)
	writeJSON(w, http.StatusOK, fromCart(snap.Cart, snap.CartVisible))
}

func respondErr(w http.ResponseWriter, op string, err error) {
	log := slog.With("op", op)

	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn("request cancelled", "err", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable")
	default:
		log.Error("unexpected error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}
