package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/edgestore/storefront/internal/domain/catalog"
	"github.com/edgestore/storefront/internal/flow"
)

type productView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents"`
	PriceDisplay string `json:"price_display"`
	Image        string `json:"image,omitempty"`
}

type cartLineView struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type cartView struct {
	Items        []cartLineView `json:"items"`
	Count        int            `json:"count"`
	TotalCents   int64          `json:"total_cents"`
	TotalDisplay string         `json:"total_display"`
}

type stateView struct {
	AuthState      string   `json:"auth_state"`
	Username       string   `json:"username,omitempty"`
	Notice         string   `json:"notice,omitempty"`
	LoginRequested bool     `json:"login_requested"`
	Cart           cartView `json:"cart"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type cartAction struct {
	ID string `json:"id"`
}

// State reports the whole storefront state in one read, for the UI to render.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateView())
}

// Products lists the cached catalog.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products := h.store.Products()
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = toProductView(p)
	}
	writeJSON(w, http.StatusOK, views)
}

// AddToCart adds one unit of the given product.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartAction
	if !decodeBody(w, r, &req) {
		return
	}
	if _, ok := h.store.Product(req.ID); !ok {
		writeError(w, http.StatusNotFound, "unknown product")
		return
	}
	h.store.AddToCart(req.ID)
	writeJSON(w, http.StatusOK, h.cartView())
}

// RemoveFromCart removes one unit of the given product. Removing a product
// that is not in the cart is a no-op.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartAction
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.RemoveFromCart(req.ID)
	writeJSON(w, http.StatusOK, h.cartView())
}

// Login authenticates and answers with the refreshed state.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.store.Login)
}

// Register creates an account and answers with the refreshed state.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.store.Register)
}

func (h *Handler) authenticate(
	w http.ResponseWriter,
	r *http.Request,
	submit func(ctx context.Context, username, password string) error,
) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}

	if err := submit(r.Context(), req.Username, req.Password); err != nil {
		logRequestError(r, "auth submission failed", err)
		writeError(w, http.StatusUnauthorized, userMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, h.stateView())
}

// Logout wipes session and cart state synchronously.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		logRequestError(r, "logout failed", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout initiates payment. On success it answers with exactly one
// navigation: a 303 redirect to the externally returned URL.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	url, err := h.store.Checkout(r.Context())
	switch {
	case errors.Is(err, flow.ErrLoginRequired):
		writeError(w, http.StatusUnauthorized, "login required")
	case errors.Is(err, flow.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "Cart empty")
	case err != nil:
		logRequestError(r, "checkout failed", err)
		writeError(w, http.StatusBadGateway, userMessage(err))
	default:
		http.Redirect(w, r, url, http.StatusSeeOther)
	}
}

// RefreshCatalog refetches the product list and replaces the cache.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RefreshCatalog(r.Context()); err != nil {
		logRequestError(r, "catalog refresh failed", err)
		writeError(w, http.StatusBadGateway, "catalog refresh failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stateView() stateView {
	view := stateView{
		AuthState:      h.store.AuthState().String(),
		Notice:         h.store.Notice(),
		LoginRequested: h.store.LoginRequested(),
		Cart:           h.cartView(),
	}
	if sess := h.store.Session(); sess != nil {
		view.Username = sess.User.Username
	}
	return view
}

func (h *Handler) cartView() cartView {
	lines := h.store.CartLines()
	items := make([]cartLineView, len(lines))
	for i, l := range lines {
		items[i] = cartLineView{ID: l.ProductID, Quantity: l.Quantity}
	}
	total := h.store.CartTotalCents()
	return cartView{
		Items:        items,
		Count:        h.store.CartCount(),
		TotalCents:   total,
		TotalDisplay: decimal.New(total, -2).StringFixed(2),
	}
}

// userMessage extracts the user-facing message from a flow failure.
func userMessage(err error) string {
	var f *flow.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}

func toProductView(p catalog.Product) productView {
	return productView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PriceCents:   p.PriceCents,
		PriceDisplay: p.DisplayPrice().StringFixed(2),
		Image:        p.Image,
	}
}
