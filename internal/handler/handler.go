// Package handler exposes the storefront state and actions over JSON HTTP.
// It is presentation glue: every state transition lives in the flow package.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/edgestore/storefront/internal/flow"
)

// Handler serves the storefront presentation API.
type Handler struct {
	store *flow.Storefront
}

// NewHandler creates a Handler over the given storefront aggregate.
func NewHandler(store *flow.Storefront) *Handler {
	return &Handler{store: store}
}

// Routes registers all storefront endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /storefront/state", h.State)
	mux.HandleFunc("GET /storefront/products", h.Products)
	mux.HandleFunc("POST /storefront/cart/add", h.AddToCart)
	mux.HandleFunc("POST /storefront/cart/remove", h.RemoveFromCart)
	mux.HandleFunc("POST /storefront/login", h.Login)
	mux.HandleFunc("POST /storefront/register", h.Register)
	mux.HandleFunc("POST /storefront/logout", h.Logout)
	mux.HandleFunc("POST /storefront/checkout", h.Checkout)
	mux.HandleFunc("POST /storefront/catalog/refresh", h.RefreshCatalog)
}

// errorBody is the JSON error shape for every endpoint.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Code: status, Message: message})
}

// decodeBody decodes the request body into v, answering 400 on garbage.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func logRequestError(r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Warn(msg, zap.Error(err))
}
