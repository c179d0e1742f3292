package flow

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/edgestore/storefront/internal/domain/cart"
	"github.com/edgestore/storefront/internal/domain/catalog"
	"github.com/edgestore/storefront/internal/domain/session"
)

// API is the full remote commerce surface the storefront consumes.
// commerce.Client satisfies it.
type API interface {
	Authenticator
	CheckoutAPI
	Products(ctx context.Context) ([]catalog.Product, error)
}

// Storefront is the application-state aggregate: it owns the catalog cache,
// the cart, and the auth and checkout flows, and is the single coordinator
// through which the presentation layer reads and mutates state.
type Storefront struct {
	api     API
	catalog *catalog.Cache
	cart    *cart.Cart
	auth    *Auth
	chk     *Checkout
	lg      *zap.Logger
}

// NewStorefront wires the aggregate from its parts.
func NewStorefront(api API, cat *catalog.Cache, crt *cart.Cart, auth *Auth, lg *zap.Logger) *Storefront {
	return &Storefront{
		api:     api,
		catalog: cat,
		cart:    crt,
		auth:    auth,
		chk:     NewCheckout(api, auth, crt),
		lg:      lg,
	}
}

// RefreshCatalog fetches the product list and replaces the cache wholesale.
func (s *Storefront) RefreshCatalog(ctx context.Context) error {
	products, err := s.api.Products(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch products")
	}
	s.catalog.Replace(products)
	s.lg.Info("catalog refreshed", zap.Int("products", len(products)))
	return nil
}

// Products returns the cached catalog.
func (s *Storefront) Products() []catalog.Product {
	return s.catalog.List()
}

// Product resolves a single cached product.
func (s *Storefront) Product(id string) (catalog.Product, bool) {
	return s.catalog.Get(id)
}

// AddToCart increments the quantity for the given product by one.
func (s *Storefront) AddToCart(productID string) {
	s.cart.AddOne(productID)
}

// RemoveFromCart decrements the quantity for the given product by one.
func (s *Storefront) RemoveFromCart(productID string) {
	s.cart.RemoveOne(productID)
}

// CartLines returns the ordered cart contents.
func (s *Storefront) CartLines() []cart.Line {
	return s.cart.Lines()
}

// CartCount returns the summed quantity across all cart lines.
func (s *Storefront) CartCount() int {
	return s.cart.LineCount()
}

// CartTotalCents returns the cart total in minor units, resolved against the
// current catalog. Lines no longer in the catalog are skipped.
func (s *Storefront) CartTotalCents() int64 {
	return s.cart.TotalCents(s.catalog)
}

// Login submits a login request.
func (s *Storefront) Login(ctx context.Context, username, password string) error {
	return s.auth.Login(ctx, username, password)
}

// Register submits a register request.
func (s *Storefront) Register(ctx context.Context, username, password string) error {
	return s.auth.Register(ctx, username, password)
}

// Logout wipes the session store and all local state: session, cart, and
// any pending notice. It happens synchronously with no network call.
func (s *Storefront) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		return err
	}
	s.cart.Clear()
	return nil
}

// Checkout initiates payment and returns the redirect URL.
func (s *Storefront) Checkout(ctx context.Context) (string, error) {
	return s.chk.Submit(ctx)
}

// Session returns the active session, nil when anonymous.
func (s *Storefront) Session() *session.Session {
	return s.auth.Session()
}

// AuthState returns the current auth flow state.
func (s *Storefront) AuthState() State {
	return s.auth.State()
}

// Notice returns the current transient notice, if any.
func (s *Storefront) Notice() string {
	return s.auth.Notice()
}

// LoginRequested reports whether a flow asked for authentication.
func (s *Storefront) LoginRequested() bool {
	return s.auth.LoginRequested()
}
