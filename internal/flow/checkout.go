package flow

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/edgestore/storefront/internal/domain/cart"
)

// CheckoutAPI is the slice of the commerce API the checkout flow needs.
type CheckoutAPI interface {
	CreateCheckoutSession(ctx context.Context, token string, items []cart.Line) (string, error)
}

// Checkout assembles the cart into a line-item request and initiates payment
// against the external checkout endpoint.
type Checkout struct {
	api  CheckoutAPI
	auth *Auth
	cart *cart.Cart

	sf singleflight.Group
}

// NewCheckout creates the checkout flow.
func NewCheckout(api CheckoutAPI, auth *Auth, c *cart.Cart) *Checkout {
	return &Checkout{api: api, auth: auth, cart: c}
}

// Submit initiates checkout and returns the payment redirect URL.
//
// Preconditions are checked locally, without contacting the server: an
// anonymous user gets ErrLoginRequired (and the auth flow is marked
// login-requested); an empty cart gets ErrEmptyCart. On success the caller
// performs the one-way navigation to the returned URL; no local state
// changes. On failure cart and session are left untouched and the error
// carries the server message or the generic "Checkout failed".
func (c *Checkout) Submit(ctx context.Context) (string, error) {
	sess := c.auth.Session()
	if sess == nil {
		c.auth.RequestLogin()
		return "", ErrLoginRequired
	}

	items := c.cart.Lines()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	// A second trigger while a request is in flight joins the pending call.
	url, err, _ := c.sf.Do("checkout", func() (any, error) {
		redirectURL, err := c.api.CreateCheckoutSession(ctx, sess.Token, items)
		if err != nil {
			return "", failure(err, "Checkout failed")
		}
		return redirectURL, nil
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}
