// Package flow implements the storefront's request flows: authentication,
// logout, catalog refresh, and checkout initiation. Flows own the state
// transitions; the presentation layer only renders their outcomes.
package flow

import (
	"github.com/go-faster/errors"

	"github.com/edgestore/storefront/internal/commerce"
)

// Local validation failures. They are detected before any network call and
// leave all state untouched.
var (
	// ErrLoginRequired means checkout was attempted without an
	// authenticated session; the auth flow is marked login-requested.
	ErrLoginRequired = errors.New("login required")
	// ErrEmptyCart means checkout was attempted with an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// Failure is a flow outcome meant for the user: the server-provided error
// message when one was present, otherwise the flow's generic fallback.
// Cause keeps the underlying error for logs.
type Failure struct {
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// failure wraps err into a Failure, preferring the server's own message
// over the fallback when the error is an application-level rejection.
func failure(err error, fallback string) *Failure {
	var rejected *commerce.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return &Failure{Message: rejected.Message, Cause: err}
	}
	return &Failure{Message: fallback, Cause: err}
}
