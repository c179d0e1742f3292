// Package commerce is the HTTP client for the remote commerce API. Success
// is defined by the presence of the expected field in the response body
// (token, url), not by the HTTP status code, matching the API's contract.
package commerce

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/edgestore/storefront/internal/domain/cart"
	"github.com/edgestore/storefront/internal/domain/catalog"
	"github.com/edgestore/storefront/internal/domain/session"
)

// RejectedError is an application-level rejection: the server answered
// without the expected success field and supplied an error message. The
// message is shown to the user verbatim.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Client talks to the remote commerce API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the API at baseURL. A nil httpClient falls
// back to a client without a timeout; the remote API's own timeout behaviour
// governs how long a call may take.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Products fetches the full catalog from GET /api/products.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/products", "", nil)
	if err != nil {
		return nil, err
	}

	var products []catalog.Product
	d := jx.DecodeBytes(body)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// Login exchanges credentials for a session via POST /api/login.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Session, error) {
	return c.authenticate(ctx, "/api/login", username, password)
}

// Register creates an account and returns its session via POST /api/register.
func (c *Client) Register(ctx context.Context, username, password string) (*session.Session, error) {
	return c.authenticate(ctx, "/api/register", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*session.Session, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("username", func(e *jx.Encoder) { e.Str(username) })
		e.Field("password", func(e *jx.Encoder) { e.Str(password) })
	})

	body, err := c.do(ctx, http.MethodPost, path, "", e.Bytes())
	if err != nil {
		return nil, err
	}

	var (
		token   string
		rawUser []byte
		apiErr  string
	)
	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "token":
			v, err := d.Str()
			token = v
			return err
		case "user":
			raw, err := d.Raw()
			rawUser = raw
			return err
		case "error":
			v, err := d.Str()
			apiErr = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode auth response")
	}

	// No token means the server rejected the credentials.
	if token == "" {
		if apiErr != "" {
			return nil, &RejectedError{Message: apiErr}
		}
		return nil, errors.New("no token in response")
	}

	user, err := session.DecodeUser(rawUser)
	if err != nil {
		return nil, errors.Wrap(err, "auth response user")
	}
	return &session.Session{Token: token, User: user}, nil
}

// CreateCheckoutSession submits the cart's line items with the session token
// as a bearer credential and returns the payment redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, token string, items []cart.Line) (string, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("items")
		e.Arr(func(e *jx.Encoder) {
			for _, item := range items {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(item.ProductID) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
				})
			}
		})
	})

	body, err := c.do(ctx, http.MethodPost, "/api/create-checkout-session", token, e.Bytes())
	if err != nil {
		return "", err
	}

	var redirectURL, apiErr string
	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "url":
			v, err := d.Str()
			redirectURL = v
			return err
		case "error":
			v, err := d.Str()
			apiErr = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return "", errors.Wrap(err, "decode checkout response")
	}

	if redirectURL == "" {
		if apiErr != "" {
			return "", &RejectedError{Message: apiErr}
		}
		return "", errors.New("no url in response")
	}
	return redirectURL, nil
}

// do issues a single request and returns the raw response body. A non-empty
// token is attached as a bearer credential.
func (c *Client) do(ctx context.Context, method, path, token string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", path)
	}
	return respBody, nil
}

func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := d.Str()
			p.ID = v
			return err
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "description":
			v, err := d.Str()
			p.Description = v
			return err
		case "price_cents":
			v, err := d.Int64()
			p.PriceCents = v
			return err
		case "image":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			p.Image = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return catalog.Product{}, errors.Wrap(err, "decode product")
	}
	return p, nil
}
