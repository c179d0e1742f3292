package flow

import (
	"context"
	"sync"

	"github.com/edgestore/storefront/internal/domain/cart"
	"github.com/edgestore/storefront/internal/domain/catalog"
	"github.com/edgestore/storefront/internal/domain/session"
)

// --- Mock implementations ---

// memStore implements session.Store in memory.
type memStore struct {
	mu      sync.Mutex
	session *session.Session
	saveErr error
}

func (m *memStore) Save(_ context.Context, token string, user session.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &session.Session{Token: token, User: user}
	return nil
}

func (m *memStore) Load(context.Context) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *memStore) stored() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// mockAPI implements the API interface with canned responses and call
// counters. A non-nil gate blocks auth and checkout calls until it closes.
type mockAPI struct {
	mu            sync.Mutex
	loginCalls    int
	registerCalls int
	checkoutCalls int
	productCalls  int

	gate    chan struct{}
	entered chan struct{}

	session     *session.Session
	authErr     error
	checkoutURL string
	checkoutErr error
	products    []catalog.Product
	productsErr error
}

func (m *mockAPI) block() {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.gate != nil {
		<-m.gate
	}
}

func (m *mockAPI) Login(context.Context, string, string) (*session.Session, error) {
	m.mu.Lock()
	m.loginCalls++
	m.mu.Unlock()
	m.block()
	return m.session, m.authErr
}

func (m *mockAPI) Register(context.Context, string, string) (*session.Session, error) {
	m.mu.Lock()
	m.registerCalls++
	m.mu.Unlock()
	m.block()
	return m.session, m.authErr
}

func (m *mockAPI) CreateCheckoutSession(context.Context, string, []cart.Line) (string, error) {
	m.mu.Lock()
	m.checkoutCalls++
	m.mu.Unlock()
	m.block()
	return m.checkoutURL, m.checkoutErr
}

func (m *mockAPI) Products(context.Context) ([]catalog.Product, error) {
	m.mu.Lock()
	m.productCalls++
	m.mu.Unlock()
	return m.products, m.productsErr
}

func (m *mockAPI) calls(which string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch which {
	case "login":
		return m.loginCalls
	case "register":
		return m.registerCalls
	case "checkout":
		return m.checkoutCalls
	default:
		return m.productCalls
	}
}

// --- Helpers ---

func testUser(username string) session.User {
	return session.User{
		Username: username,
		Raw:      []byte(`{"username":"` + username + `"}`),
	}
}

func testSession(token, username string) *session.Session {
	return &session.Session{Token: token, User: testUser(username)}
}
