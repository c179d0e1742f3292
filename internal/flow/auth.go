package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/edgestore/storefront/internal/domain/session"
)

// State is the auth flow state.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Authenticator is the slice of the commerce API the auth flow needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*session.Session, error)
	Register(ctx context.Context, username, password string) (*session.Session, error)
}

// Auth orchestrates login and register submissions, keeps the active
// session, and surfaces transient notices.
//
// Concurrent submissions share one singleflight key, so a second trigger
// while a request is in flight joins the pending one instead of issuing a
// duplicate network call.
type Auth struct {
	api       Authenticator
	store     session.Store
	noticeTTL time.Duration
	lg        *zap.Logger

	sf singleflight.Group

	mu             sync.Mutex
	state          State
	session        *session.Session
	loginRequested bool
	notice         string
	noticeGen      uint64
}

// NewAuth creates the auth flow. noticeTTL is how long a success notice
// stays visible before auto-clearing.
func NewAuth(api Authenticator, store session.Store, noticeTTL time.Duration, lg *zap.Logger) *Auth {
	return &Auth{
		api:       api,
		store:     store,
		noticeTTL: noticeTTL,
		lg:        lg,
		state:     StateAnonymous,
	}
}

// Resume loads a persisted session from the store at startup. A missing or
// malformed stored session leaves the flow anonymous; only storage access
// failures are returned.
func (a *Auth) Resume(ctx context.Context) error {
	sess, err := a.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load session")
	}
	if sess == nil {
		return nil
	}

	a.mu.Lock()
	a.session = sess
	a.state = StateAuthenticated
	a.mu.Unlock()

	a.lg.Info("resumed session", zap.String("username", sess.User.Username))
	return nil
}

// Login submits credentials and, on success, persists the session and shows
// a welcome notice for the configured delay.
func (a *Auth) Login(ctx context.Context, username, password string) error {
	return a.submit(ctx, "Login failed",
		func(ctx context.Context) (*session.Session, error) {
			return a.api.Login(ctx, username, password)
		},
		func(s *session.Session) string {
			return "Welcome back, " + s.User.Username
		},
	)
}

// Register creates an account and, on success, persists the session and
// shows a confirmation notice.
func (a *Auth) Register(ctx context.Context, username, password string) error {
	return a.submit(ctx, "Register failed",
		func(ctx context.Context) (*session.Session, error) {
			return a.api.Register(ctx, username, password)
		},
		func(*session.Session) string {
			return "Account created"
		},
	)
}

func (a *Auth) submit(
	ctx context.Context,
	fallback string,
	call func(context.Context) (*session.Session, error),
	noticeFor func(*session.Session) string,
) error {
	// One key for both login and register: whichever submission is in
	// flight, further triggers join it rather than racing it.
	_, err, _ := a.sf.Do("auth", func() (any, error) {
		a.setState(StateAuthenticating)

		sess, err := call(ctx)
		if err != nil {
			a.setState(StateAnonymous)
			return nil, failure(err, fallback)
		}

		if err := a.store.Save(ctx, sess.Token, sess.User); err != nil {
			a.setState(StateAnonymous)
			a.lg.Error("persist session", zap.Error(err))
			return nil, failure(err, fallback)
		}

		a.mu.Lock()
		a.session = sess
		a.state = StateAuthenticated
		a.loginRequested = false
		a.mu.Unlock()
		a.setNotice(noticeFor(sess))

		return nil, nil
	})
	return err
}

// Logout wipes the durable session state and returns the flow to anonymous.
// It is synchronous and makes no network call.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear session store")
	}

	a.mu.Lock()
	a.session = nil
	a.state = StateAnonymous
	a.loginRequested = false
	a.notice = ""
	a.noticeGen++
	a.mu.Unlock()
	return nil
}

// Session returns the active session, nil when anonymous or a submission is
// still in flight.
func (a *Auth) Session() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAuthenticated {
		return nil
	}
	return a.session
}

// State returns the current auth flow state.
func (a *Auth) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Notice returns the current transient notice, empty after it expires.
func (a *Auth) Notice() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notice
}

// RequestLogin marks that the user must authenticate before proceeding.
// Checkout sets this instead of contacting the server while anonymous.
func (a *Auth) RequestLogin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginRequested = true
}

// LoginRequested reports whether a flow asked for authentication. It is
// cleared by a successful login or register, or by logout.
func (a *Auth) LoginRequested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loginRequested
}

// setNotice shows msg and arms its expiry. The generation counter keeps an
// expiring timer from clearing a newer notice.
func (a *Auth) setNotice(msg string) {
	a.mu.Lock()
	a.notice = msg
	a.noticeGen++
	gen := a.noticeGen
	a.mu.Unlock()

	time.AfterFunc(a.noticeTTL, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.noticeGen == gen {
			a.notice = ""
		}
	})
}

func (a *Auth) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}
