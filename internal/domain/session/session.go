package session

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// User is the authenticated user's profile as returned by the commerce API.
// The raw JSON is kept alongside the decoded username so profile fields the
// client does not model survive a store/load roundtrip untouched.
type User struct {
	Username string
	Raw      []byte
}

// Session is the authenticated identity and credential held by the client
// for one logged-in user. The token is opaque; it is trusted until the
// server rejects it.
type Session struct {
	Token string
	User  User
}

// Store persists at most one session across restarts.
//
// Load returns (nil, nil) when no session is stored; malformed stored data
// degrades to "no session" rather than an error.
type Store interface {
	Save(ctx context.Context, token string, user User) error
	Load(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}

// DecodeUser parses a stored or received user object. The object must carry
// a non-empty username; anything else about its shape is preserved verbatim.
func DecodeUser(raw []byte) (User, error) {
	d := jx.DecodeBytes(raw)
	var username string
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "username" {
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "username")
			}
			username = v
			return nil
		}
		return d.Skip()
	}); err != nil {
		return User{}, errors.Wrap(err, "decode user")
	}
	if username == "" {
		return User{}, errors.New("user has no username")
	}

	return User{Username: username, Raw: raw}, nil
}
