// Package session holds the signed-in user and the entitlement lookup. A
// *Context is passed by reference to everything that needs the user.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abelbrown/lessonvault/internal/otel"
)

var (
	// ErrNoToken is returned when signing in with an empty token.
	ErrNoToken = errors.New("session: no access token")
	// ErrNoSubject is returned for tokens without a "sub" claim.
	ErrNoSubject = errors.New("session: token has no subject")
)

// Claims are the access-token claims the app reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// ParseToken parses an access token. With a secret the HS256 signature is
// verified; without one the claims are read unverified but expiry is still
// enforced.
func ParseToken(token string, secret []byte) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if len(secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("session: parse token: %w", err)
		}
		if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
			return nil, fmt.Errorf("session: parse token: %w", jwt.ErrTokenExpired)
		}
	} else {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			return nil, fmt.Errorf("session: parse token: %w", err)
		}
	}

	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// NewToken signs an HS256 access token for userID.
func NewToken(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// User is the signed-in account.
type User struct {
	ID    string
	Email string
	Plan  Plan
}

// Listener is told about every sign-in and sign-out.
type Listener func(u User, signedIn bool)

// Options configures a Context.
type Options struct {
	Secret   []byte // empty: tokens are not signature-checked
	Resolver EntitlementResolver
	Log      *otel.Logger
}

// Context is the session shared by the page, orchestrator and UI.
// Goroutine-safe. Listeners run synchronously, without the lock held.
type Context struct {
	secret   []byte
	resolver EntitlementResolver
	log      *otel.Logger

	mu        sync.RWMutex
	user      *User
	token     string
	settled   bool
	listeners []Listener
}

// New creates an unsettled, signed-out session.
func New(opts Options) *Context {
	if opts.Resolver == nil {
		opts.Resolver = Table{}
	}
	return &Context{secret: opts.Secret, resolver: opts.Resolver, log: opts.Log}
}

// SignInWithToken parses token and signs its subject in. The session is
// settled either way: a bad token leaves nobody signed in.
func (c *Context) SignInWithToken(token string) (User, error) {
	claims, err := ParseToken(token, c.secret)
	if err != nil {
		c.Settle()
		c.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSignIn, Comp: "session", Err: err.Error()})
		return User{}, err
	}

	u := User{ID: claims.Subject, Email: claims.Email, Plan: c.resolver.Resolve(claims.Email)}
	c.mu.Lock()
	c.user = &u
	c.token = token
	c.settled = true
	ls := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSignIn, Comp: "session", Msg: string(u.Plan)})
	for _, l := range ls {
		l(u, true)
	}
	return u, nil
}

// SignOut clears the user. The session stays settled.
func (c *Context) SignOut() {
	c.mu.Lock()
	prev := c.user
	c.user = nil
	c.token = ""
	c.settled = true
	ls := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	if prev == nil {
		return
	}
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSignOut, Comp: "session"})
	for _, l := range ls {
		l(*prev, false)
	}
}

// Settle marks resolution finished without signing anyone in.
func (c *Context) Settle() {
	c.mu.Lock()
	c.settled = true
	c.mu.Unlock()
}

// OnChange registers l for sign-in and sign-out events.
func (c *Context) OnChange(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// UserID returns the signed-in user's id, or "".
func (c *Context) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return c.user.ID
}

// Settled reports whether session resolution has finished.
func (c *Context) Settled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settled
}

// User returns the signed-in user.
func (c *Context) User() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

// AccessToken returns the raw token of the current sign-in.
func (c *Context) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}
