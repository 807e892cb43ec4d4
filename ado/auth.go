package ado

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClientKind selects which remote API surface a client is bound to. The
// surfaces share a base URL but are registered separately so per-kind
// settings (and future per-kind endpoints) stay isolated.
type ClientKind string

const (
	// ClientWorkItems covers work item tracking (wit) APIs.
	ClientWorkItems ClientKind = "workitems"
	// ClientWork covers team settings and iteration (work) APIs.
	ClientWork ClientKind = "work"
)

// TokenSource supplies short-lived bearer tokens. The core never inspects
// what stands behind it (managed identity, service principal, CLI login).
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// refreshSkew is how long before expiry a cached bearer token is considered
// stale and refreshed.
const refreshSkew = 2 * time.Minute

// ErrNoCredentials indicates neither a PAT nor a token source is configured.
var ErrNoCredentials = errors.New("ado: no credentials configured")

// Auth owns the credential lifecycle and hands out API clients. Clients are
// created lazily per kind and reused for the process lifetime.
type Auth struct {
	orgURL string
	pat    string
	source TokenSource

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	clients  map[ClientKind]*Client
}

// AuthOption configures an Auth.
type AuthOption func(*Auth)

// WithPAT authenticates with a static personal access token.
func WithPAT(pat string) AuthOption {
	return func(a *Auth) { a.pat = pat }
}

// WithTokenSource authenticates with refreshable bearer tokens.
func WithTokenSource(src TokenSource) AuthOption {
	return func(a *Auth) { a.source = src }
}

// NewAuth creates an authentication handler for one organization.
func NewAuth(orgURL string, opts ...AuthOption) (*Auth, error) {
	if orgURL == "" {
		return nil, errors.New("ado: organization URL is required")
	}
	a := &Auth{
		orgURL:  orgURL,
		clients: make(map[ClientKind]*Client),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.pat == "" && a.source == nil {
		return nil, ErrNoCredentials
	}
	return a, nil
}

// GetClient returns the client for the given API surface, constructing it on
// first use.
func (a *Auth) GetClient(kind ClientKind) *Client {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[kind]; ok {
		return c
	}
	c := newClient(a.orgURL, a.authorization)
	a.clients[kind] = c
	return c
}

// RefreshToken forces a new bearer token from the token source. It is a
// no-op for PAT credentials.
func (a *Auth) RefreshToken(ctx context.Context) error {
	if a.source == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshLocked(ctx)
}

// Close releases all lazily created clients.
func (a *Auth) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for kind, c := range a.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s client: %w", kind, err))
		}
	}
	a.clients = make(map[ClientKind]*Client)
	return errors.Join(errs...)
}

// authorization builds the Authorization header value for the next request,
// refreshing the bearer token when it is close to expiry.
func (a *Auth) authorization(ctx context.Context) (string, error) {
	if a.pat != "" {
		// PAT is sent as basic auth with an empty username.
		encoded := base64.StdEncoding.EncodeToString([]byte(":" + a.pat))
		return "Basic " + encoded, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == "" || time.Until(a.tokenExp) < refreshSkew {
		if err := a.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return "Bearer " + a.token, nil
}

func (a *Auth) refreshLocked(ctx context.Context) error {
	token, err := a.source.Token(ctx)
	if err != nil {
		return fmt.Errorf("ado: token refresh failed: %w", err)
	}
	a.token = token
	a.tokenExp = tokenExpiry(token)
	return nil
}

// tokenExpiry extracts the exp claim from a JWT without verifying the
// signature; validity is the remote side's concern, we only need the expiry
// for refresh scheduling. Opaque tokens get a conservative window.
func tokenExpiry(token string) time.Time {
	fallback := time.Now().Add(5 * time.Minute)

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	return exp.Time
}
