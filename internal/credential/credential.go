// Package credential acquires access tokens for the project endpoint.
//
// Token acquisition itself is delegated to the azidentity SDK; this
// package only selects which strategy the process runs with and caches
// the resulting tokens.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dotcommander/agenthost/internal/config"
)

// ErrAuthentication indicates the selected credential could not produce
// a token.
var ErrAuthentication = errors.New("credential could not produce a token")

// Token is a bearer access token with its expiry.
type Token struct {
	Value     string
	ExpiresOn time.Time
}

// TokenCredential yields access tokens for the given scopes.
type TokenCredential interface {
	// Name identifies the source in diagnostics.
	Name() string
	GetToken(ctx context.Context, scopes ...string) (Token, error)
}

// Resolve selects exactly one credential strategy for the process.
//
// Hosted runtimes (managed-identity endpoint injected) use managed
// identity. An explicit CLI flag uses the locally cached CLI login. A
// complete service-principal triple uses a client secret. Everything
// else falls back to the SDK's default chain.
func Resolve(cfg config.Config, log *slog.Logger) (TokenCredential, error) {
	cred, err := selectAzure(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("credential strategy selected", "source", cred.Name())
	return NewCached(cred), nil
}

// refreshWindow is how long before expiry a cached token is considered
// stale.
const refreshWindow = 2 * time.Minute

// Cached wraps a credential and reuses its token until near expiry.
type Cached struct {
	inner TokenCredential

	mu    sync.Mutex
	token Token
}

// NewCached wraps cred with token caching.
func NewCached(cred TokenCredential) *Cached {
	return &Cached{inner: cred}
}

// Name implements TokenCredential.
func (c *Cached) Name() string { return c.inner.Name() }

// GetToken returns the cached token or fetches a fresh one.
func (c *Cached) GetToken(ctx context.Context, scopes ...string) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Value != "" && time.Until(c.token.ExpiresOn) > refreshWindow {
		return c.token, nil
	}
	token, err := c.inner.GetToken(ctx, scopes...)
	if err != nil {
		return Token{}, err
	}
	c.token = token
	return token, nil
}
