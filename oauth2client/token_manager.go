package oauth2client

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenManager manages OAuth2 tokens with automatic refresh.
// It uses the client credentials flow and is safe for concurrent access.
//
// TokenManager implements restauth.Authenticator and
// restauth.TransportProvider, oauth2.TokenSource, and provides gRPC client
// interceptors, so one instance can authenticate REST and gRPC traffic.
type TokenManager struct {
	config       *clientcredentials.Config
	token        *oauth2.Token
	mu           sync.RWMutex
	ctx          context.Context // fallback context for GetToken and Token
	expiryLeeway time.Duration
	client       *http.Client
	logger       Logger
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// WithHTTPClient makes token requests go through client. The same client is
// reported by HTTPClient, so builders that adopt it share its connections.
func WithHTTPClient(client *http.Client) Option {
	return func(tm *TokenManager) {
		tm.client = client
	}
}

// WithExpiryLeeway sets how long before expiry a token is refreshed.
// The default is one minute.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(tm *TokenManager) {
		tm.expiryLeeway = leeway
	}
}

// NewTokenManager creates a new OAuth2 token manager using client credentials flow.
//
// Parameters:
//   - ctx: Context for token requests (fallback for GetToken; may carry oauth2.HTTPClient)
//   - tokenURL: OAuth2 token endpoint (e.g., "https://auth.example.com/oauth/v2/token")
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret
//   - scopes: Space-separated list of OAuth2 scopes (e.g., "openid profile email")
//   - opts: Optional configuration options
func NewTokenManager(ctx context.Context, tokenURL, clientID, clientSecret, scopes string, opts ...Option) *TokenManager {
	// Token requests must not die with the caller's context, but keep its values.
	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	tm := &TokenManager{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       strings.Fields(scopes),
		},
		ctx:          ctx,
		expiryLeeway: time.Minute,
	}

	for _, opt := range opts {
		opt(tm)
	}

	if tm.client != nil {
		tm.ctx = context.WithValue(tm.ctx, oauth2.HTTPClient, tm.client)
	} else if c, ok := tm.ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		tm.client = c
	}

	return tm
}

// GetTokenWithContext returns a valid access token, fetching or refreshing if necessary.
// It honours ctx cancellation and deadlines and uses double-checked locking so
// concurrent callers trigger a single fetch.
func (tm *TokenManager) GetTokenWithContext(ctx context.Context) (string, error) {
	tok, err := tm.tokenWithContext(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// GetToken returns a valid access token using the manager's fallback context.
//
// Deprecated: Use GetTokenWithContext instead to properly handle context cancellation and deadlines.
func (tm *TokenManager) GetToken() (string, error) {
	return tm.GetTokenWithContext(tm.ctx)
}

// Token implements oauth2.TokenSource.
func (tm *TokenManager) Token() (*oauth2.Token, error) {
	return tm.tokenWithContext(tm.ctx)
}

func (tm *TokenManager) tokenWithContext(ctx context.Context) (*oauth2.Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tm.mu.RLock()
	if tm.tokenValid() {
		tok := tm.token
		tm.mu.RUnlock()
		return tok, nil
	}
	tm.mu.RUnlock()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if tm.tokenValid() {
		return tm.token, nil
	}

	// The fallback context carries the HTTP client; the caller's context
	// carries cancellation.
	if tm.client != nil && ctx.Value(oauth2.HTTPClient) == nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, tm.client)
	}

	tok, err := tm.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth2: failed to fetch token: %w", err)
	}
	tm.token = tok

	if tm.logger != nil {
		tm.logger.Printf("oauth2: obtained new access token (expires: %s)", tok.Expiry.Format(time.RFC3339))
	}

	return tok, nil
}

// tokenValid reports whether the cached token is usable for at least the
// expiry leeway. oauth2.Token.Valid is not used because it applies its own
// fixed early-expiry window.
func (tm *TokenManager) tokenValid() bool {
	if tm.token == nil || tm.token.AccessToken == "" {
		return false
	}
	if !tm.token.Expiry.IsZero() && time.Until(tm.token.Expiry) <= tm.expiryLeeway {
		return false
	}
	return true
}

// RequiresBody implements restauth.Authenticator. Bearer tokens never need
// the request body.
func (tm *TokenManager) RequiresBody() bool {
	return false
}

// Authorize implements restauth.Authenticator. It sets
// "Authorization: Bearer <token>", fetching a token with req.Context() when
// the cached one is missing or about to expire.
func (tm *TokenManager) Authorize(req *http.Request, _ *bytes.Buffer) error {
	token, err := tm.GetTokenWithContext(req.Context())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", bearer(token))
	return nil
}

// HTTPClient implements restauth.TransportProvider. It returns the client
// used for token requests, or nil if none was configured.
func (tm *TokenManager) HTTPClient() *http.Client {
	return tm.client
}

func bearer(token string) string {
	return "Bearer " + token
}
