package oauth2client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// SourceAuthenticator authorizes requests with tokens from any
// oauth2.TokenSource. Use it for grants TokenManager does not run itself,
// such as refresh tokens obtained by an interactive login.
type SourceAuthenticator struct {
	source oauth2.TokenSource
	client *http.Client
	logger Logger
}

// SourceOption configures a SourceAuthenticator.
type SourceOption func(*SourceAuthenticator)

// WithSourceLogger logs failed token lookups.
func WithSourceLogger(logger Logger) SourceOption {
	return func(s *SourceAuthenticator) {
		s.logger = logger
	}
}

// WithSourceHTTPClient sets the client reported by HTTPClient.
func WithSourceHTTPClient(client *http.Client) SourceOption {
	return func(s *SourceAuthenticator) {
		s.client = client
	}
}

// NewSourceAuthenticator wraps ts. The source is wrapped in
// oauth2.ReuseTokenSource so a valid token is not fetched twice.
func NewSourceAuthenticator(ts oauth2.TokenSource, opts ...SourceOption) *SourceAuthenticator {
	s := &SourceAuthenticator{source: oauth2.ReuseTokenSource(nil, ts)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRefreshingAuthenticator returns an authenticator that starts from token
// and refreshes it through cfg when it expires. An oauth2.HTTPClient value in
// ctx is used for refresh requests and reported by HTTPClient.
func NewRefreshingAuthenticator(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, opts ...SourceOption) *SourceAuthenticator {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	s := NewSourceAuthenticator(cfg.TokenSource(ctx, token), opts...)
	if s.client == nil {
		if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
			s.client = c
		}
	}
	return s
}

// NewStaticAuthenticator always sends the same bearer token.
func NewStaticAuthenticator(accessToken string, opts ...SourceOption) *SourceAuthenticator {
	return NewSourceAuthenticator(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}), opts...)
}

// RequiresBody implements restauth.Authenticator.
func (s *SourceAuthenticator) RequiresBody() bool {
	return false
}

// Authorize implements restauth.Authenticator. The token's type decides the
// Authorization scheme. oauth2.TokenSource takes no context, so a request
// whose context is already done fails before the source is consulted.
func (s *SourceAuthenticator) Authorize(req *http.Request, _ *bytes.Buffer) error {
	if err := req.Context().Err(); err != nil {
		return fmt.Errorf("oauth2: failed to get token: %w", err)
	}

	tok, err := s.source.Token()
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("oauth2: token source failed: %v", err)
		}
		return fmt.Errorf("oauth2: failed to get token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

// HTTPClient implements restauth.TransportProvider.
func (s *SourceAuthenticator) HTTPClient() *http.Client {
	return s.client
}

// Token implements oauth2.TokenSource.
func (s *SourceAuthenticator) Token() (*oauth2.Token, error) {
	return s.source.Token()
}
