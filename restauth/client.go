package restauth

import (
	"net/http"
	"sync"

	"github.com/AmmannChristian/go-restauth/rest"
)

// Client hands out authenticated builders for one API.
//
// Every Builder returned by Client.Builder starts from the client's base URL,
// default headers and transport, and references the client's authenticator.
// Client is safe for concurrent use; the builders it returns are not shared.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	client  *http.Client
	header  http.Header
	auth    Authenticator
	logger  Logger
}

// NewClient creates a client for baseURL. Transport selection follows
// NewBuilder: an explicit client is kept, otherwise the authenticator may
// supply one.
func NewClient(baseURL string, auth Authenticator, client *http.Client, opts ...Option) *Client {
	o := newOptions(opts)

	c := &Client{
		baseURL: baseURL,
		client:  client,
		header:  o.header.Clone(),
		logger:  o.logger,
	}

	if client != nil {
		return c.SetOAuth(auth, KeepTransport())
	}
	return c.SetOAuth(auth)
}

// Builder returns a new authenticated builder.
func (c *Client) Builder() *Builder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	base := rest.NewBuilder(c.baseURL, c.client)
	for k, vs := range c.header {
		for _, v := range vs {
			base.AddHeader(k, v)
		}
	}

	return newBuilderFromBase(base, c.auth, c.logger)
}

// SetOAuth sets the authenticator for builders created afterwards. Builders
// already handed out keep their own binding.
func (c *Client) SetOAuth(auth Authenticator, opts ...SetOAuthOption) *Client {
	cfg := newSetOAuthConfig(opts)

	auth = nilAuthenticator(auth)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.auth = auth
	if client := cfg.transportFor(auth); client != nil {
		c.client = client
	}

	return c
}

// OAuth returns the current authenticator, or nil.
func (c *Client) OAuth() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// HTTPClient returns the client used by new builders, or nil for
// http.DefaultClient.
func (c *Client) HTTPClient() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
