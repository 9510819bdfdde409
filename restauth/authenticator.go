package restauth

import (
	"bytes"
	"log"
	"net/http"
	"reflect"
)

// Authenticator produces authentication data for outgoing requests.
//
// The builders in this package hold an Authenticator by reference only; they
// never close or otherwise manage it. Token caching, refresh and retry policy
// belong to the implementation.
type Authenticator interface {
	// RequiresBody reports whether Authorize needs the serialized request
	// body, for example to sign form parameters.
	RequiresBody() bool

	// Authorize stamps credentials onto req. The verb is req.Method and may be
	// changed. body holds the serialized request body and is nil unless it was
	// materialized. Blocking work must honour req.Context().
	Authorize(req *http.Request, body *bytes.Buffer) error
}

// nilAuthenticator maps an interface holding a nil pointer, map, func, slice
// or channel to an untyped nil, so a nil *TokenManager means "no
// authentication" instead of a panic at build time.
func nilAuthenticator(auth Authenticator) Authenticator {
	if auth == nil {
		return nil
	}
	switch v := reflect.ValueOf(auth); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			return nil
		}
	}
	return auth
}

// TransportProvider is implemented by authenticators that run their OAuth
// flow over a specific HTTP client. Reusing that client for authenticated
// calls shares its connection pool, proxy and cookie state.
type TransportProvider interface {
	HTTPClient() *http.Client
}

// TransportPolicy picks the client a builder should switch to when an
// authenticator is installed. Returning nil keeps the current client.
type TransportPolicy func(Authenticator) *http.Client

// AuthenticatorTransport is the default TransportPolicy. It returns the
// authenticator's own client when it implements TransportProvider.
func AuthenticatorTransport(auth Authenticator) *http.Client {
	if tp, ok := auth.(TransportProvider); ok {
		return tp.HTTPClient()
	}
	return nil
}

// Logger is an interface for optional logging.
// *zerolog.Logger and *log.Logger both satisfy it.
type Logger interface {
	Printf(format string, args ...any)
}

type options struct {
	logger Logger
	header http.Header
}

// Option configures a Builder or Client.
type Option func(*options)

// WithLogger sets a logger for authorization failures and authenticator
// changes. If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLoggingEnabled logs through log.Default().
func WithLoggingEnabled() Option {
	return func(o *options) {
		o.logger = log.Default()
	}
}

// WithDefaultHeader adds a header to every request.
func WithDefaultHeader(key, value string) Option {
	return func(o *options) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Add(key, value)
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SetOAuthOption configures a SetOAuth call.
type SetOAuthOption func(*setOAuthConfig)

type setOAuthConfig struct {
	policy TransportPolicy
}

// KeepTransport leaves the builder's client in place.
func KeepTransport() SetOAuthOption {
	return func(c *setOAuthConfig) {
		c.policy = nil
	}
}

// WithTransportPolicy replaces the default AuthenticatorTransport policy.
func WithTransportPolicy(policy TransportPolicy) SetOAuthOption {
	return func(c *setOAuthConfig) {
		c.policy = policy
	}
}

func newSetOAuthConfig(opts []SetOAuthOption) setOAuthConfig {
	cfg := setOAuthConfig{policy: AuthenticatorTransport}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// transportFor applies the policy, returning nil when the client should stay.
func (c setOAuthConfig) transportFor(auth Authenticator) *http.Client {
	if auth == nil || c.policy == nil {
		return nil
	}
	return c.policy(auth)
}
