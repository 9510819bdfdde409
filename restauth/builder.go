package restauth

import (
	"net/http"
	"net/url"

	"github.com/AmmannChristian/go-restauth/rest"
)

// Builder is a rest.Builder that authenticates the requests it builds and
// sends. Its fluent setters return *Builder, so SetOAuth can follow them in
// a chain.
//
// At most one OAuth Extender is registered on the embedded rest.Builder at any
// time. The authenticator is referenced, never owned. A Builder is not safe for
// concurrent mutation; SetOAuth, Clone and Move must not race with each other
// or with Build/Send on the same instance.
type Builder struct {
	*rest.Builder

	auth     Authenticator
	extender *Extender
	logger   Logger
}

// NewBuilder creates a builder for requests below baseURL, authenticated by
// auth when it is non-nil.
//
// When client is nil the default SetOAuth transport policy applies, so an
// authenticator implementing TransportProvider supplies the client. An
// explicit client is always kept.
func NewBuilder(baseURL string, auth Authenticator, client *http.Client, opts ...Option) *Builder {
	o := newOptions(opts)

	base := rest.NewBuilder(baseURL, client)
	for k, vs := range o.header {
		for _, v := range vs {
			base.AddHeader(k, v)
		}
	}

	b := &Builder{Builder: base, logger: o.logger}
	if auth == nil {
		return b
	}

	if client != nil {
		return b.SetOAuth(auth, KeepTransport())
	}
	return b.SetOAuth(auth)
}

// newBuilderFromBase wraps an already configured rest.Builder.
func newBuilderFromBase(base *rest.Builder, auth Authenticator, logger Logger) *Builder {
	b := &Builder{Builder: base, logger: logger}
	if auth != nil {
		b.SetOAuth(auth, KeepTransport())
	}
	return b
}

// SetOAuth sets the authenticator used for requests created via Build or
// Send. A nil auth, typed nil pointers included, removes authentication.
//
// The new extender is created first and then swapped into the slot of the
// previous one, so the chain never holds two OAuth extenders. By default the
// builder also switches to the authenticator's own HTTP client (see
// AuthenticatorTransport); pass KeepTransport to prevent that.
func (b *Builder) SetOAuth(auth Authenticator, opts ...SetOAuthOption) *Builder {
	cfg := newSetOAuthConfig(opts)
	auth = nilAuthenticator(auth)

	next := NewExtender(auth, b.logger)
	b.Builder.ReplaceExtender(asRestExtender(b.extender), asRestExtender(next))

	previous := b.auth
	b.auth = auth
	b.extender = next

	if client := cfg.transportFor(auth); client != nil {
		b.Builder.SetTransport(client)
	}

	if b.logger != nil && (previous != nil || auth != nil) {
		b.logger.Printf("restauth: authenticator changed from %T to %T", previous, auth)
	}

	return b
}

// OAuth returns the current authenticator, or nil.
func (b *Builder) OAuth() Authenticator {
	return b.auth
}

// Extender returns the registered OAuth extender, or nil.
func (b *Builder) Extender() *Extender {
	return b.extender
}

// Clone returns an independent copy. The copy has its own extender chain and
// its own Extender instance bound to the same authenticator, in the same
// position as the original's.
func (b *Builder) Clone() *Builder {
	c := &Builder{
		Builder: b.Builder.Clone(),
		auth:    b.auth,
		logger:  b.logger,
	}

	if b.extender != nil {
		c.extender = NewExtender(b.auth, b.logger)
		c.Builder.ReplaceExtender(b.extender, c.extender)
	}

	return c
}

// Move transfers the builder's state to a new Builder. The receiver is reset
// to a neutral, unauthenticated builder without a base URL, so its Build
// fails with rest.ErrNoBaseURL.
func (b *Builder) Move() *Builder {
	moved := &Builder{
		Builder:  b.Builder,
		auth:     b.auth,
		extender: b.extender,
		logger:   b.logger,
	}

	*b = Builder{
		Builder: rest.NewBuilder("", nil),
		logger:  b.logger,
	}

	return moved
}

// SetVerb sets the HTTP method. See rest.Builder.SetVerb.
func (b *Builder) SetVerb(verb string) *Builder {
	b.Builder.SetVerb(verb)
	return b
}

// AddPath appends path segments. See rest.Builder.AddPath.
func (b *Builder) AddPath(segments ...string) *Builder {
	b.Builder.AddPath(segments...)
	return b
}

// AddParameter adds a query parameter.
func (b *Builder) AddParameter(key, value string) *Builder {
	b.Builder.AddParameter(key, value)
	return b
}

// AddParameters adds all query parameters in values.
func (b *Builder) AddParameters(values url.Values) *Builder {
	b.Builder.AddParameters(values)
	return b
}

// AddHeader adds a request header.
func (b *Builder) AddHeader(key, value string) *Builder {
	b.Builder.AddHeader(key, value)
	return b
}

// SetBody sets a raw body.
func (b *Builder) SetBody(data []byte, contentType string) *Builder {
	b.Builder.SetBody(data, contentType)
	return b
}

// SetJSONBody sets a JSON body.
func (b *Builder) SetJSONBody(v any) *Builder {
	b.Builder.SetJSONBody(v)
	return b
}

// SetFormBody sets a form-urlencoded body.
func (b *Builder) SetFormBody(values url.Values) *Builder {
	b.Builder.SetFormBody(values)
	return b
}

// SetTransport replaces the client used by Send.
func (b *Builder) SetTransport(client *http.Client) *Builder {
	b.Builder.SetTransport(client)
	return b
}

// AddExtender appends ext to the extender chain. Adding an OAuth *Extender
// replaces the current one, which keeps a single OAuth extender in the chain.
func (b *Builder) AddExtender(ext rest.Extender) *Builder {
	return b.ReplaceExtender(nil, ext)
}

// RemoveExtender removes ext and reports whether it was registered. Removing
// the OAuth extender leaves the builder unauthenticated.
func (b *Builder) RemoveExtender(ext rest.Extender) bool {
	wasOAuth := b.isOAuthSlot(ext)
	if !b.Builder.RemoveExtender(ext) {
		return false
	}
	if wasOAuth {
		b.auth, b.extender = nil, nil
	}
	return true
}

// ReplaceExtender puts ext in the chain slot of old, like
// rest.Builder.ReplaceExtender, while keeping OAuth and Extender in step
// with the chain. An OAuth *Extender put anywhere in the chain displaces the
// current one.
func (b *Builder) ReplaceExtender(old, ext rest.Extender) *Builder {
	next, isOAuth := ext.(*Extender)
	if isOAuth && next == nil {
		ext = nil
	}

	replacesOAuth := b.isOAuthSlot(old)
	if next != nil && b.extender != nil && !replacesOAuth && next != b.extender {
		b.Builder.RemoveExtender(b.extender)
	}

	b.Builder.ReplaceExtender(old, ext)

	switch {
	case next != nil:
		b.auth, b.extender = next.Authenticator(), next
	case replacesOAuth:
		b.auth, b.extender = nil, nil
	}

	return b
}

// isOAuthSlot reports whether ext is the registered OAuth extender.
func (b *Builder) isOAuthSlot(ext rest.Extender) bool {
	return b.extender != nil && ext != nil && ext == rest.Extender(b.extender)
}

// asRestExtender avoids storing a typed nil in the rest.Extender interface.
func asRestExtender(e *Extender) rest.Extender {
	if e == nil {
		return nil
	}
	return e
}
