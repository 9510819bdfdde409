package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// ErrNoBaseURL is returned by Build when the builder has no base URL.
var ErrNoBaseURL = errors.New("rest: base URL is empty")

// Builder assembles HTTP requests against a base URL.
//
// Setters are fluent and record configuration only; nothing is serialized or
// sent until Build or Send. A Builder is not safe for concurrent mutation. Use
// Clone to derive independent builders.
type Builder struct {
	baseURL *url.URL
	urlErr  error

	client *http.Client
	verb   string
	path   []string
	query  url.Values
	header http.Header
	body   *payload

	extenders []Extender
}

// NewBuilder creates a builder for requests below baseURL.
//
// baseURL must be absolute. Parse errors are reported by Build. If client is
// nil, Send uses http.DefaultClient.
func NewBuilder(baseURL string, client *http.Client) *Builder {
	b := &Builder{
		client: client,
		verb:   http.MethodGet,
		query:  make(url.Values),
		header: make(http.Header),
	}

	if baseURL == "" {
		b.urlErr = ErrNoBaseURL
		return b
	}

	u, err := url.Parse(baseURL)
	switch {
	case err != nil:
		b.urlErr = fmt.Errorf("rest: parse base URL: %w", err)
	case u.Scheme == "" || u.Host == "":
		b.urlErr = fmt.Errorf("rest: base URL %q is not absolute", baseURL)
	default:
		b.baseURL = u
	}

	return b
}

// SetVerb sets the HTTP method. The default is GET.
func (b *Builder) SetVerb(verb string) *Builder {
	b.verb = strings.ToUpper(verb)
	return b
}

// AddPath appends path segments to the base URL. Each argument may contain
// several slash-separated segments; empty segments are dropped.
func (b *Builder) AddPath(segments ...string) *Builder {
	for _, s := range segments {
		for _, part := range strings.Split(s, "/") {
			if part != "" {
				b.path = append(b.path, part)
			}
		}
	}
	return b
}

// AddParameter adds a query parameter.
func (b *Builder) AddParameter(key, value string) *Builder {
	b.query.Add(key, value)
	return b
}

// AddParameters adds all query parameters in values.
func (b *Builder) AddParameters(values url.Values) *Builder {
	for k, vs := range values {
		for _, v := range vs {
			b.query.Add(k, v)
		}
	}
	return b
}

// AddHeader adds a request header.
func (b *Builder) AddHeader(key, value string) *Builder {
	b.header.Add(key, value)
	return b
}

// SetBody sets a raw body. data is copied.
func (b *Builder) SetBody(data []byte, contentType string) *Builder {
	b.body = rawPayload(data, contentType)
	return b
}

// SetJSONBody sets v as the body. v is encoded with encoding/json when the
// request is built.
func (b *Builder) SetJSONBody(v any) *Builder {
	b.body = jsonPayload(v)
	return b
}

// SetFormBody sets a form-urlencoded body.
func (b *Builder) SetFormBody(values url.Values) *Builder {
	b.body = formPayload(values)
	return b
}

// SetTransport replaces the client used by Send.
func (b *Builder) SetTransport(client *http.Client) *Builder {
	b.client = client
	return b
}

// Transport returns the client used by Send, or nil for http.DefaultClient.
func (b *Builder) Transport() *http.Client {
	return b.client
}

// Verb returns the configured HTTP method.
func (b *Builder) Verb() string {
	return b.verb
}

// AddExtender appends ext to the extender chain. Extenders run in the order
// they were added.
func (b *Builder) AddExtender(ext Extender) *Builder {
	return b.ReplaceExtender(nil, ext)
}

// RemoveExtender removes the first occurrence of ext and reports whether it
// was registered.
func (b *Builder) RemoveExtender(ext Extender) bool {
	if ext == nil || !slices.Contains(b.extenders, ext) {
		return false
	}
	b.ReplaceExtender(ext, nil)
	return true
}

// ReplaceExtender puts ext in the chain slot of old.
//
// If old is not registered (or nil), ext is appended. If ext is nil, old is
// removed. The new chain is built aside and installed with one assignment.
func (b *Builder) ReplaceExtender(old, ext Extender) *Builder {
	next := make([]Extender, 0, len(b.extenders)+1)
	replaced := false

	for _, e := range b.extenders {
		if !replaced && old != nil && e == old {
			replaced = true
			if ext != nil {
				next = append(next, ext)
			}
			continue
		}
		next = append(next, e)
	}

	if !replaced && ext != nil {
		next = append(next, ext)
	}

	b.extenders = next
	return b
}

// Extenders returns a copy of the extender chain.
func (b *Builder) Extenders() []Extender {
	return slices.Clone(b.extenders)
}

// Clone returns a builder with the same configuration and its own extender
// chain, path, query and headers. The transport and extender values are
// shared.
func (b *Builder) Clone() *Builder {
	c := *b
	c.path = slices.Clone(b.path)
	c.query = cloneValues(b.query)
	c.header = b.header.Clone()
	c.extenders = slices.Clone(b.extenders)
	return &c
}

// URL returns the request URL composed from the base URL, path and query.
func (b *Builder) URL() (*url.URL, error) {
	if b.urlErr != nil {
		return nil, b.urlErr
	}

	u := b.baseURL.JoinPath(b.path...)
	if len(b.query) > 0 {
		q := u.Query()
		for k, vs := range b.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u, nil
}

// Build assembles the request.
//
// The body is materialized before the extenders run only if one of them
// requires it, and at most once per call. Extenders see the Content-Type of
// the configured body. If any extender fails, no request is returned.
func (b *Builder) Build(ctx context.Context) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	u, err := b.URL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, b.verb, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("rest: create request: %w", err)
	}

	for k, vs := range b.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	if b.body != nil && b.body.contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", b.body.contentType)
	}

	var buf *bytes.Buffer
	if anyRequiresBody(b.extenders) {
		data, err := b.materialize()
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	}

	for _, ext := range b.extenders {
		if err := ext.ExtendRequest(req, buf); err != nil {
			return nil, fmt.Errorf("rest: extend request: %w", err)
		}
	}

	switch {
	case buf != nil:
		attachBody(req, buf.Bytes())
	case b.body != nil:
		data, err := b.materialize()
		if err != nil {
			return nil, err
		}
		attachBody(req, data)
	}

	return req, nil
}

// Send builds the request and executes it with the builder's transport.
func (b *Builder) Send(ctx context.Context) (*http.Response, error) {
	req, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	client := b.client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: send request: %w", err)
	}

	return resp, nil
}

func (b *Builder) materialize() ([]byte, error) {
	if b.body == nil {
		return nil, nil
	}

	data, err := b.body.encode()
	if err != nil {
		return nil, fmt.Errorf("rest: materialize body: %w", err)
	}
	return data, nil
}
