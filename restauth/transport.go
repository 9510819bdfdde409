package restauth

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Transport is an http.RoundTripper that runs an Authenticator on every
// outgoing request. It serves plain http.Client users that do not build
// requests through a Builder.
//
// The caller's request is never modified; the authenticator sees a clone.
// The body is buffered only when the authenticator requires it.
type Transport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Authenticator stamps credentials onto each request.
	Authenticator Authenticator
}

// NewTransport wraps base with auth. The base transport defaults to
// http.DefaultTransport if not specified.
func NewTransport(auth Authenticator, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Authenticator: auth}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if nilAuthenticator(t.Authenticator) == nil {
		closeBody(req)
		return nil, errors.New("restauth: authenticator is nil")
	}

	out := req.Clone(req.Context())

	var body *bytes.Buffer
	if t.Authenticator.RequiresBody() {
		data, err := readBody(req)
		if err != nil {
			return nil, fmt.Errorf("restauth: read request body: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	if err := t.Authenticator.Authorize(out, body); err != nil {
		closeBody(req)
		return nil, fmt.Errorf("restauth: authorize request: %w", err)
	}

	if body != nil {
		data := body.Bytes()
		out.ContentLength = int64(len(data))
		out.Body = io.NopCloser(bytes.NewReader(data))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(out)
}

// readBody drains and closes the request body, preferring a fresh copy from
// GetBody. The caller owns the original body, so it is always closed here.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer closeBody(req)

	rc := req.Body
	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer fresh.Close()
		rc = fresh
	}

	return io.ReadAll(rc)
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
