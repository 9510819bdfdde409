package restauth

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyNotMaterialized is returned when the authenticator needs the request
// body but the builder did not provide one.
var ErrBodyNotMaterialized = errors.New("restauth: authenticator requires the request body but none was materialized")

// Extender adds OAuth information to requests assembled by a rest.Builder.
//
// It is a thin adapter: whether the body is needed and what is stamped onto
// the request are both decided by the bound Authenticator. The binding is
// fixed at construction.
type Extender struct {
	auth   Authenticator
	logger Logger
}

// NewExtender binds an extender to auth. It returns nil if auth is nil,
// including a typed nil pointer. logger may be nil.
func NewExtender(auth Authenticator, logger Logger) *Extender {
	auth = nilAuthenticator(auth)
	if auth == nil {
		return nil
	}
	return &Extender{auth: auth, logger: logger}
}

// Authenticator returns the bound authenticator.
func (e *Extender) Authenticator() Authenticator {
	return e.auth
}

// RequiresBody implements rest.Extender.
func (e *Extender) RequiresBody() bool {
	return e.auth.RequiresBody()
}

// ExtendRequest implements rest.Extender.
//
// The authenticator works on a staged copy of req and body. The copy is
// committed only when Authorize succeeds, so a failed authorization leaves
// the draft untouched. Failures are not retried.
func (e *Extender) ExtendRequest(req *http.Request, body *bytes.Buffer) error {
	if body == nil && e.auth.RequiresBody() {
		return ErrBodyNotMaterialized
	}

	staged := req.Clone(req.Context())
	var stagedBody *bytes.Buffer
	if body != nil {
		stagedBody = bytes.NewBuffer(bytes.Clone(body.Bytes()))
	}

	if err := e.auth.Authorize(staged, stagedBody); err != nil {
		if e.logger != nil {
			e.logger.Printf("restauth: authorization failed for %s %s: %v", req.Method, redactedURL(req), err)
		}
		return fmt.Errorf("restauth: authorize request: %w", err)
	}

	*req = *staged
	if body != nil {
		body.Reset()
		body.Write(stagedBody.Bytes())
	}

	return nil
}

func redactedURL(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.Redacted()
}
