package testutil

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// NewLocalHTTPServer starts an HTTP server bound to IPv4 loopback only.
// The sandbox blocks IPv6 listeners, so force tcp4 to keep tests runnable.
func NewLocalHTTPServer(tb testing.TB, handler http.Handler) *httptest.Server {
	tb.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to create IPv4 listener: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()
	tb.Cleanup(server.Close)

	return server
}

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// TextResponse builds a response with a plain body for req.
func TextResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// CapturedRequest is a snapshot of a request seen by a RecordingTransport.
type CapturedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// RecordingTransport answers every request with 200 "ok" and keeps a
// snapshot of what it received.
type RecordingTransport struct {
	Requests []CapturedRequest
}

// RoundTrip implements http.RoundTripper.
func (r *RecordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	captured := CapturedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		captured.Body = body
	}
	r.Requests = append(r.Requests, captured)

	return TextResponse(req, http.StatusOK, "ok"), nil
}

// Last returns the most recent request, or the zero value if none was seen.
func (r *RecordingTransport) Last() CapturedRequest {
	if len(r.Requests) == 0 {
		return CapturedRequest{}
	}
	return r.Requests[len(r.Requests)-1]
}
