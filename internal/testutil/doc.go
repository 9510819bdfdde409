// Package testutil provides test helpers for go-restauth packages.
//
// It includes utilities to spin up IPv4-only local HTTP servers (avoiding IPv6 in sandboxes),
// mock OAuth2 token endpoints without real sockets, recording transports, and key/certificate
// generation for TLS, mTLS and DPoP tests.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - MockOAuth2Server, StaticJSONResponse, TokenJSON: stub OAuth2 token endpoints and capture requests
//   - RoundTripFunc, TextResponse, RecordingTransport: inline and recording http.RoundTripper implementations
//   - WriteTestCACert / WriteTestCertAndKey: temporary CA and leaf certificates
//   - GenerateECKey / WriteECKey: P-256 keys for proof-of-possession tests
//
// These helpers are designed for tests and may mutate http.DefaultClient/Transport; they restore previous values via tb.Cleanup.
package testutil
