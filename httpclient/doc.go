// Package httpclient builds *http.Client values for REST builders and plain HTTP use.
//
// The Builder covers TLS (custom CA, mTLS, insecure for tests), timeouts, base transports,
// and redirect handling. WithAuthenticator wraps the transport in restauth.Transport so any
// restauth.Authenticator is applied to every request; leave it unset when the client backs a
// restauth.Builder.
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithTLS("/path/to/ca.crt", "", "").
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b := restauth.NewBuilder("https://api.example.com", tm, client)
//
// # Transport-level Authentication
//
//	client := httpclient.NewHTTPClient(tm)
//	resp, err := client.Get("https://api.example.com/data")
package httpclient
