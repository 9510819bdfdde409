// Package restauth authenticates requests built with package rest.
//
// An Authenticator (OAuth 2 bearer tokens, OAuth 1.0a signatures, DPoP proofs)
// is attached to a rest.Builder through an Extender. Builder wraps a
// rest.Builder and keeps exactly zero or one such extender registered;
// SetOAuth swaps it atomically and, by default, moves the builder onto the
// authenticator's own HTTP client.
//
// # Quick Start
//
//	tm := oauth2client.NewTokenManager(ctx, tokenURL, "client-id", "client-secret", "api.read")
//
//	resp, err := restauth.NewBuilder("https://api.example.com", tm, nil).
//	    AddPath("items").
//	    Send(ctx)
//
// # Sharing an Authenticator
//
// Client hands out fresh builders that reference the same authenticator:
//
//	api := restauth.NewClient("https://api.example.com", tm, nil)
//	resp, err := api.Builder().AddPath("items", "42").Send(ctx)
//
// Transport does the same for a plain http.Client:
//
//	client := &http.Client{Transport: restauth.NewTransport(tm, nil)}
//
// Builders are not safe for concurrent mutation. Authenticators are shared
// and must be safe for concurrent use themselves.
package restauth
