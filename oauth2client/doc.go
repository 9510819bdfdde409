// Package oauth2client provides OAuth2 authenticators for REST builders and gRPC clients.
//
// TokenManager runs the client-credentials flow. It caches bearer tokens, refreshes them before
// expiry, and offers gRPC client interceptors. SourceAuthenticator adapts any oauth2.TokenSource,
// which covers refresh-token grants and static tokens. Both satisfy restauth.Authenticator and
// restauth.TransportProvider without importing restauth.
//
// # Features
//
//   - Client-credentials flow with automatic caching and early refresh
//   - Context-aware token fetching with cancellation and deadline support
//   - Authorize stamps "Authorization: Bearer <token>" on REST requests
//   - gRPC unary and stream client interceptors that inject Bearer tokens
//   - Optional logging (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	tm := oauth2client.NewTokenManager(
//	    ctx,
//	    "https://auth.example.com/oauth/v2/token",
//	    "client-id",
//	    "client-secret",
//	    "openid profile email",
//	    oauth2client.WithLoggingEnabled(),
//	)
//
//	b := restauth.NewBuilder("https://api.example.com", tm, nil)
//	resp, err := b.AddPath("items").Send(ctx)
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithUnaryInterceptor(tm.UnaryClientInterceptor()),
//	    grpc.WithStreamInterceptor(tm.StreamClientInterceptor()),
//	)
//
// # Notes
//
//   - GetTokenWithContext is preferred; GetToken is kept for backward compatibility.
//   - TokenManager is safe for concurrent use and uses double-checked locking.
package oauth2client
