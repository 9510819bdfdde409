// Package dpop binds OAuth 2.0 access tokens to a key with DPoP proofs (RFC 9449).
//
// Authenticator wraps an oauth2.TokenSource and an ECDSA P-256 key. For each
// request it signs an ES256 proof JWT carrying the method (htm), the URL
// without query (htu), a fresh jti, iat, and the token hash (ath). The proof
// header embeds the public key as a JWK.
//
//	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	auth, err := dpop.New(tokenSource, key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b := restauth.NewBuilder("https://api.example.com", auth, nil)
package dpop
