// Package oauth1 signs HTTP requests with OAuth 1.0a (RFC 5849).
//
// Signer implements restauth.Authenticator. It reports RequiresBody so the
// builder materializes the payload before signing; url-encoded form bodies
// are folded into the signature base string, other bodies are ignored.
//
//	signer, err := oauth1.NewSigner(oauth1.Credentials{
//	    ConsumerKey:    "key",
//	    ConsumerSecret: "secret",
//	    Token:          "token",
//	    TokenSecret:    "token-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := restauth.NewBuilder("https://api.example.com", signer, nil).
//	    SetVerb(http.MethodPost).
//	    AddPath("statuses", "update").
//	    SetFormBody(url.Values{"status": {"hello"}}).
//	    Send(ctx)
package oauth1
