package httpclient_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AmmannChristian/go-restauth/httpclient"
	"github.com/AmmannChristian/go-restauth/oauth2client"
	"github.com/AmmannChristian/go-restauth/restauth"
)

// ExampleNewHTTPClient authenticates a plain http.Client.
func ExampleNewHTTPClient() {
	tm := oauth2client.NewTokenManager(
		context.Background(),
		"https://auth.example.com/oauth/v2/token",
		"client-id",
		"client-secret",
		"openid",
	)

	client := httpclient.NewHTTPClient(tm)

	fmt.Printf("Client timeout: %v\n", client.Timeout)
	// Output: Client timeout: 30s
}

// ExampleNewBuilder prepares a client for a REST builder, which adds the
// authentication itself.
func ExampleNewBuilder() {
	client, err := httpclient.NewBuilder().
		WithTimeout(60 * time.Second).
		WithoutRedirects().
		Build()
	if err != nil {
		log.Fatal(err)
	}

	b := restauth.NewBuilder("https://api.example.com", oauth2client.NewStaticAuthenticator("token"), client)

	fmt.Println(b.Transport() == client, client.Timeout)
	// Output: true 1m0s
}
