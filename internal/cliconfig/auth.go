package cliconfig

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-restauth/dpop"
	"github.com/AmmannChristian/go-restauth/httpclient"
	"github.com/AmmannChristian/go-restauth/oauth1"
	"github.com/AmmannChristian/go-restauth/oauth2client"
	"github.com/AmmannChristian/go-restauth/restauth"
)

// HTTPClient builds the client used for API and token requests.
func HTTPClient(cfg Config) (*http.Client, error) {
	b := httpclient.NewBuilder().WithTimeout(cfg.Timeout)
	if cfg.CAFile != "" || cfg.CertFile != "" || cfg.KeyFile != "" {
		b.WithTLS(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
	}
	if cfg.Insecure {
		b.WithInsecureSkipVerify()
	}
	return b.Build()
}

// NewAuthenticator creates the authenticator selected by cfg.Auth. It
// returns nil for AuthNone. Token and refresh requests go through client.
func NewAuthenticator(ctx context.Context, cfg Config, client *http.Client, logger restauth.Logger) (restauth.Authenticator, error) {
	switch cfg.Auth {
	case "", AuthNone:
		return nil, nil

	case AuthClientCredentials:
		return clientCredentials(ctx, cfg, client, logger), nil

	case AuthBearer:
		return oauth2client.NewStaticAuthenticator(cfg.AccessToken,
			oauth2client.WithSourceLogger(logger),
			oauth2client.WithSourceHTTPClient(client),
		), nil

	case AuthRefreshToken:
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       strings.Fields(cfg.Scopes),
		}
		token := &oauth2.Token{AccessToken: cfg.AccessToken, RefreshToken: cfg.RefreshToken}
		return oauth2client.NewRefreshingAuthenticator(
			withClient(ctx, client), oauthCfg, token,
			oauth2client.WithSourceLogger(logger),
		), nil

	case AuthOAuth1:
		signer, err := oauth1.NewSigner(oauth1.Credentials{
			ConsumerKey:    cfg.ConsumerKey,
			ConsumerSecret: cfg.ConsumerSecret,
			Token:          cfg.Token,
			TokenSecret:    cfg.TokenSecret,
		},
			oauth1.WithSignatureMethod(oauth1.SignatureMethod(strings.ToUpper(cfg.SignatureMethod))),
			oauth1.WithRealm(cfg.Realm),
			oauth1.WithHTTPClient(client),
			oauth1.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return signer, nil

	case AuthDPoP:
		auth, err := newDPoP(ctx, cfg, client, logger)
		if err != nil {
			return nil, err
		}
		return auth, nil
	}

	return nil, fmt.Errorf("unknown auth %q", cfg.Auth)
}

func clientCredentials(ctx context.Context, cfg Config, client *http.Client, logger restauth.Logger) *oauth2client.TokenManager {
	opts := []oauth2client.Option{oauth2client.WithLogger(logger)}
	if client != nil {
		opts = append(opts, oauth2client.WithHTTPClient(client))
	}
	return oauth2client.NewTokenManager(ctx, cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes, opts...)
}

func newDPoP(ctx context.Context, cfg Config, client *http.Client, logger restauth.Logger) (*dpop.Authenticator, error) {
	pemBytes, err := os.ReadFile(cfg.DPoPKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read dpop key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse dpop key: %w", err)
	}

	var tokens oauth2.TokenSource
	if cfg.AccessToken != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	} else {
		tokens = clientCredentials(ctx, cfg, client, logger)
	}

	return dpop.New(tokens, key, dpop.WithHTTPClient(client), dpop.WithLogger(logger))
}

func withClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
