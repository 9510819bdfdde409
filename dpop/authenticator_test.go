package dpop

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AmmannChristian/go-restauth/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }

type countingSource struct{ calls int }

func (c *countingSource) Token() (*oauth2.Token, error) {
	c.calls++
	return &oauth2.Token{AccessToken: "access-123"}, nil
}

func newAuthenticator(t *testing.T, key *ecdsa.PrivateKey, opts ...Option) *Authenticator {
	t.Helper()

	a, err := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-123"}), key, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func parseProof(t *testing.T, proof string, key *ecdsa.PrivateKey) (*jwt.Token, *Claims) {
	t.Helper()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(proof, claims, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}))
	if err != nil {
		t.Fatalf("proof did not verify: %v", err)
	}
	return token, claims
}

func TestNew_Validation(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})

	if _, err := New(source, nil); !errors.Is(err, ErrNoKey) {
		t.Errorf("expected ErrNoKey, got %v", err)
	}
	if _, err := New(nil, testutil.GenerateECKey(t)); err == nil {
		t.Error("expected error for nil token source")
	}
	if _, err := New(source, p384); err == nil || !strings.Contains(err.Error(), "P-256") {
		t.Errorf("expected unsupported curve error, got %v", err)
	}
}

func TestAuthenticator_Authorize(t *testing.T) {
	key := testutil.GenerateECKey(t)
	issued := time.Unix(1700000000, 0)
	a := newAuthenticator(t, key, WithClock(func() time.Time { return issued }), WithID(func() string { return "proof-1" }))

	req := httptest.NewRequest(http.MethodPost, "https://api.example.com/items?page=2#frag", nil)
	if err := a.Authorize(req, nil); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}

	if got := req.Header.Get("Authorization"); got != "DPoP access-123" {
		t.Errorf("unexpected Authorization header: %s", got)
	}

	token, claims := parseProof(t, req.Header.Get("DPoP"), key)

	if token.Header["typ"] != ProofType {
		t.Errorf("unexpected typ %v", token.Header["typ"])
	}
	if claims.HTM != http.MethodPost {
		t.Errorf("unexpected htm %s", claims.HTM)
	}
	if claims.HTU != "https://api.example.com/items" {
		t.Errorf("htu should drop query and fragment, got %s", claims.HTU)
	}
	sum := sha256.Sum256([]byte("access-123"))
	if claims.ATH != base64.RawURLEncoding.EncodeToString(sum[:]) {
		t.Errorf("unexpected ath %s", claims.ATH)
	}
	if claims.ID != "proof-1" {
		t.Errorf("unexpected jti %s", claims.ID)
	}
	if !claims.IssuedAt.Time.Equal(issued) {
		t.Errorf("unexpected iat %v", claims.IssuedAt)
	}
}

func TestAuthenticator_ProofEmbedsPublicKey(t *testing.T) {
	key := testutil.GenerateECKey(t)
	a := newAuthenticator(t, key)

	proof, err := a.Proof(http.MethodGet, mustURL(t, "https://api.example.com/"), "")
	if err != nil {
		t.Fatalf("Proof failed: %v", err)
	}

	token, claims := parseProof(t, proof, key)
	if claims.ATH != "" {
		t.Error("ath should be omitted without an access token")
	}

	jwk, ok := token.Header["jwk"].(map[string]any)
	if !ok {
		t.Fatalf("jwk header missing: %v", token.Header)
	}
	if jwk["kty"] != "EC" || jwk["crv"] != "P-256" {
		t.Errorf("unexpected jwk %v", jwk)
	}

	x, _ := base64.RawURLEncoding.DecodeString(jwk["x"].(string))
	y, _ := base64.RawURLEncoding.DecodeString(jwk["y"].(string))
	if new(big.Int).SetBytes(x).Cmp(key.X) != 0 || new(big.Int).SetBytes(y).Cmp(key.Y) != 0 {
		t.Error("jwk does not match the signing key")
	}
}

func TestAuthenticator_UniqueProofs(t *testing.T) {
	key := testutil.GenerateECKey(t)
	a := newAuthenticator(t, key)

	first, _ := a.Proof(http.MethodGet, mustURL(t, "https://api.example.com/a"), "t")
	second, _ := a.Proof(http.MethodGet, mustURL(t, "https://api.example.com/a"), "t")

	_, c1 := parseProof(t, first, key)
	_, c2 := parseProof(t, second, key)
	if c1.ID == "" || c1.ID == c2.ID {
		t.Error("each proof needs a unique jti")
	}
}

func TestAuthenticator_TokenError(t *testing.T) {
	failure := errors.New("token expired")
	a, err := New(failingSource{err: failure}, testutil.GenerateECKey(t))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com", nil)
	if err := a.Authorize(req, nil); !errors.Is(err, failure) {
		t.Fatalf("expected wrapped token error, got %v", err)
	}
	if req.Header.Get("DPoP") != "" || req.Header.Get("Authorization") != "" {
		t.Error("no headers should be set on failure")
	}
}

func TestAuthenticator_CanceledContext(t *testing.T) {
	src := &countingSource{}
	a, err := New(src, testutil.GenerateECKey(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "https://api.example.com/items", nil).WithContext(ctx)
	if err := a.Authorize(req, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("token source should not be called, got %d calls", src.calls)
	}
	if req.Header.Get("DPoP") != "" || req.Header.Get("Authorization") != "" {
		t.Error("no headers should be set for a canceled request")
	}
}

func TestAuthenticator_Contract(t *testing.T) {
	client := &http.Client{}
	a := newAuthenticator(t, testutil.GenerateECKey(t), WithHTTPClient(client))

	if a.RequiresBody() {
		t.Error("DPoP proofs do not cover the body")
	}
	if a.HTTPClient() != client {
		t.Error("HTTPClient should return the configured client")
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad URL %q: %v", raw, err)
	}
	return u
}

func BenchmarkAuthenticator_Proof(b *testing.B) {
	key, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	a, _ := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}), key)
	u, _ := url.Parse("https://api.example.com/items")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Proof(http.MethodGet, u, "t")
	}
}
