package dpop

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoKey is returned when no signing key is supplied.
var ErrNoKey = errors.New("dpop: signing key is required")

// ProofType is the JOSE typ of a DPoP proof.
const ProofType = "dpop+jwt"

// Logger is an interface for optional logging in Authenticator.
type Logger interface {
	Printf(format string, args ...any)
}

// Claims are the registered claims of a DPoP proof.
type Claims struct {
	HTM string `json:"htm"`
	HTU string `json:"htu"`
	ATH string `json:"ath,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator sends access tokens bound to a key (RFC 9449). Every
// request gets a fresh proof JWT in the DPoP header and the token in
// "Authorization: DPoP <token>". It implements restauth.Authenticator and
// restauth.TransportProvider.
type Authenticator struct {
	tokens oauth2.TokenSource
	key    *ecdsa.PrivateKey
	jwk    map[string]string
	now    func() time.Time
	newID  func() string
	client *http.Client
	logger Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock overrides the iat source.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// WithID overrides the jti generator.
func WithID(newID func() string) Option {
	return func(a *Authenticator) {
		a.newID = newID
	}
}

// WithHTTPClient sets the client reported by HTTPClient.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		a.client = client
	}
}

// WithLogger logs failed proofs.
func WithLogger(logger Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithLoggingEnabled logs through the standard log package.
func WithLoggingEnabled() Option {
	return func(a *Authenticator) {
		a.logger = log.Default()
	}
}

// New returns an Authenticator that binds tokens from tokens to key.
// Only P-256 keys (ES256) are supported.
func New(tokens oauth2.TokenSource, key *ecdsa.PrivateKey, opts ...Option) (*Authenticator, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	if tokens == nil {
		return nil, errors.New("dpop: token source is required")
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("dpop: unsupported curve %s, want P-256", key.Curve.Params().Name)
	}

	jwk, err := publicJWK(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		tokens: oauth2.ReuseTokenSource(nil, tokens),
		key:    key,
		jwk:    jwk,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RequiresBody implements restauth.Authenticator.
func (a *Authenticator) RequiresBody() bool {
	return false
}

// HTTPClient implements restauth.TransportProvider.
func (a *Authenticator) HTTPClient() *http.Client {
	return a.client
}

// Authorize implements restauth.Authenticator. It fails without calling the
// token source when req's context is already done.
func (a *Authenticator) Authorize(req *http.Request, _ *bytes.Buffer) error {
	if err := req.Context().Err(); err != nil {
		return fmt.Errorf("dpop: failed to get token: %w", err)
	}

	tok, err := a.tokens.Token()
	if err != nil {
		return fmt.Errorf("dpop: failed to get token: %w", err)
	}

	proof, err := a.Proof(req.Method, req.URL, tok.AccessToken)
	if err != nil {
		if a.logger != nil {
			a.logger.Printf("dpop: proof for %s %s failed: %v", req.Method, req.URL.Redacted(), err)
		}
		return err
	}

	req.Header.Set("Authorization", "DPoP "+tok.AccessToken)
	req.Header.Set("DPoP", proof)
	return nil
}

// Proof signs a proof for method and u. accessToken may be empty for token
// endpoint requests, in which case no ath claim is included.
func (a *Authenticator) Proof(method string, u *url.URL, accessToken string) (string, error) {
	if u == nil {
		return "", errors.New("dpop: request has no URL")
	}

	claims := Claims{
		HTM: strings.ToUpper(method),
		HTU: htu(u),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       a.newID(),
			IssuedAt: jwt.NewNumericDate(a.now()),
		},
	}
	if accessToken != "" {
		sum := sha256.Sum256([]byte(accessToken))
		claims.ATH = base64.RawURLEncoding.EncodeToString(sum[:])
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["typ"] = ProofType
	token.Header["jwk"] = a.jwk

	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("dpop: sign proof: %w", err)
	}
	return signed, nil
}

// htu is the request URL without query and fragment.
func htu(u *url.URL) string {
	v := *u
	v.RawQuery = ""
	v.ForceQuery = false
	v.Fragment = ""
	v.RawFragment = ""
	v.User = nil
	return v.String()
}

func publicJWK(pub *ecdsa.PublicKey) (map[string]string, error) {
	ecdhKey, err := pub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("dpop: encode public key: %w", err)
	}
	// Uncompressed point: 0x04 || X || Y, 32 bytes each on P-256.
	raw := ecdhKey.Bytes()
	return map[string]string{
		"kty": "EC",
		"crv": "P-256",
		"x":   base64.RawURLEncoding.EncodeToString(raw[1:33]),
		"y":   base64.RawURLEncoding.EncodeToString(raw[33:65]),
	}, nil
}
