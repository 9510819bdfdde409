package oauth1

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by OAuth 1.0a
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"log"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignatureMethod names an OAuth 1.0a signature algorithm.
type SignatureMethod string

// Supported signature methods.
const (
	HMACSHA1   SignatureMethod = "HMAC-SHA1"
	HMACSHA256 SignatureMethod = "HMAC-SHA256"
	Plaintext  SignatureMethod = "PLAINTEXT"
)

// ErrMissingCredentials is returned when the consumer key or secret is empty.
var ErrMissingCredentials = errors.New("oauth1: consumer key and secret are required")

// Credentials holds the consumer and token pairs. Token and TokenSecret are
// empty for two-legged requests.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// Logger is an interface for optional logging in Signer.
type Logger interface {
	Printf(format string, args ...any)
}

// Signer signs requests with OAuth 1.0a (RFC 5849). It implements
// restauth.Authenticator and restauth.TransportProvider.
//
// Signer requires the request body: url-encoded form bodies are part of the
// signature base string.
type Signer struct {
	creds  Credentials
	method SignatureMethod
	realm  string
	now    func() time.Time
	nonce  func() string
	client *http.Client
	logger Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithSignatureMethod selects the algorithm. The default is HMAC-SHA1.
func WithSignatureMethod(method SignatureMethod) Option {
	return func(s *Signer) {
		s.method = method
	}
}

// WithRealm adds a realm parameter to the Authorization header.
func WithRealm(realm string) Option {
	return func(s *Signer) {
		s.realm = realm
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithNonce overrides the nonce generator.
func WithNonce(nonce func() string) Option {
	return func(s *Signer) {
		s.nonce = nonce
	}
}

// WithHTTPClient sets the client reported by HTTPClient.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Signer) {
		s.client = client
	}
}

// WithLogger logs every signed request.
func WithLogger(logger Logger) Option {
	return func(s *Signer) {
		s.logger = logger
	}
}

// WithLoggingEnabled logs through the standard log package.
func WithLoggingEnabled() Option {
	return func(s *Signer) {
		s.logger = log.Default()
	}
}

// NewSigner returns a Signer for creds.
func NewSigner(creds Credentials, opts ...Option) (*Signer, error) {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, ErrMissingCredentials
	}

	s := &Signer{
		creds:  creds,
		method: HMACSHA1,
		now:    time.Now,
		nonce:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, opt := range opts {
		opt(s)
	}

	switch s.method {
	case HMACSHA1, HMACSHA256, Plaintext:
	default:
		return nil, fmt.Errorf("oauth1: unsupported signature method %q", s.method)
	}

	return s, nil
}

// RequiresBody implements restauth.Authenticator.
func (s *Signer) RequiresBody() bool {
	return true
}

// HTTPClient implements restauth.TransportProvider.
func (s *Signer) HTTPClient() *http.Client {
	return s.client
}

// Authorize implements restauth.Authenticator. It sets the Authorization
// header; body is read but never modified.
func (s *Signer) Authorize(req *http.Request, body *bytes.Buffer) error {
	if req.URL == nil {
		return errors.New("oauth1: request has no URL")
	}

	oauthParams := s.oauthParams()

	var form url.Values
	if body != nil && isFormEncoded(req.Header.Get("Content-Type")) {
		parsed, err := url.ParseQuery(body.String())
		if err != nil {
			return fmt.Errorf("oauth1: parse form body: %w", err)
		}
		form = parsed
	}

	signature, err := s.sign(req.Method, req.URL, oauthParams, form)
	if err != nil {
		return err
	}
	oauthParams["oauth_signature"] = signature

	req.Header.Set("Authorization", s.header(oauthParams))

	if s.logger != nil {
		s.logger.Printf("oauth1: signed %s %s with %s", req.Method, req.URL.Redacted(), s.method)
	}
	return nil
}

func (s *Signer) oauthParams() map[string]string {
	params := map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": string(s.method),
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if s.creds.Token != "" {
		params["oauth_token"] = s.creds.Token
	}
	return params
}

func (s *Signer) sign(method string, u *url.URL, oauthParams map[string]string, form url.Values) (string, error) {
	key := encode(s.creds.ConsumerSecret) + "&" + encode(s.creds.TokenSecret)

	var newHash func() hash.Hash
	switch s.method {
	case Plaintext:
		return key, nil
	case HMACSHA1:
		newHash = sha1.New
	case HMACSHA256:
		newHash = sha256.New
	default:
		return "", fmt.Errorf("oauth1: unsupported signature method %q", s.method)
	}

	mac := hmac.New(newHash, []byte(key))
	mac.Write([]byte(BaseString(method, u, oauthParams, form)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (s *Signer) header(oauthParams map[string]string) string {
	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	if s.realm != "" {
		parts = append(parts, fmt.Sprintf("realm=%q", s.realm))
	}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", encode(k), encode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// BaseString returns the signature base string for a request: the method,
// the normalized URL, and the sorted, encoded parameters from the query,
// the oauth_* set, and an url-encoded form body.
func BaseString(method string, u *url.URL, oauthParams map[string]string, form url.Values) string {
	type pair struct{ k, v string }
	var pairs []pair

	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, pair{encode(k), encode(v)})
		}
	}
	for k, vs := range form {
		for _, v := range vs {
			pairs = append(pairs, pair{encode(k), encode(v)})
		}
	}
	for k, v := range oauthParams {
		if k == "oauth_signature" {
			continue
		}
		pairs = append(pairs, pair{encode(k), encode(v)})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	normalized := make([]string, len(pairs))
	for i, p := range pairs {
		normalized[i] = p.k + "=" + p.v
	}

	return strings.ToUpper(method) + "&" + encode(baseURL(u)) + "&" + encode(strings.Join(normalized, "&"))
}

// baseURL drops the query and fragment, lowercases scheme and host, and
// omits default ports.
func baseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

func isFormEncoded(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// encode percent-encodes s per RFC 3986 section 2.3: only unreserved
// characters stay literal.
func encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
