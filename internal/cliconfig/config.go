package cliconfig

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Authentication schemes understood by NewAuthenticator.
const (
	AuthNone              = "none"
	AuthClientCredentials = "client_credentials"
	AuthBearer            = "bearer"
	AuthRefreshToken      = "refresh_token"
	AuthOAuth1            = "oauth1"
	AuthDPoP              = "dpop"
)

// Config holds CLI configuration for restauth.
type Config struct {
	BaseURL string
	Auth    string

	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       string
	AccessToken  string
	RefreshToken string

	ConsumerKey     string
	ConsumerSecret  string
	Token           string
	TokenSecret     string
	SignatureMethod string
	Realm           string

	DPoPKeyFile string

	CAFile   string
	CertFile string
	KeyFile  string
	Insecure bool

	Timeout time.Duration
	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Auth:            AuthNone,
		SignatureMethod: "HMAC-SHA1",
		Timeout:         30 * time.Second,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base-url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base-url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base-url must be absolute, got %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	c.Auth = strings.ToLower(strings.TrimSpace(c.Auth))
	if c.Auth == "" {
		c.Auth = AuthNone
	}

	switch c.Auth {
	case AuthNone:
	case AuthClientCredentials:
		if err := require(map[string]string{"token-url": c.TokenURL, "client-id": c.ClientID, "client-secret": c.ClientSecret}); err != nil {
			return err
		}
	case AuthBearer:
		if err := require(map[string]string{"access-token": c.AccessToken}); err != nil {
			return err
		}
	case AuthRefreshToken:
		if err := require(map[string]string{"token-url": c.TokenURL, "client-id": c.ClientID, "refresh-token": c.RefreshToken}); err != nil {
			return err
		}
	case AuthOAuth1:
		if err := require(map[string]string{"consumer-key": c.ConsumerKey, "consumer-secret": c.ConsumerSecret}); err != nil {
			return err
		}
	case AuthDPoP:
		if err := require(map[string]string{"dpop-key": c.DPoPKeyFile}); err != nil {
			return err
		}
		if c.AccessToken == "" && (c.TokenURL == "" || c.ClientID == "") {
			return fmt.Errorf("dpop needs access-token or client credentials")
		}
	default:
		return fmt.Errorf("unknown auth %q", c.Auth)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	return nil
}

// Redacted returns a copy with secrets masked for logging.
func (c Config) Redacted() Config {
	for _, s := range []*string{&c.ClientSecret, &c.AccessToken, &c.RefreshToken, &c.ConsumerSecret, &c.TokenSecret} {
		if *s != "" {
			*s = "*****"
		}
	}
	return c
}

func require(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
}

// configSetter applies configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses environment booleans; invalid values are errors.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}
