package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	BaseURL string `toml:"base_url"`
	Auth    string `toml:"auth"`

	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Scopes       string `toml:"scopes"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`

	ConsumerKey     string `toml:"consumer_key"`
	ConsumerSecret  string `toml:"consumer_secret"`
	Token           string `toml:"token"`
	TokenSecret     string `toml:"token_secret"`
	SignatureMethod string `toml:"signature_method"`
	Realm           string `toml:"realm"`

	DPoPKeyFile string `toml:"dpop_key_file"`

	CAFile   string `toml:"ca_file"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
	Insecure *bool  `toml:"insecure"`

	Timeout string `toml:"timeout"`
	Verbose *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML profile from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.restauth/config.toml, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".restauth", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("base-url", fc.BaseURL, &cfg.BaseURL)
	s.setString("auth", fc.Auth, &cfg.Auth)

	s.setString("token-url", fc.TokenURL, &cfg.TokenURL)
	s.setString("client-id", fc.ClientID, &cfg.ClientID)
	s.setString("client-secret", fc.ClientSecret, &cfg.ClientSecret)
	s.setString("scopes", fc.Scopes, &cfg.Scopes)
	s.setString("access-token", fc.AccessToken, &cfg.AccessToken)
	s.setString("refresh-token", fc.RefreshToken, &cfg.RefreshToken)

	s.setString("consumer-key", fc.ConsumerKey, &cfg.ConsumerKey)
	s.setString("consumer-secret", fc.ConsumerSecret, &cfg.ConsumerSecret)
	s.setString("token", fc.Token, &cfg.Token)
	s.setString("token-secret", fc.TokenSecret, &cfg.TokenSecret)
	s.setString("signature-method", fc.SignatureMethod, &cfg.SignatureMethod)
	s.setString("realm", fc.Realm, &cfg.Realm)

	s.setString("dpop-key", fc.DPoPKeyFile, &cfg.DPoPKeyFile)

	s.setString("ca-file", fc.CAFile, &cfg.CAFile)
	s.setString("cert-file", fc.CertFile, &cfg.CertFile)
	s.setString("key-file", fc.KeyFile, &cfg.KeyFile)
	s.setBool("insecure", fc.Insecure, &cfg.Insecure)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
