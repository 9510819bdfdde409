package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (RESTAUTH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("base-url", os.Getenv("RESTAUTH_BASE_URL"), &cfg.BaseURL)
	s.setString("auth", os.Getenv("RESTAUTH_AUTH"), &cfg.Auth)

	s.setString("token-url", os.Getenv("RESTAUTH_TOKEN_URL"), &cfg.TokenURL)
	s.setString("client-id", os.Getenv("RESTAUTH_CLIENT_ID"), &cfg.ClientID)
	s.setString("client-secret", os.Getenv("RESTAUTH_CLIENT_SECRET"), &cfg.ClientSecret)
	s.setString("scopes", os.Getenv("RESTAUTH_SCOPES"), &cfg.Scopes)
	s.setString("access-token", os.Getenv("RESTAUTH_ACCESS_TOKEN"), &cfg.AccessToken)
	s.setString("refresh-token", os.Getenv("RESTAUTH_REFRESH_TOKEN"), &cfg.RefreshToken)

	s.setString("consumer-key", os.Getenv("RESTAUTH_CONSUMER_KEY"), &cfg.ConsumerKey)
	s.setString("consumer-secret", os.Getenv("RESTAUTH_CONSUMER_SECRET"), &cfg.ConsumerSecret)
	s.setString("token", os.Getenv("RESTAUTH_TOKEN"), &cfg.Token)
	s.setString("token-secret", os.Getenv("RESTAUTH_TOKEN_SECRET"), &cfg.TokenSecret)
	s.setString("signature-method", os.Getenv("RESTAUTH_SIGNATURE_METHOD"), &cfg.SignatureMethod)
	s.setString("realm", os.Getenv("RESTAUTH_REALM"), &cfg.Realm)

	s.setString("dpop-key", os.Getenv("RESTAUTH_DPOP_KEY_FILE"), &cfg.DPoPKeyFile)

	s.setString("ca-file", os.Getenv("RESTAUTH_CA_FILE"), &cfg.CAFile)
	s.setString("cert-file", os.Getenv("RESTAUTH_CERT_FILE"), &cfg.CertFile)
	s.setString("key-file", os.Getenv("RESTAUTH_KEY_FILE"), &cfg.KeyFile)
	if err := s.setBoolFromString("insecure", os.Getenv("RESTAUTH_INSECURE"), &cfg.Insecure); err != nil {
		return err
	}

	if err := s.setDuration("timeout", os.Getenv("RESTAUTH_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	return s.setBoolFromString("verbose", os.Getenv("RESTAUTH_VERBOSE"), &cfg.Verbose)
}
