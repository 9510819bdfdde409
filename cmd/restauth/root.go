package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/AmmannChristian/go-restauth/internal/cliconfig"
	"github.com/AmmannChristian/go-restauth/restauth"
)

var exampleUsage = strings.TrimSpace(`
  restauth send --base-url https://api.example.com --auth bearer --access-token $TOKEN --path /items
  restauth send --config profile.toml --method POST --path /items --data @item.json
  restauth watch --config profile.toml --path /health --interval 30s
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the configuration shared by all subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string

	// flagCfg is cfg after flag parsing and before file and env values, so
	// a reload can start from it again.
	flagCfg cliconfig.Config
	changed map[string]bool
	cfgFile string

	out    io.Writer
	errOut io.Writer
	log    zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		cfg:    cliconfig.DefaultConfig(),
		out:    out,
		errOut: errOut,
		log:    cliconfig.Logger(errOut, false),
	}

	root := &cobra.Command{
		Use:           "restauth",
		Short:         "Send authenticated REST requests using OAuth 2.0, OAuth 1.0a or DPoP profiles",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.restauth/config.toml)")
	flags.StringVar(&a.cfg.BaseURL, "base-url", a.cfg.BaseURL, "API base URL")
	flags.StringVar(&a.cfg.Auth, "auth", a.cfg.Auth, "authentication: none, client_credentials, bearer, refresh_token, oauth1, dpop")

	flags.StringVar(&a.cfg.TokenURL, "token-url", a.cfg.TokenURL, "OAuth2 token endpoint")
	flags.StringVar(&a.cfg.ClientID, "client-id", a.cfg.ClientID, "OAuth2 client ID")
	flags.StringVar(&a.cfg.ClientSecret, "client-secret", a.cfg.ClientSecret, "OAuth2 client secret")
	flags.StringVar(&a.cfg.Scopes, "scopes", a.cfg.Scopes, "space-separated OAuth2 scopes")
	flags.StringVar(&a.cfg.AccessToken, "access-token", a.cfg.AccessToken, "static access token (bearer, dpop)")
	flags.StringVar(&a.cfg.RefreshToken, "refresh-token", a.cfg.RefreshToken, "OAuth2 refresh token")

	flags.StringVar(&a.cfg.ConsumerKey, "consumer-key", a.cfg.ConsumerKey, "OAuth1 consumer key")
	flags.StringVar(&a.cfg.ConsumerSecret, "consumer-secret", a.cfg.ConsumerSecret, "OAuth1 consumer secret")
	flags.StringVar(&a.cfg.Token, "token", a.cfg.Token, "OAuth1 token")
	flags.StringVar(&a.cfg.TokenSecret, "token-secret", a.cfg.TokenSecret, "OAuth1 token secret")
	flags.StringVar(&a.cfg.SignatureMethod, "signature-method", a.cfg.SignatureMethod, "OAuth1 signature method: HMAC-SHA1, HMAC-SHA256, PLAINTEXT")
	flags.StringVar(&a.cfg.Realm, "realm", a.cfg.Realm, "OAuth1 realm")

	flags.StringVar(&a.cfg.DPoPKeyFile, "dpop-key", a.cfg.DPoPKeyFile, "PEM file with the P-256 DPoP key")

	flags.StringVar(&a.cfg.CAFile, "ca-file", a.cfg.CAFile, "CA certificate for server verification")
	flags.StringVar(&a.cfg.CertFile, "cert-file", a.cfg.CertFile, "client certificate for mTLS")
	flags.StringVar(&a.cfg.KeyFile, "key-file", a.cfg.KeyFile, "client key for mTLS")
	flags.BoolVar(&a.cfg.Insecure, "insecure", a.cfg.Insecure, "skip TLS verification (testing only)")

	flags.DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "HTTP timeout")
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", a.cfg.Verbose, "log token refreshes and signing")

	root.AddCommand(newSendCmd(a), newWatchCmd(a))

	return root
}

// load layers the config file and RESTAUTH_* variables under the flags
// that were set on cmd.
func (a *app) load(cmd *cobra.Command) error {
	a.changed = map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { a.changed[f.Name] = true })

	a.cfgFile = a.cfgPath
	if a.cfgFile == "" {
		a.cfgFile = cliconfig.DefaultConfigPath()
	}
	a.flagCfg = a.cfg

	cfg, err := a.resolve()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = cliconfig.Logger(a.errOut, a.cfg.Verbose)
	a.log.Debug().Interface("config", a.cfg.Redacted()).Msg("configuration")
	return nil
}

// resolve builds the effective configuration from flagCfg.
func (a *app) resolve() (cliconfig.Config, error) {
	cfg := a.flagCfg

	if a.cfgFile != "" && cliconfig.FileExists(a.cfgFile) {
		fc, err := cliconfig.LoadFileConfig(a.cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, a.changed); err != nil {
			return cfg, err
		}
	} else if a.cfgPath != "" {
		return cfg, fmt.Errorf("config file %s not found", a.cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&cfg, a.changed); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setup creates the HTTP client and the authenticator for cfg.
func (a *app) setup(ctx context.Context, cfg cliconfig.Config) (restauth.Authenticator, *http.Client, error) {
	client, err := cliconfig.HTTPClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	auth, err := cliconfig.NewAuthenticator(ctx, cfg, client, &a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("create authenticator: %w", err)
	}
	return auth, client, nil
}
