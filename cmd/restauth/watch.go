package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AmmannChristian/go-restauth/internal/cliconfig"
	"github.com/AmmannChristian/go-restauth/restauth"
)

type watchOptions struct {
	path     string
	interval time.Duration
	count    int
	debounce time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll an endpoint and swap credentials when the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if opts.interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "path below the base URL to poll")
	f.DurationVar(&opts.interval, "interval", 30*time.Second, "poll interval")
	f.IntVar(&opts.count, "count", 0, "stop after this many polls (0 polls until interrupted)")
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "wait for config writes to settle before reloading")
	_ = f.MarkHidden("debounce")

	return cmd
}

func (a *app) watch(ctx context.Context, opts watchOptions) error {
	auth, client, err := a.setup(ctx, a.cfg)
	if err != nil {
		return err
	}
	api := restauth.NewClient(a.cfg.BaseURL, auth, client, restauth.WithLogger(&a.log))

	var changes <-chan struct{}
	if a.cfgFile != "" && cliconfig.FileExists(a.cfgFile) {
		changes, err = cliconfig.WatchFile(ctx, a.cfgFile, opts.debounce)
		if err != nil {
			a.log.Warn().Err(err).Str("path", a.cfgFile).Msg("config reload disabled")
		}
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	polls := 0
	poll := func() {
		polls++
		a.poll(ctx, api, opts.path)
	}

	poll()
	for opts.count == 0 || polls < opts.count {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			a.reload(ctx, api)
		}
	}
	return nil
}

func (a *app) poll(ctx context.Context, api *restauth.Client, path string) {
	b := api.Builder()
	if path != "" {
		b.AddPath(path)
	}

	start := time.Now()
	resp, err := b.Send(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Error().Err(err).Msg("poll failed")
		}
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	event := a.log.Info()
	if resp.StatusCode >= 400 {
		event = a.log.Warn()
	}
	event.
		Str("url", resp.Request.URL.Redacted()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("poll")
}

// reload re-reads the configuration and swaps the client's authenticator.
// The transport is kept; base URL and TLS changes need a restart.
func (a *app) reload(ctx context.Context, api *restauth.Client) {
	cfg, err := a.resolve()
	if err != nil {
		a.log.Error().Err(err).Msg("reload config")
		return
	}

	auth, err := cliconfig.NewAuthenticator(ctx, cfg, api.HTTPClient(), &a.log)
	if err != nil {
		a.log.Error().Err(err).Msg("reload credentials")
		return
	}

	if cfg.BaseURL != a.cfg.BaseURL {
		a.log.Warn().Str("base_url", cfg.BaseURL).Msg("base URL change ignored until restart")
	}

	api.SetOAuth(auth, restauth.KeepTransport())
	a.log.Info().Str("auth", cfg.Auth).Msg("credentials reloaded")
}
