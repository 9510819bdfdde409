package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AmmannChristian/go-restauth/rest"
	"github.com/AmmannChristian/go-restauth/restauth"
)

type sendOptions struct {
	method      string
	path        string
	query       []string
	headers     []string
	data        string
	contentType string
	form        []string
	include     bool
}

func newSendCmd(a *app) *cobra.Command {
	opts := sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one authenticated request and print the response body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			return a.send(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.method, "method", "X", http.MethodGet, "HTTP method")
	f.StringVar(&opts.path, "path", "", "path below the base URL")
	f.StringArrayVarP(&opts.query, "query", "q", nil, "query parameter key=value (repeatable)")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "header 'Key: Value' (repeatable)")
	f.StringVarP(&opts.data, "data", "d", "", "request body, or @file to read it from a file")
	f.StringVar(&opts.contentType, "content-type", rest.ContentTypeJSON, "content type of --data")
	f.StringArrayVar(&opts.form, "form", nil, "form field key=value (repeatable)")
	f.BoolVarP(&opts.include, "include", "i", false, "print status line and response headers")

	return cmd
}

func (a *app) send(cmd *cobra.Command, opts sendOptions) error {
	if opts.data != "" && len(opts.form) > 0 {
		return fmt.Errorf("--data and --form are mutually exclusive")
	}

	ctx := cmd.Context()
	auth, client, err := a.setup(ctx, a.cfg)
	if err != nil {
		return err
	}

	b := restauth.NewBuilder(a.cfg.BaseURL, auth, client, restauth.WithLogger(&a.log))
	if err := applySendOptions(b.Builder, opts); err != nil {
		return err
	}

	resp, err := b.Send(ctx)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	a.log.Info().
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL.Redacted()).
		Int("status", resp.StatusCode).
		Msg("response")

	if opts.include {
		writeHead(a.out, resp)
	}
	if _, err := io.Copy(a.out, resp.Body); err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return nil
}

func applySendOptions(b *rest.Builder, opts sendOptions) error {
	b.SetVerb(opts.method)
	if opts.path != "" {
		b.AddPath(opts.path)
	}

	for _, q := range opts.query {
		k, v, ok := strings.Cut(q, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid query %q, want key=value", q)
		}
		b.AddParameter(k, v)
	}

	for _, h := range opts.headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return fmt.Errorf("invalid header %q, want 'Key: Value'", h)
		}
		b.AddHeader(strings.TrimSpace(k), strings.TrimSpace(v))
	}

	switch {
	case opts.data != "":
		body, err := readData(opts.data)
		if err != nil {
			return err
		}
		b.SetBody(body, opts.contentType)
	case len(opts.form) > 0:
		values := url.Values{}
		for _, field := range opts.form {
			k, v, ok := strings.Cut(field, "=")
			if !ok || k == "" {
				return fmt.Errorf("invalid form field %q, want key=value", field)
			}
			values.Add(k, v)
		}
		b.SetFormBody(values)
	}

	return nil
}

func readData(data string) ([]byte, error) {
	name, ok := strings.CutPrefix(data, "@")
	if !ok {
		return []byte(data), nil
	}
	body, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read --data file: %w", err)
	}
	return body, nil
}

func writeHead(w io.Writer, resp *http.Response) {
	fmt.Fprintf(w, "%s %s\n", resp.Proto, resp.Status)

	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			fmt.Fprintf(w, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintln(w)
}
