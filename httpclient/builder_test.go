package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AmmannChristian/go-restauth/internal/testutil"
	"github.com/AmmannChristian/go-restauth/oauth2client"
	"github.com/AmmannChristian/go-restauth/restauth"
)

func TestNewBuilder(t *testing.T) {
	builder := NewBuilder()

	if builder.timeout != DefaultTimeout {
		t.Errorf("expected default timeout 30s, got %v", builder.timeout)
	}
	if !builder.followRedirects {
		t.Error("redirects should be enabled by default")
	}
	if builder.auth != nil {
		t.Error("no authenticator by default")
	}
}

func TestBuilder_Setters(t *testing.T) {
	base := &testutil.RecordingTransport{}
	auth := oauth2client.NewStaticAuthenticator("t")

	b := NewBuilder().
		WithAuthenticator(auth).
		WithTLS("ca.pem", "cert.pem", "key.pem").
		WithInsecureSkipVerify().
		WithTimeout(5 * time.Second).
		WithBaseTransport(base).
		WithoutRedirects()

	want := TLSConfig{Enabled: true, CAFile: "ca.pem", CertFile: "cert.pem", KeyFile: "key.pem", SkipVerify: true}
	if b.tls != want {
		t.Errorf("unexpected TLS settings %+v", b.tls)
	}
	if b.auth != auth || b.baseTransport != base || b.timeout != 5*time.Second || b.followRedirects {
		t.Error("setters not applied")
	}
}

func TestBuilder_WithClientCredentials(t *testing.T) {
	b := NewBuilder().WithClientCredentials(context.Background(), "https://auth.example.com/token", "client", "secret", "openid")

	if _, ok := b.auth.(*oauth2client.TokenManager); !ok {
		t.Errorf("expected a token manager, got %T", b.auth)
	}
}

func TestBuilder_Build_Simple(t *testing.T) {
	client, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if client.Timeout != DefaultTimeout {
		t.Errorf("unexpected timeout %v", client.Timeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if transport == http.DefaultTransport {
		t.Error("default transport should be cloned")
	}
	if transport.TLSClientConfig == nil || transport.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Error("TLS 1.2 minimum should always be set")
	}
	if client.CheckRedirect != nil {
		t.Error("redirects should use the default policy")
	}
}

func TestBuilder_Build_WithAuthenticator(t *testing.T) {
	server := testutil.NewMockOAuth2Server(t, nil)
	tm := oauth2client.NewTokenManager(server.Ctx, server.URL+"/token", "client", "secret", "openid")
	base := &testutil.RecordingTransport{}

	client, err := NewBuilder().WithAuthenticator(tm).WithBaseTransport(base).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport, ok := client.Transport.(*restauth.Transport)
	if !ok {
		t.Fatalf("expected *restauth.Transport, got %T", client.Transport)
	}
	if transport.Base != base {
		t.Error("base transport not wrapped")
	}

	resp, err := client.Get("https://api.example.com/data")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got := base.Last().Header.Get("Authorization"); got != "Bearer mock-access-token" {
		t.Errorf("unexpected Authorization header: %s", got)
	}
}

func TestBuilder_Build_WithoutRedirects(t *testing.T) {
	client, err := NewBuilder().WithoutRedirects().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if client.CheckRedirect == nil {
		t.Fatal("CheckRedirect should be set")
	}
	if err := client.CheckRedirect(nil, nil); err != http.ErrUseLastResponse {
		t.Errorf("expected ErrUseLastResponse, got %v", err)
	}
}

func TestBuilder_Build_CustomBaseTransportKept(t *testing.T) {
	base := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return testutil.TextResponse(req, http.StatusOK, ""), nil
	})

	client, err := NewBuilder().WithTLS("", "", "").WithBaseTransport(base).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, ok := client.Transport.(testutil.RoundTripFunc); !ok {
		t.Errorf("custom transport should be used as is, got %T", client.Transport)
	}
}

func TestBuilder_Build_WithTLS_CAFile(t *testing.T) {
	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	testutil.WriteTestCACert(t, caFile)

	client, err := NewBuilder().WithTLS(caFile, "", "").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cfg := client.Transport.(*http.Transport).TLSClientConfig
	if cfg.RootCAs == nil {
		t.Error("RootCAs should be loaded")
	}
	if cfg.InsecureSkipVerify {
		t.Error("verification should stay enabled")
	}
}

func TestBuilder_Build_WithMutualTLS(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	testutil.WriteTestCertAndKey(t, certFile, keyFile)

	client, err := NewBuilder().WithTLS("", certFile, keyFile).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if n := len(client.Transport.(*http.Transport).TLSClientConfig.Certificates); n != 1 {
		t.Errorf("expected one client certificate, got %d", n)
	}
}

func TestBuilder_Build_WithInsecureSkipVerifyOnly(t *testing.T) {
	client, err := NewBuilder().WithInsecureSkipVerify().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !client.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should be set")
	}
}

func TestTLSConfig_Build_Errors(t *testing.T) {
	dir := t.TempDir()
	badCA := filepath.Join(dir, "bad-ca.pem")
	if err := os.WriteFile(badCA, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	testutil.WriteTestCertAndKey(t, certFile, keyFile)

	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr string
	}{
		{name: "missing CA file", cfg: TLSConfig{CAFile: filepath.Join(dir, "missing.pem")}, wantErr: "read CA file"},
		{name: "invalid CA content", cfg: TLSConfig{CAFile: badCA}, wantErr: "failed to parse CA certificate"},
		{name: "only cert", cfg: TLSConfig{CertFile: certFile}, wantErr: "both TLS cert and key files"},
		{name: "only key", cfg: TLSConfig{KeyFile: keyFile}, wantErr: "both TLS cert and key files"},
		{name: "mismatched pair", cfg: TLSConfig{CertFile: certFile, KeyFile: badCA}, wantErr: "load client certificate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuilder_Build_TLSErrorWrapped(t *testing.T) {
	_, err := NewBuilder().WithTLS("", "only-cert.pem", "").Build()
	if err == nil || !strings.HasPrefix(err.Error(), "httpclient: TLS config failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	auth := oauth2client.NewStaticAuthenticator("t")
	client := NewHTTPClient(auth)

	if client.Timeout != DefaultTimeout {
		t.Errorf("unexpected timeout %v", client.Timeout)
	}
	transport, ok := client.Transport.(*restauth.Transport)
	if !ok || transport.Authenticator != auth {
		t.Error("client should authenticate with the given authenticator")
	}
}

func TestBuilder_Build_Integration(t *testing.T) {
	var gotAuth string
	api := testutil.NewLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	client, err := NewBuilder().WithAuthenticator(oauth2client.NewStaticAuthenticator("integration")).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	resp, err := restauth.NewBuilder(api.URL, nil, client).AddPath("ping").Send(context.Background())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
	if gotAuth != "Bearer integration" {
		t.Errorf("server saw Authorization %q", gotAuth)
	}
}

func BenchmarkBuilder_Build(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = NewBuilder().WithTimeout(10 * time.Second).Build()
	}
}
