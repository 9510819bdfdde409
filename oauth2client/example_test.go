package oauth2client_test

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/AmmannChristian/go-restauth/oauth2client"
	"github.com/AmmannChristian/go-restauth/restauth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024

var (
	bufListener = bufconn.Listen(bufSize)
	bufServer   = grpc.NewServer()
	bufOnce     sync.Once
)

func startBufServer() {
	bufOnce.Do(func() {
		go func() {
			_ = bufServer.Serve(bufListener)
		}()
	})
}

func dialBufConn(opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	startBufServer()

	dialOpts := []grpc.DialOption{
		grpc.WithContextDialer(func(c context.Context, _ string) (net.Conn, error) {
			return bufListener.DialContext(c)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	dialOpts = append(dialOpts, opts...)
	return grpc.NewClient("passthrough:///bufnet", dialOpts...)
}

// Example shows one token manager authenticating a REST builder.
func Example() {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"example-token","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenServer.Close()

	tm := oauth2client.NewTokenManager(
		context.Background(),
		tokenServer.URL+"/token",
		"client-id",
		"client-secret",
		"items.read",
	)

	req, err := restauth.NewBuilder("https://api.example.com", tm, nil).
		AddPath("items").
		Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(req.Header.Get("Authorization"))
	// Output: Bearer example-token
}

// ExampleTokenManager_UnaryClientInterceptor wires the manager into a gRPC client.
func ExampleTokenManager_UnaryClientInterceptor() {
	tm := oauth2client.NewTokenManager(
		context.Background(),
		"https://auth.example.com/oauth/v2/token",
		"client-id",
		"client-secret",
		"openid profile email",
	)

	conn, err := dialBufConn(
		grpc.WithUnaryInterceptor(tm.UnaryClientInterceptor()),
		grpc.WithStreamInterceptor(tm.StreamClientInterceptor()),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	fmt.Println("gRPC client configured with OAuth2 authentication")
	// Output: gRPC client configured with OAuth2 authentication
}

// ExampleNewStaticAuthenticator sends a fixed token, e.g. a personal access token.
func ExampleNewStaticAuthenticator() {
	auth := oauth2client.NewStaticAuthenticator("personal-access-token")

	req, err := restauth.NewBuilder("https://api.example.com", auth, nil).
		AddPath("user").
		Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(req.URL, req.Header.Get("Authorization"))
	// Output: https://api.example.com/user Bearer personal-access-token
}
