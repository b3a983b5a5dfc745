package oracle

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// #region helpers
func startServer(t *testing.T, backend Client) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterServer(srv, backend, time.Second, zerolog.Nop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewGRPCClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// #endregion helpers

// #region grpc-tests
func TestGRPCClient_RoundTrip(t *testing.T) {
	var seen Request
	backend := Func(func(_ context.Context, req Request) (string, error) {
		seen = req
		return "MY FINAL ANSWER IS: they", nil
	})
	c := startServer(t, backend)

	got, err := c.Query(context.Background(), Request{Model: "llama3", Prompt: "fill ___", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "MY FINAL ANSWER IS: they" {
		t.Errorf("got %q", got)
	}
	if seen.Model != "llama3" || seen.Prompt != "fill ___" {
		t.Errorf("backend saw %+v", seen)
	}
	if seen.Timeout != time.Second {
		t.Errorf("backend timeout: got %s, want server timeout", seen.Timeout)
	}
}

func TestGRPCClient_BackendFailure(t *testing.T) {
	c := startServer(t, NewScript(Fail("exit status 1")))

	_, err := c.Query(context.Background(), Request{Model: "mistral", Prompt: "x", Timeout: 2 * time.Second})
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if !strings.Contains(f.Reason, "Unavailable") {
		t.Errorf("reason %q should carry the status code", f.Reason)
	}
	if f.Model != "mistral" {
		t.Errorf("model: got %q", f.Model)
	}
}

func TestGRPCClient_MissingModel(t *testing.T) {
	c := startServer(t, NewScript(Reply("unused")))

	_, err := c.Query(context.Background(), Request{Prompt: "x", Timeout: 2 * time.Second})
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if !strings.Contains(f.Reason, "InvalidArgument") {
		t.Errorf("reason %q should carry InvalidArgument", f.Reason)
	}
}

func TestGRPCClient_Timeout(t *testing.T) {
	backend := Func(func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", &Failure{Reason: "cancelled", Err: ctx.Err()}
	})
	c := startServer(t, backend)

	_, err := c.Query(context.Background(), Request{Model: "llama3", Prompt: "x", Timeout: 50 * time.Millisecond})
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if !strings.Contains(f.Reason, "timed out") {
		t.Errorf("reason %q should mention timeout", f.Reason)
	}
}

// #endregion grpc-tests
