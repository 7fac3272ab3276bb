package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeSecretClient struct {
	values map[string]string
	err    error
	calls  int
}

func (f *fakeSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	value, ok := f.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (f *fakeSecretClient) Close() error { return nil }

func TestFetcherResolvesAndCaches(t *testing.T) {
	client := &fakeSecretClient{values: map[string]string{
		"projects/demo/secrets/token/versions/latest": "hunter2",
	}}
	fetcher, err := NewFetcher(context.Background(), WithSecretManagerClient(client))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	for i := 0; i < 3; i++ {
		value, err := fetcher.ResolveSecret(context.Background(), "projects/demo/secrets/token/versions/latest")
		if err != nil {
			t.Fatalf("ResolveSecret: %v", err)
		}
		if value != "hunter2" {
			t.Fatalf("value = %q", value)
		}
	}
	if client.calls != 1 {
		t.Errorf("remote calls = %d, want 1 (cache)", client.calls)
	}

	fetcher.Invalidate("projects/demo/secrets/token/versions/latest")
	if _, err := fetcher.ResolveSecret(context.Background(), "projects/demo/secrets/token/versions/latest"); err != nil {
		t.Fatalf("ResolveSecret after invalidate: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("remote calls = %d, want 2 after invalidate", client.calls)
	}
}

func TestFetcherBareNameUsesProject(t *testing.T) {
	client := &fakeSecretClient{values: map[string]string{
		"projects/demo/secrets/signer-key/versions/latest": "pem-bytes",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithProject("demo"),
	)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	value, err := fetcher.ResolveSecret(context.Background(), "signer-key")
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	if value != "pem-bytes" {
		t.Fatalf("value = %q", value)
	}
}

func TestFetcherFallbackFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".secrets.local")
	content := strings.Join([]string{
		"# local development secrets",
		"projects/demo/secrets/token/versions/latest=local-token",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fallback: %v", err)
	}

	client := &fakeSecretClient{err: status.Error(codes.PermissionDenied, "denied")}
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(client),
		WithFallbackFile(path),
	)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	value, err := fetcher.ResolveSecret(context.Background(), "projects/demo/secrets/token/versions/latest")
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	if value != "local-token" {
		t.Fatalf("value = %q", value)
	}
}

func TestFetcherHardErrorDoesNotFallBack(t *testing.T) {
	client := &fakeSecretClient{err: status.Error(codes.Internal, "boom")}
	fetcher, err := NewFetcher(context.Background(), WithSecretManagerClient(client))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := fetcher.ResolveSecret(context.Background(), "projects/demo/secrets/token/versions/latest"); err == nil {
		t.Fatal("expected error for internal failure")
	}
}

func TestFetcherEmptyReference(t *testing.T) {
	fetcher, err := NewFetcher(context.Background(), WithSecretManagerClient(&fakeSecretClient{}))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := fetcher.ResolveSecret(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty reference")
	}
}
