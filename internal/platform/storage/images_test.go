package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"
	"time"
)

func testSigner(t *testing.T) *ServiceAccountSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	raw, err := json.Marshal(map[string]string{
		"client_email": "signer@test-project.iam.gserviceaccount.com",
		"private_key":  string(pemKey),
	})
	if err != nil {
		t.Fatalf("marshal key json: %v", err)
	}

	signer, err := NewServiceAccountSignerFromJSON(raw)
	if err != nil {
		t.Fatalf("NewServiceAccountSignerFromJSON: %v", err)
	}
	return signer
}

func TestImageStoreDownloadURL(t *testing.T) {
	now := time.Date(2024, 10, 7, 12, 0, 0, 0, time.UTC)
	store, err := NewImageStore(testSigner(t), "pearlpos-images",
		WithSigningClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	result, err := store.DownloadURL(context.Background(), "classic-milk-tea.png")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if result.Method != "GET" {
		t.Errorf("method = %q", result.Method)
	}
	if !strings.Contains(result.URL, "pearlpos-images") {
		t.Errorf("url missing bucket: %s", result.URL)
	}
	if !strings.Contains(result.URL, "menu-images/classic-milk-tea.png") {
		t.Errorf("url missing object path: %s", result.URL)
	}
	if !result.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("expires = %v", result.ExpiresAt)
	}
}

func TestImageStoreDefaultImage(t *testing.T) {
	store, err := NewImageStore(testSigner(t), "pearlpos-images",
		WithDefaultImage("placeholder.png"),
	)
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	result, err := store.DownloadURL(context.Background(), "")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !strings.Contains(result.URL, "menu-images/placeholder.png") {
		t.Errorf("url did not fall back to default: %s", result.URL)
	}
}

func TestImageStoreUploadURL(t *testing.T) {
	store, err := NewImageStore(testSigner(t), "pearlpos-images")
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	result, err := store.UploadURL(context.Background(), "new-item.png", "image/png")
	if err != nil {
		t.Fatalf("UploadURL: %v", err)
	}
	if result.Method != "PUT" {
		t.Errorf("method = %q", result.Method)
	}
	if result.Headers["Content-Type"] != "image/png" {
		t.Errorf("headers = %v", result.Headers)
	}

	if _, err := store.UploadURL(context.Background(), "evil.sh", "application/x-sh"); err == nil {
		t.Fatal("expected rejection of non-image content type")
	}
	if _, err := store.UploadURL(context.Background(), "", "image/png"); err == nil {
		t.Fatal("expected rejection of empty image id")
	}
}

func TestNewImageStoreRequiresSigner(t *testing.T) {
	if _, err := NewImageStore(nil, "bucket"); err == nil {
		t.Fatal("expected error for nil signer")
	}
	if _, err := NewImageStore(testSigner(t), "  "); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
