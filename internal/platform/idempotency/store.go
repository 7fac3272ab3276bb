// Package idempotency guards mutating endpoints against register retries.
// A register that loses its connection mid-submit resends the same request
// with the same Idempotency-Key header; the stored response is replayed
// instead of creating a second order.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL is how long completed records are retained.
const DefaultTTL = 24 * time.Hour

// ErrKeyConflict signals an idempotency key reused with a different request.
var ErrKeyConflict = errors.New("idempotency: key already used for a different request")

// ClaimState describes the outcome of claiming a key.
type ClaimState int

const (
	// ClaimAccepted means the key is new and the caller should process the request.
	ClaimAccepted ClaimState = iota
	// ClaimReplay means a stored response exists and should be replayed.
	ClaimReplay
	// ClaimInFlight means another request holds the key right now.
	ClaimInFlight
)

// Claim is the result of reserving a key.
type Claim struct {
	State  ClaimState
	Record Record
}

// Record is the persisted outcome for one idempotency key.
type Record struct {
	Key         string
	Fingerprint string
	Completed   bool
	StatusCode  int
	Headers     map[string][]string
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// StoredResponse is the HTTP response captured for replay.
type StoredResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Store persists key claims and their responses.
type Store interface {
	Claim(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Claim, error)
	Complete(ctx context.Context, key, fingerprint string, resp StoredResponse, now time.Time, ttl time.Duration) error
	Abandon(ctx context.Context, key string) error
	Purge(ctx context.Context, now time.Time, limit int) (int, error)
}

func recordID(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hop-by-hop and volatile headers never replay cleanly.
func storableHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string][]string, len(header))
	for name, values := range header {
		switch strings.ToLower(name) {
		case "content-length", "date", "connection", "keep-alive", "transfer-encoding", "upgrade":
			continue
		}
		copied := make([]string, len(values))
		copy(copied, values)
		out[http.CanonicalHeaderKey(name)] = copied
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func expired(rec Record, now time.Time) bool {
	return !rec.ExpiresAt.IsZero() && !now.Before(rec.ExpiresAt)
}
