// Package pagination provides the opaque cursor tokens and page size
// clamping shared by list endpoints and their Firestore queries.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPageToken marks tokens that cannot be decoded. Callers should
// treat it as bad input rather than a backend failure.
var ErrInvalidPageToken = errors.New("pagination: invalid page token")

// Clamp bounds a requested page size. Non-positive requests fall back to
// the default, oversized ones are capped at max.
func Clamp(requested, fallback, max int) int {
	switch {
	case requested <= 0:
		return fallback
	case requested > max:
		return max
	default:
		return requested
	}
}

// EncodeToken serialises a cursor into a URL-safe page token. The cursor
// shape is owned by the repository producing it; tokens are opaque to
// clients.
func EncodeToken(cursor any) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("pagination: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken parses a page token produced by EncodeToken into cursor.
func DecodeToken(token string, cursor any) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidPageToken)
	}
	data, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if err := json.Unmarshal(data, cursor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return nil
}
