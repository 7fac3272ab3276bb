package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const (
	defaultDownloadExpiry = 15 * time.Minute
	defaultUploadExpiry   = 15 * time.Minute
	maxUploadBytes        = 10 << 20
)

var (
	errNoSigner          = errors.New("storage: signer is required")
	errInvalidBucket     = errors.New("storage: bucket name is required")
	errContentTypeDenied = errors.New("storage: content type not allowed")
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp"}

// SignedURLResult describes a generated signed URL.
type SignedURLResult struct {
	URL       string
	Method    string
	ExpiresAt time.Time
	Headers   map[string]string
}

// ImageStore issues signed URLs for menu item images held in a GCS bucket.
// Items without an image resolve to the configured default object.
type ImageStore struct {
	signer       Signer
	bucket       string
	prefix       string
	defaultImage string
	expiry       time.Duration
	scheme       storage.SigningScheme
	now          func() time.Time
}

// ImageStoreOption customises ImageStore behaviour.
type ImageStoreOption func(*ImageStore)

// WithURLExpiry overrides the signed URL lifetime.
func WithURLExpiry(expiry time.Duration) ImageStoreOption {
	return func(s *ImageStore) {
		if expiry > 0 {
			s.expiry = expiry
		}
	}
}

// WithDefaultImage sets the object served for items without an image.
func WithDefaultImage(object string) ImageStoreOption {
	return func(s *ImageStore) {
		if trimmed := strings.TrimSpace(object); trimmed != "" {
			s.defaultImage = trimmed
		}
	}
}

// WithObjectPrefix sets the bucket path prefix for image objects.
func WithObjectPrefix(prefix string) ImageStoreOption {
	return func(s *ImageStore) {
		s.prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	}
}

// WithSigningClock injects a custom clock (tests).
func WithSigningClock(clock func() time.Time) ImageStoreOption {
	return func(s *ImageStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewImageStore constructs an ImageStore bound to the given bucket.
func NewImageStore(signer Signer, bucket string, opts ...ImageStoreOption) (*ImageStore, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	store := &ImageStore{
		signer:       signer,
		bucket:       bucket,
		prefix:       "menu-images",
		defaultImage: "default.png",
		expiry:       defaultDownloadExpiry,
		scheme:       storage.SigningSchemeV4,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// DownloadURL returns a signed GET URL for the image. An empty imageID falls
// back to the default object.
func (s *ImageStore) DownloadURL(ctx context.Context, imageID string) (SignedURLResult, error) {
	if s == nil {
		return SignedURLResult{}, errNoSigner
	}

	object := s.objectName(imageID)
	expiresAt := s.now().Add(s.expiry)

	signedURL, err := storage.SignedURL(s.bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: s.signer.Email(),
		Scheme:         s.scheme,
		Method:         "GET",
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return s.signer.SignBytes(ctx, payload)
		},
	})
	if err != nil {
		return SignedURLResult{}, fmt.Errorf("storage: sign download url: %w", err)
	}

	return SignedURLResult{
		URL:       signedURL,
		Method:    "GET",
		ExpiresAt: expiresAt,
	}, nil
}

// UploadURL returns a signed PUT URL for uploading an image. Only image
// content types are accepted and uploads are size-capped.
func (s *ImageStore) UploadURL(ctx context.Context, imageID, contentType string) (SignedURLResult, error) {
	if s == nil {
		return SignedURLResult{}, errNoSigner
	}
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return SignedURLResult{}, errors.New("storage: image id is required")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !imageTypeAllowed(contentType) {
		return SignedURLResult{}, errContentTypeDenied
	}

	object := s.objectName(imageID)
	expiresAt := s.now().Add(defaultUploadExpiry)
	sizeRange := fmt.Sprintf("0,%d", maxUploadBytes)

	signedURL, err := storage.SignedURL(s.bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: s.signer.Email(),
		Scheme:         s.scheme,
		Method:         "PUT",
		ContentType:    contentType,
		Expires:        expiresAt,
		Headers:        []string{"x-goog-content-length-range:" + sizeRange},
		SignBytes: func(payload []byte) ([]byte, error) {
			return s.signer.SignBytes(ctx, payload)
		},
	})
	if err != nil {
		return SignedURLResult{}, fmt.Errorf("storage: sign upload url: %w", err)
	}

	return SignedURLResult{
		URL:       signedURL,
		Method:    "PUT",
		ExpiresAt: expiresAt,
		Headers: map[string]string{
			"Content-Type":                contentType,
			"x-goog-content-length-range": sizeRange,
		},
	}, nil
}

func (s *ImageStore) objectName(imageID string) string {
	imageID = strings.Trim(strings.TrimSpace(imageID), "/")
	if imageID == "" {
		imageID = s.defaultImage
	}
	if s.prefix == "" {
		return imageID
	}
	return path.Join(s.prefix, imageID)
}

func imageTypeAllowed(contentType string) bool {
	for _, allowed := range allowedImageTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}
