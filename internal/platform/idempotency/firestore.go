package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection = "idempotency"
	defaultTxAttempts = 5
	defaultPurgeLimit = 100
)

// FirestoreOption customises the FirestoreStore.
type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the backing collection name.
func WithCollection(name string) FirestoreOption {
	return func(s *FirestoreStore) {
		if name != "" {
			s.collection = name
		}
	}
}

// FirestoreStore persists idempotency records in Firestore so replays work
// across API instances.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore constructs a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	s := &FirestoreStore{client: client, collection: defaultCollection}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *FirestoreStore) Claim(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Claim, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.client.Collection(s.collection).Doc(recordID(key))

	var claim Claim
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		fresh := func() error {
			doc := idempotencyDoc{
				Key:         key,
				Fingerprint: fingerprint,
				CreatedAt:   now,
				ExpiresAt:   now.Add(ttl),
			}
			if err := tx.Set(ref, doc); err != nil {
				return err
			}
			claim = Claim{State: ClaimAccepted, Record: doc.toRecord()}
			return nil
		}

		if err != nil {
			return fresh()
		}

		var doc idempotencyDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if expired(doc.toRecord(), now) {
			return fresh()
		}
		if doc.Fingerprint != fingerprint {
			return ErrKeyConflict
		}
		if doc.Completed {
			claim = Claim{State: ClaimReplay, Record: doc.toRecord()}
			return nil
		}
		claim = Claim{State: ClaimInFlight, Record: doc.toRecord()}
		return nil
	}, firestore.MaxAttempts(defaultTxAttempts))

	return claim, err
}

func (s *FirestoreStore) Complete(ctx context.Context, key, fingerprint string, resp StoredResponse, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ref := s.client.Collection(s.collection).Doc(recordID(key))

	headers := storableHeaders(resp.Headers)
	var body []byte
	if len(resp.Body) > 0 {
		body = append([]byte(nil), resp.Body...)
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		var doc idempotencyDoc
		switch {
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		case err != nil:
			doc = idempotencyDoc{Key: key, Fingerprint: fingerprint, CreatedAt: now}
		default:
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			if doc.Fingerprint != fingerprint {
				return ErrKeyConflict
			}
		}

		doc.Completed = true
		doc.StatusCode = resp.StatusCode
		doc.Headers = headers
		doc.Body = body
		doc.ExpiresAt = now.Add(ttl)
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		return tx.Set(ref, doc)
	}, firestore.MaxAttempts(defaultTxAttempts))
}

func (s *FirestoreStore) Abandon(ctx context.Context, key string) error {
	_, err := s.client.Collection(s.collection).Doc(recordID(key)).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// Purge deletes expired records up to limit. Meant for a periodic sweep.
func (s *FirestoreStore) Purge(ctx context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	if limit <= 0 {
		limit = defaultPurgeLimit
	}

	docs, err := s.client.Collection(s.collection).
		Where("expiresAt", "<=", now).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := s.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(docs), nil
}

type idempotencyDoc struct {
	Key         string              `firestore:"key"`
	Fingerprint string              `firestore:"fingerprint"`
	Completed   bool                `firestore:"completed"`
	StatusCode  int                 `firestore:"statusCode"`
	Headers     map[string][]string `firestore:"headers"`
	Body        []byte              `firestore:"body"`
	CreatedAt   time.Time           `firestore:"createdAt"`
	ExpiresAt   time.Time           `firestore:"expiresAt"`
}

func (d idempotencyDoc) toRecord() Record {
	return Record{
		Key:         d.Key,
		Fingerprint: d.Fingerprint,
		Completed:   d.Completed,
		StatusCode:  d.StatusCode,
		Headers:     d.Headers,
		Body:        d.Body,
		CreatedAt:   d.CreatedAt,
		ExpiresAt:   d.ExpiresAt,
	}
}
