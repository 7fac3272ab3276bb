package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Suitable for tests and
// single-instance local runs only.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Claim(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Claim, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(key)
	rec, ok := s.records[id]
	if !ok || expired(rec, now) {
		rec = Record{
			Key:         key,
			Fingerprint: fingerprint,
			CreatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		s.records[id] = rec
		return Claim{State: ClaimAccepted, Record: rec}, nil
	}

	if rec.Fingerprint != fingerprint {
		return Claim{}, ErrKeyConflict
	}
	if rec.Completed {
		return Claim{State: ClaimReplay, Record: rec}, nil
	}
	return Claim{State: ClaimInFlight, Record: rec}, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, fingerprint string, resp StoredResponse, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(key)
	rec, ok := s.records[id]
	if ok && rec.Fingerprint != fingerprint {
		return ErrKeyConflict
	}
	if !ok {
		rec = Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	}

	rec.Completed = true
	rec.StatusCode = resp.StatusCode
	rec.Headers = storableHeaders(resp.Headers)
	if len(resp.Body) > 0 {
		rec.Body = append([]byte(nil), resp.Body...)
	} else {
		rec.Body = nil
	}
	rec.ExpiresAt = now.Add(ttl)
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Abandon(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordID(key))
	return nil
}

func (s *MemoryStore) Purge(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	removed := 0
	for id, rec := range s.records {
		if !expired(rec, now) {
			continue
		}
		delete(s.records, id)
		removed++
		if removed >= limit {
			break
		}
	}
	return removed, nil
}
