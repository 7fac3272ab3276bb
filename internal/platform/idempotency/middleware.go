package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pearlpos/api/internal/platform/auth"
	"github.com/pearlpos/api/internal/platform/httpx"
)

const (
	defaultHeaderName = "Idempotency-Key"
	replayHeaderName  = "X-Idempotent-Replay"
)

// Logger receives background persistence failures.
type Logger interface {
	Printf(format string, args ...any)
}

type middlewareConfig struct {
	header  string
	ttl     time.Duration
	methods map[string]struct{}
	clock   func() time.Time
	logger  Logger
}

// MiddlewareOption customises middleware behaviour.
type MiddlewareOption func(*middlewareConfig)

// WithHeader overrides the idempotency key header name.
func WithHeader(name string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.header = trimmed
		}
	}
}

// WithTTL sets how long completed records are kept for replay.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithMethods restricts which HTTP methods are guarded.
func WithMethods(methods ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if len(methods) == 0 {
			return
		}
		cfg.methods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m != "" {
				cfg.methods[m] = struct{}{}
			}
		}
	}
}

// WithLogger injects a logger for store failures.
func WithLogger(logger Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.logger = logger
	}
}

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// Middleware replays stored responses for repeated requests carrying the
// same Idempotency-Key. Requests without the header pass straight through;
// registers opt in per request when they retry a submit. A store failure
// after the handler ran never fails the request, the response the handler
// produced is still delivered.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	cfg := middlewareConfig{
		header:  defaultHeaderName,
		ttl:     DefaultTTL,
		methods: map[string]struct{}{http.MethodPost: {}},
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, guarded := cfg.methods[r.Method]; !guarded {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(cfg.header))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			body, err := bufferBody(r)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
				return
			}

			scoped := scopeKey(key, requesterID(r))
			fingerprint := fingerprintRequest(r, body)
			now := cfg.clock().UTC()

			claim, err := store.Claim(ctx, scoped, fingerprint, now, cfg.ttl)
			if errors.Is(err, ErrKeyConflict) {
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_conflict", "idempotency key already used for a different request", http.StatusConflict))
				return
			}
			if err != nil {
				if cfg.logger != nil {
					cfg.logger.Printf("idempotency: claim %s: %v", key, err)
				}
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_unavailable", "unable to process idempotency key", http.StatusServiceUnavailable))
				return
			}

			switch claim.State {
			case ClaimReplay:
				replayRecord(w, claim.Record)
				return
			case ClaimInFlight:
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_in_progress", "another request is processing this idempotency key", http.StatusConflict))
				return
			}

			rec := newRecorder()
			next.ServeHTTP(rec, r)

			saveErr := store.Complete(ctx, scoped, fingerprint, StoredResponse{
				StatusCode: rec.statusCode(),
				Headers:    rec.header,
				Body:       rec.body.Bytes(),
			}, cfg.clock().UTC(), cfg.ttl)
			if saveErr != nil {
				if cfg.logger != nil {
					cfg.logger.Printf("idempotency: store response for %s: %v", key, saveErr)
				}
				if err := store.Abandon(ctx, scoped); err != nil && cfg.logger != nil {
					cfg.logger.Printf("idempotency: abandon %s: %v", key, err)
				}
			}
			rec.flush(w)
		})
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := r.Body.Close(); err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// Keys are scoped per employee so two registers cannot collide.
func requesterID(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.EmployeeID != "" {
		return identity.EmployeeID
	}
	return "anonymous"
}

func scopeKey(key, requester string) string {
	return key + "|" + requester
}

func fingerprintRequest(r *http.Request, body []byte) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(r.Method))
	b.WriteString("|")
	b.WriteString(r.URL.Path)
	b.WriteString("|")
	b.WriteString(r.URL.RawQuery)
	b.WriteString("|")
	if len(body) > 0 {
		b.WriteString(hashHex(body))
	}
	return hashHex([]byte(b.String()))
}

func replayRecord(w http.ResponseWriter, rec Record) {
	for name, values := range rec.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set(replayHeaderName, "true")
	status := rec.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(rec.Body) > 0 {
		_, _ = w.Write(rec.Body)
	}
}

// recorder buffers the handler response so it can be persisted before
// reaching the client.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 && status > 0 {
		r.status = status
	}
}

func (r *recorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(data)
}

func (r *recorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *recorder) flush(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range r.header {
		dst[name] = values
	}
	w.WriteHeader(r.statusCode())
	if r.body.Len() > 0 {
		_, _ = w.Write(r.body.Bytes())
	}
}
