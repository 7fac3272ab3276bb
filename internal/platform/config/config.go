package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultShutdownGrace  = 15 * time.Second
	defaultTokenTTL       = 12 * time.Hour
	defaultLocation       = "College Station"
	defaultCurrency       = "USD"
	defaultOpeningHour    = 9
	defaultClosingHour    = 17
	defaultExtraSurcharge = 50 // cents

	secretPrefix = "secret://"
)

// Config aggregates every runtime setting for the service.
type Config struct {
	Environment string
	Server      ServerConfig
	Firestore   FirestoreConfig
	PubSub      PubSubConfig
	Storage     StorageConfig
	Auth        AuthConfig
	Business    BusinessConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	ShutdownGrace   time.Duration
	RequestTimeout  time.Duration
	TraceProjectID  string
	DisableTracing  bool
	TrustedProxyUse bool
}

// FirestoreConfig selects the backing Firestore project.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig names the event topics. Empty topic names disable publishing.
type PubSubConfig struct {
	ProjectID        string
	OrderTopic       string
	RestockTopic     string
	PublishTimeout   time.Duration
	EmulatorHost     string
	DisablePublisher bool
}

// StorageConfig locates menu item images.
type StorageConfig struct {
	Bucket         string
	ImagePrefix    string
	DefaultImage   string
	SignedURLKey   string
	SignedURLValid time.Duration
}

// AuthConfig backs employee token issuance.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	Issuer      string
}

// BusinessConfig captures store-level facts the domain layer needs: the
// register location stamped onto orders, opening hours used by the demo
// clock, and the customization catalogs supplied to the pricing engine.
type BusinessConfig struct {
	Location        string
	Currency        string
	OpeningHour     int
	ClosingHour     int
	BaseIngredients []string
	Extras          []ExtraConfig
}

// ExtraConfig is one paid add-on in the extras catalog.
type ExtraConfig struct {
	Name      string
	Surcharge int64 // cents
}

// SecretResolver resolves secret:// references to their plaintext values.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a plain function to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret implements SecretResolver.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	if f == nil {
		return "", errors.New("config: secret resolver not configured")
	}
	return f(ctx, ref)
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.FieldErrors[field]))
	}
	return "config validation failed: " + strings.Join(parts, "; ")
}

// SecretError wraps failures resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("config: resolve secret %s: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

// Option customises loading behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile    string
	extraEnv   map[string]string
	skipSystem bool
	resolver   SecretResolver
}

// WithEnvFile loads KEY=VALUE pairs from the given dotenv-style file. Missing
// files are ignored.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = strings.TrimSpace(path) }
}

// WithEnvMap overlays explicit values on top of the environment (tests).
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		if o.extraEnv == nil {
			o.extraEnv = map[string]string{}
		}
		for k, v := range values {
			o.extraEnv[k] = v
		}
	}
}

// WithoutSystemEnv ignores the process environment entirely (tests).
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.skipSystem = true }
}

// WithSecretResolver installs the resolver for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.resolver = resolver }
}

// Load reads, resolves, and validates the configuration.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	var lo loaderOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&lo)
		}
	}

	values := map[string]string{}
	if lo.envFile != "" {
		fileVals, err := loadDotEnv(lo.envFile)
		if err != nil {
			return Config{}, err
		}
		for k, v := range fileVals {
			values[k] = v
		}
	}
	if !lo.skipSystem {
		for _, pair := range os.Environ() {
			if k, v, ok := strings.Cut(pair, "="); ok {
				if _, exists := values[k]; !exists {
					values[k] = v
				}
			}
		}
	}
	for k, v := range lo.extraEnv {
		values[k] = v
	}

	lookup := func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}

	cfg := Config{
		Environment: stringWithDefault(lookup, "APP_ENV", "local"),
		Server: ServerConfig{
			Addr:           stringWithDefault(lookup, "HTTP_ADDR", defaultHTTPAddr),
			ShutdownGrace:  durationWithDefault(lookup, "HTTP_SHUTDOWN_GRACE", defaultShutdownGrace),
			RequestTimeout: durationWithDefault(lookup, "HTTP_REQUEST_TIMEOUT", 60*time.Second),
			TraceProjectID: stringWithDefault(lookup, "TRACE_PROJECT_ID", ""),
			DisableTracing: boolWithDefault(lookup, "TRACE_DISABLED", false),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:        stringWithDefault(lookup, "PUBSUB_PROJECT_ID", ""),
			OrderTopic:       stringWithDefault(lookup, "PUBSUB_ORDER_TOPIC", ""),
			RestockTopic:     stringWithDefault(lookup, "PUBSUB_RESTOCK_TOPIC", ""),
			PublishTimeout:   durationWithDefault(lookup, "PUBSUB_PUBLISH_TIMEOUT", 10*time.Second),
			EmulatorHost:     stringWithDefault(lookup, "PUBSUB_EMULATOR_HOST", ""),
			DisablePublisher: boolWithDefault(lookup, "PUBSUB_DISABLED", false),
		},
		Storage: StorageConfig{
			Bucket:         stringWithDefault(lookup, "STORAGE_BUCKET", ""),
			ImagePrefix:    stringWithDefault(lookup, "STORAGE_IMAGE_PREFIX", "menu-images"),
			DefaultImage:   stringWithDefault(lookup, "STORAGE_DEFAULT_IMAGE", "default.png"),
			SignedURLKey:   stringWithDefault(lookup, "STORAGE_SIGNER_KEY", ""),
			SignedURLValid: durationWithDefault(lookup, "STORAGE_URL_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			TokenSecret: stringWithDefault(lookup, "AUTH_TOKEN_SECRET", ""),
			TokenTTL:    durationWithDefault(lookup, "AUTH_TOKEN_TTL", defaultTokenTTL),
			Issuer:      stringWithDefault(lookup, "AUTH_TOKEN_ISSUER", "pearlpos"),
		},
		Business: BusinessConfig{
			Location:        stringWithDefault(lookup, "STORE_LOCATION", defaultLocation),
			Currency:        stringWithDefault(lookup, "STORE_CURRENCY", defaultCurrency),
			OpeningHour:     intWithDefault(lookup, "STORE_OPENING_HOUR", defaultOpeningHour),
			ClosingHour:     intWithDefault(lookup, "STORE_CLOSING_HOUR", defaultClosingHour),
			BaseIngredients: csvWithDefault(lookup, "MENU_BASE_INGREDIENTS", "Milk,Sugar,Boba,Ice"),
			Extras:          extrasWithDefault(lookup, "MENU_EXTRAS", "Aloe,Pudding,Jelly,Extra Boba"),
		},
	}

	if err := resolveSecrets(ctx, &cfg, lo.resolver); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolveSecrets(ctx context.Context, cfg *Config, resolver SecretResolver) error {
	targets := []*string{
		&cfg.Auth.TokenSecret,
		&cfg.Storage.SignedURLKey,
	}
	for _, target := range targets {
		value := strings.TrimSpace(*target)
		if !strings.HasPrefix(value, secretPrefix) {
			continue
		}
		if resolver == nil {
			return &SecretError{Ref: value, Err: errors.New("no resolver configured")}
		}
		resolved, err := resolver.ResolveSecret(ctx, strings.TrimPrefix(value, secretPrefix))
		if err != nil {
			return &SecretError{Ref: value, Err: err}
		}
		*target = resolved
	}
	return nil
}

func validate(cfg Config) error {
	fields := map[string]string{}

	if strings.TrimSpace(cfg.Firestore.ProjectID) == "" && strings.TrimSpace(cfg.Firestore.EmulatorHost) == "" {
		fields["FIRESTORE_PROJECT_ID"] = "project id or emulator host is required"
	}
	if strings.TrimSpace(cfg.Auth.TokenSecret) == "" {
		fields["AUTH_TOKEN_SECRET"] = "token secret is required"
	}
	if cfg.Business.OpeningHour < 0 || cfg.Business.OpeningHour > 23 {
		fields["STORE_OPENING_HOUR"] = "must be within 0-23"
	}
	if cfg.Business.ClosingHour < 1 || cfg.Business.ClosingHour > 24 {
		fields["STORE_CLOSING_HOUR"] = "must be within 1-24"
	}
	if cfg.Business.ClosingHour <= cfg.Business.OpeningHour {
		fields["STORE_CLOSING_HOUR"] = "must be after STORE_OPENING_HOUR"
	}
	for _, extra := range cfg.Business.Extras {
		if extra.Surcharge < 0 {
			fields["MENU_EXTRAS"] = "surcharges must be non-negative"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{FieldErrors: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if v, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if v, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if v, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key, fallback string) []string {
	raw := fallback
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		raw = v
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// extrasWithDefault parses the extras catalog. Entries are either "Name"
// (default surcharge) or "Name=cents".
func extrasWithDefault(lookup func(string) (string, bool), key, fallback string) []ExtraConfig {
	entries := csvWithDefault(lookup, key, fallback)
	extras := make([]ExtraConfig, 0, len(entries))
	for _, entry := range entries {
		name, amount, ok := strings.Cut(entry, "=")
		surcharge := int64(defaultExtraSurcharge)
		if ok {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64); err == nil {
				surcharge = parsed
			}
		}
		extras = append(extras, ExtraConfig{Name: strings.TrimSpace(name), Surcharge: surcharge})
	}
	return extras
}
