package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pearlpos/api/internal/di"
	"github.com/pearlpos/api/internal/handlers"
	"github.com/pearlpos/api/internal/platform/auth"
	"github.com/pearlpos/api/internal/platform/config"
	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
	"github.com/pearlpos/api/internal/platform/idempotency"
	"github.com/pearlpos/api/internal/platform/jobs"
	"github.com/pearlpos/api/internal/platform/observability"
	"github.com/pearlpos/api/internal/platform/secrets"
	platformstorage "github.com/pearlpos/api/internal/platform/storage"
	firestoreRepo "github.com/pearlpos/api/internal/repositories/firestore"
	"github.com/pearlpos/api/internal/services"
)

const defaultSessionTTL = 12 * time.Hour

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(os.Getenv("GOOGLE_CLOUD_PROJECT")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.ResolveSecret)),
	)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	replayStore := idempotency.NewFirestoreStore(firestoreClient)

	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	var purgeWG sync.WaitGroup
	purgeTicker := time.NewTicker(time.Hour)
	purgeWG.Add(1)
	go func() {
		defer purgeWG.Done()
		purgeLogger := logger.Named("idempotency")
		for {
			select {
			case <-purgeTicker.C:
				runCtx, cancel := context.WithTimeout(purgeCtx, time.Minute)
				removed, err := replayStore.Purge(runCtx, time.Now().UTC(), 500)
				cancel()
				if err != nil {
					purgeLogger.Error("idempotency purge error", zap.Error(err))
					continue
				}
				if removed > 0 {
					purgeLogger.Info("idempotency purge removed records", zap.Int("count", removed))
				}
			case <-purgeCtx.Done():
				return
			}
		}
	}()

	tokenOpts := []auth.TokenOption{auth.WithTokenTTL(cfg.Auth.TokenTTL)}
	if strings.TrimSpace(cfg.Auth.Issuer) != "" {
		tokenOpts = append(tokenOpts, auth.WithIssuer(cfg.Auth.Issuer))
	}
	tokenIssuer, err := auth.NewTokenIssuer(cfg.Auth.TokenSecret, tokenOpts...)
	if err != nil {
		logger.Fatal("failed to initialise token issuer", zap.Error(err))
	}
	sessionTTL := cfg.Auth.TokenTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	sessionIssuer := &tokenSessionIssuer{issuer: tokenIssuer, ttl: sessionTTL, now: time.Now}

	var menuImages services.MenuImageStore
	if strings.TrimSpace(cfg.Storage.SignedURLKey) != "" && strings.TrimSpace(cfg.Storage.Bucket) != "" {
		signer, err := platformstorage.NewServiceAccountSignerFromJSON([]byte(cfg.Storage.SignedURLKey))
		if err != nil {
			logger.Fatal("failed to parse storage signer key", zap.Error(err))
		}
		imageStore, err := platformstorage.NewImageStore(signer, cfg.Storage.Bucket,
			platformstorage.WithURLExpiry(cfg.Storage.SignedURLValid),
			platformstorage.WithDefaultImage(cfg.Storage.DefaultImage),
			platformstorage.WithObjectPrefix(cfg.Storage.ImagePrefix),
		)
		if err != nil {
			logger.Fatal("failed to initialise image store", zap.Error(err))
		}
		menuImages = &menuImageStore{store: imageStore}
	} else {
		logger.Warn("menu image signing disabled; bucket or signer key not configured")
	}

	var (
		orderPublisher services.OrderEventPublisher
		restockAlerts  services.RestockAlertPublisher
		pubsubClient   *pubsub.Client
	)
	if !cfg.PubSub.DisablePublisher && strings.TrimSpace(cfg.PubSub.ProjectID) != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		if topic := strings.TrimSpace(cfg.PubSub.OrderTopic); topic != "" {
			orderPublisher, err = jobs.NewPubSubOrderPublisher(pubsubClient.Topic(topic))
			if err != nil {
				logger.Fatal("failed to initialise order publisher", zap.Error(err))
			}
		}
		if topic := strings.TrimSpace(cfg.PubSub.RestockTopic); topic != "" {
			restockAlerts, err = jobs.NewPubSubRestockPublisher(pubsubClient.Topic(topic))
			if err != nil {
				logger.Fatal("failed to initialise restock publisher", zap.Error(err))
			}
		}
	}

	container, err := di.NewContainer(cfg, registry, di.External{
		Images:        menuImages,
		OrderEvents:   orderPublisher,
		RestockAlerts: restockAlerts,
		Sessions:      sessionIssuer,
		Clock:         time.Now,
		Logger:        zapEventLogger(logger.Named("services")),
	})
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	svc := container.Services

	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Timeout(requestTimeout),
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		idempotency.Middleware(replayStore,
			idempotency.WithLogger(zap.NewStdLog(logger.Named("idempotency"))),
		),
	}
	if !cfg.Server.DisableTracing {
		projectID := strings.TrimSpace(cfg.Server.TraceProjectID)
		if projectID == "" {
			projectID = strings.TrimSpace(cfg.Firestore.ProjectID)
		}
		middlewares = append(middlewares, observability.TraceMiddleware(projectID))
	}

	menuHandlers := handlers.NewMenuHandlers(svc.Catalog)
	orderHandlers := handlers.NewOrderHandlers(svc.Orders)
	inventoryHandlers := handlers.NewInventoryHandlers(svc.Inventory, tokenIssuer)
	reportHandlers := handlers.NewReportHandlers(svc.Reports, time.Now)
	employeeHandlers := handlers.NewEmployeeHandlers(svc.Employees)
	sessionHandlers := handlers.NewSessionHandlers(svc.Employees)
	healthHandlers := handlers.NewHealthHandlers(svc.System)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithSessionVerifier(tokenIssuer),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithMenuRoutes(menuHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithInventoryRoutes(inventoryHandlers.Routes),
		handlers.WithReportRoutes(reportHandlers.Routes),
		handlers.WithEmployeeRoutes(employeeHandlers.Routes),
		handlers.WithSessionRoutes(sessionHandlers.Routes),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("pearlpos api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	purgeTicker.Stop()
	purgeCancel()
	purgeWG.Wait()

	grace := cfg.Server.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// tokenSessionIssuer signs employee session tokens and reports their expiry.
type tokenSessionIssuer struct {
	issuer *auth.TokenIssuer
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokenSessionIssuer) IssueSession(employeeID int, name, role string) (string, time.Time, error) {
	token, err := t.issuer.Issue(auth.Identity{
		EmployeeID: strconv.Itoa(employeeID),
		Name:       name,
		Role:       role,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, t.now().UTC().Add(t.ttl), nil
}

// menuImageStore adapts the GCS-backed image store to the catalog service.
type menuImageStore struct {
	store *platformstorage.ImageStore
}

func (m *menuImageStore) DownloadURL(ctx context.Context, imageID string) (services.SignedImageURL, error) {
	res, err := m.store.DownloadURL(ctx, imageID)
	return services.SignedImageURL(res), err
}

func (m *menuImageStore) UploadURL(ctx context.Context, imageID, contentType string) (services.SignedImageURL, error) {
	res, err := m.store.UploadURL(ctx, imageID, contentType)
	return services.SignedImageURL(res), err
}

func zapEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug(event, zFields...)
	}
}
