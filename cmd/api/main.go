package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Teletobimy/landingpage-irunica/internal/handlers"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/auth"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/config"
	pfirestore "github.com/Teletobimy/landingpage-irunica/internal/platform/firestore"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/gemini"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/idempotency"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/jobs"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/leads"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/mail"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/observability"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/pipeline"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/requestctx"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/secrets"
	platformstorage "github.com/Teletobimy/landingpage-irunica/internal/platform/storage"
	"github.com/Teletobimy/landingpage-irunica/internal/repositories"
	firestoreRepo "github.com/Teletobimy/landingpage-irunica/internal/repositories/firestore"
	redisRepo "github.com/Teletobimy/landingpage-irunica/internal/repositories/redis"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = requestctx.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets("Gemini.APIKey"),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)
	metrics := observability.NewMetrics()

	providerOpts := []pfirestore.ProviderOption{pfirestore.WithDialTimeout(cfg.Firestore.DialTimeout)}
	if cfg.Firebase.CredentialsFile != "" {
		providerOpts = append(providerOpts, pfirestore.WithClientOptions(option.WithCredentialsFile(cfg.Firebase.CredentialsFile)))
	}
	firestoreProvider := pfirestore.NewProvider(cfg.Firestore, providerOpts...)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	trendsProvider := pfirestore.NewProvider(config.FirestoreConfig{ProjectID: cfg.Trends.ProjectID, EmulatorHost: cfg.Firestore.EmulatorHost}, providerOpts...)
	brandsProvider := pfirestore.NewProvider(config.FirestoreConfig{ProjectID: cfg.Brands.ProjectID, EmulatorHost: cfg.Firestore.EmulatorHost}, providerOpts...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, provider := range []*pfirestore.Provider{firestoreProvider, trendsProvider, brandsProvider} {
			if err := provider.Close(closeCtx); err != nil {
				logger.Warn("firestore close error", zap.String("project", provider.ProjectID()), zap.Error(err))
			}
		}
	}()

	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()
	sink, err := platformstorage.NewGCSSink(storageClient)
	if err != nil {
		logger.Fatal("failed to initialise storage sink", zap.Error(err))
	}
	uploader, err := platformstorage.NewUploader(sink, cfg.Storage.AssetsBucket, cfg.Storage.PublicBaseURL)
	if err != nil {
		logger.Fatal("failed to initialise image uploader", zap.Error(err))
	}

	geminiClient, err := gemini.New(ctx, cfg.Gemini)
	if err != nil {
		logger.Fatal("failed to initialise gemini client", zap.Error(err))
	}

	leadsClient, err := leads.NewClient(cfg.Leads.BaseURL, cfg.Leads.Timeout, httpkit.New(cfg.Leads.Timeout))
	if err != nil {
		logger.Fatal("failed to initialise leads client", zap.Error(err))
	}
	pipelineClient := pipeline.NewClient(cfg.Pipeline.BaseURL, cfg.Pipeline.Timeout, httpkit.New(cfg.Pipeline.Timeout))

	leadAssetRepo, err := firestoreRepo.NewLeadAssetRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise lead asset repository", zap.Error(err))
	}
	visitorRepo, err := firestoreRepo.NewVisitorLogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise visitor log repository", zap.Error(err))
	}
	trendRepo, err := firestoreRepo.NewTrendRepository(trendsProvider)
	if err != nil {
		logger.Fatal("failed to initialise trend repository", zap.Error(err))
	}
	brandRepo, err := firestoreRepo.NewBrandRepository(brandsProvider)
	if err != nil {
		logger.Fatal("failed to initialise brand repository", zap.Error(err))
	}

	var redisClient *goredis.Client
	var rateLimitRepo repositories.RateLimitRepository
	switch cfg.RateLimits.Backend {
	case "redis":
		goredis.SetLogger(observability.NewPrintfAdapter(logger.Named("redis")))
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RateLimits.RedisAddr,
			Password: cfg.RateLimits.RedisPassword,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
		repo, err := redisRepo.NewRateLimitRepository(redisClient, "irunica")
		if err != nil {
			logger.Fatal("failed to initialise redis rate limit repository", zap.Error(err))
		}
		rateLimitRepo = repo
	default:
		repo, err := firestoreRepo.NewRateLimitRepository(firestoreProvider,
			pfirestore.WithTxAttempts(cfg.RateLimits.TxAttempts),
			pfirestore.WithTxTimeout(cfg.RateLimits.TxTimeout),
		)
		if err != nil {
			logger.Fatal("failed to initialise rate limit repository", zap.Error(err))
		}
		rateLimitRepo = repo
	}

	runner := jobs.NewRunner(jobs.RunnerOptions{
		Timeout: cfg.Generation.TaskTimeout,
		Logger:  observability.EventLogger(logger, "jobs"),
		OnFinish: func(name string, outcome jobs.Outcome, elapsed time.Duration) {
			metrics.ObserveTask(name, string(outcome), elapsed)
		},
	})

	var publisher services.AssetEventPublisher
	if topicName := strings.TrimSpace(cfg.Events.Topic); topicName != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		topic := pubsubClient.Topic(topicName)
		defer topic.Stop()
		eventPublisher, err := jobs.NewPubSubAssetEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise asset event publisher", zap.Error(err))
		}
		publisher = eventPublisher
	}

	leadAssetService := mustLeadAssetService(logger, cfg, leadAssetServiceParts{
		cache:     leadAssetRepo,
		rateLimit: rateLimitRepo,
		model:     geminiClient,
		uploader:  uploader,
		runner:    runner,
		publisher: publisher,
		metrics:   metrics,
	})

	landingService, err := services.NewLandingPageService(services.LandingPageServiceDeps{
		Leads:         leadsClient,
		Assets:        leadAssetService,
		Visitors:      visitorRepo,
		Runner:        runner,
		FallbackImage: cfg.Generation.FallbackImage,
		Logger:        observability.EventLogger(logger, "landing"),
	})
	if err != nil {
		logger.Fatal("failed to initialise landing page service", zap.Error(err))
	}

	var notificationService services.NotificationService
	mailer, err := mail.NewSESMailer(ctx, cfg.Mail)
	if err != nil {
		logger.Warn("mail: SES mailer unavailable; notifications disabled", zap.Error(err))
	} else {
		notificationService, err = services.NewNotificationService(services.NotificationServiceDeps{
			Mailer:       mailer,
			SalesAddress: cfg.Mail.SalesAddress,
			AdminAddress: cfg.Mail.AdminAddress,
			Logger:       observability.EventLogger(logger, "notifications"),
		})
		if err != nil {
			logger.Warn("mail: notification service disabled", zap.Error(err))
		}
	}

	translationService, err := services.NewTranslationService(services.TranslationServiceDeps{
		Model:  geminiClient,
		Logger: observability.EventLogger(logger, "translation"),
	})
	if err != nil {
		logger.Fatal("failed to initialise translation service", zap.Error(err))
	}
	trendService, err := services.NewTrendService(services.TrendServiceDeps{
		Repository: trendRepo,
		CacheTTL:   cfg.Trends.CacheTTL,
		Logger:     observability.EventLogger(logger, "trends"),
	})
	if err != nil {
		logger.Fatal("failed to initialise trend service", zap.Error(err))
	}
	brandService, err := services.NewBrandService(services.BrandServiceDeps{
		Repository: brandRepo,
		CacheTTL:   cfg.Brands.CacheTTL,
		Logger:     observability.EventLogger(logger, "brands"),
	})
	if err != nil {
		logger.Fatal("failed to initialise brand service", zap.Error(err))
	}
	retentionService, err := services.NewRetentionService(services.RetentionServiceDeps{
		LeadAssets: leadAssetRepo,
		RateLimits: rateLimitRepo,
		Window:     cfg.Retention.Window,
		Logger:     observability.EventLogger(logger, "retention"),
	})
	if err != nil {
		logger.Fatal("failed to initialise retention service", zap.Error(err))
	}

	systemService, err := newSystemService(firestoreClient, fetcher, leadsClient, redisClient, cfg.Server.HealthCheckTimeout, buildInfo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	var idempotencyStore idempotency.Store = idempotency.NewFirestoreStore(firestoreProvider)
	if cfg.Security.Environment == "local" && strings.TrimSpace(cfg.Firestore.EmulatorHost) == "" {
		idempotencyStore = idempotency.NewMemoryStore()
	}
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.EventLogger(logger, "idempotency")),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier,
		auth.WithMetrics(metrics),
		auth.WithRoleClaim(cfg.Security.RoleClaim),
		auth.WithVerificationTimeout(cfg.Security.VerificationTimeout),
	)
	oidcMiddleware := buildOIDCMiddleware(logger.Named("auth"), cfg, metrics)

	throttle := handlers.Throttle(cfg.RateLimits.PublicPerMinute)
	landingHandlers := handlers.NewLandingHandlers(landingService)
	notificationHandlers := handlers.NewNotificationHandlers(notificationService,
		handlers.WithProposalMiddlewares(idempotencyMiddleware),
		handlers.WithNotificationThrottle(throttle),
	)
	insightHandlers := handlers.NewInsightHandlers(
		handlers.WithTranslationService(translationService),
		handlers.WithTrendService(trendService),
		handlers.WithBrandService(brandService),
		handlers.WithTranslateThrottle(throttle),
	)
	dashboardHandlers := handlers.NewDashboardHandlers(pipelineClient)
	maintenanceHandlers := handlers.NewMaintenanceHandlers(retentionService)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.ClientIPMiddleware,
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(metrics),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithMetricsHandler(metrics.Handler()),
		handlers.WithPublicRoutes(func(r chi.Router) {
			landingHandlers.Routes(r)
			notificationHandlers.Routes(r)
			insightHandlers.Routes(r)
		}),
		handlers.WithDashboardRoutes(dashboardHandlers.Routes),
		handlers.WithDashboardMiddlewares(authenticator.RequireRoles(cfg.Security.DashboardRoles...)),
		handlers.WithInternalRoutes(maintenanceHandlers.Routes),
	}
	if oidcMiddleware != nil {
		opts = append(opts, handlers.WithInternalMiddlewares(oidcMiddleware))
	} else {
		opts = append(opts, handlers.WithInternalMiddlewares(denyAll))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("irunica landing api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	// Background generations still persisting get the rest of the budget.
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("background tasks did not drain", zap.Error(err))
	}
}

type leadAssetServiceParts struct {
	cache     repositories.LeadAssetRepository
	rateLimit repositories.RateLimitRepository
	model     *gemini.Client
	uploader  *platformstorage.Uploader
	runner    *jobs.Runner
	publisher services.AssetEventPublisher
	metrics   *observability.Metrics
}

func mustLeadAssetService(logger *zap.Logger, cfg config.Config, parts leadAssetServiceParts) services.LeadAssetService {
	eventLogger := observability.EventLogger(logger, "lead_assets")

	limiter, err := services.NewDailyRateLimiter(services.DailyRateLimiterDeps{
		Repository: parts.rateLimit,
		Limit:      cfg.RateLimits.DailyLimit,
		Metrics:    parts.metrics,
		Logger:     eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise daily rate limiter", zap.Error(err))
	}
	classifier, err := services.NewCompanyClassifier(services.CompanyClassifierDeps{
		Model:  parts.model,
		Logger: eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise classifier", zap.Error(err))
	}
	copywriter, err := services.NewSynergyCopywriter(services.SynergyCopywriterDeps{
		Model:  parts.model,
		Logger: eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise copywriter", zap.Error(err))
	}
	generator, err := services.NewProductImageGenerator(services.ProductImageGeneratorDeps{
		Model:         parts.model,
		Stagger:       cfg.Generation.ImageStagger,
		FallbackImage: cfg.Generation.FallbackImage,
		Logger:        eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise image generator", zap.Error(err))
	}
	persister, err := services.NewImagePersister(parts.uploader, eventLogger)
	if err != nil {
		logger.Fatal("failed to initialise image persister", zap.Error(err))
	}

	var runner services.TaskRunner = parts.runner
	svc, err := services.NewLeadAssetService(services.LeadAssetServiceDeps{
		Cache:      parts.cache,
		Quota:      limiter,
		Classifier: classifier,
		Copywriter: copywriter,
		Images:     generator,
		Persister:  persister,
		Runner:     runner,
		Publisher:  parts.publisher,
		Metrics:    parts.metrics,
		Logger:     eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise lead asset service", zap.Error(err))
	}
	return svc
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSystemService(client *firestore.Client, fetcher *secrets.Fetcher, leadsClient *leads.Client, redisClient *goredis.Client, checkTimeout time.Duration, build services.BuildInfo) (services.SystemService, error) {
	checks := make([]repositories.DependencyCheck, 0, 4)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:     "firestore",
			Timeout:  1500 * time.Millisecond,
			Critical: true,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if leadsClient != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name: "leads_api",
			Check: func(ctx context.Context) error {
				// An unknown page answers nil, nil; only transport and 5xx failures surface.
				_, err := leadsClient.GetLead(ctx, "healthcheck")
				return err
			},
		})
	}
	if redisClient != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name: "secretManager",
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	repo, err := repositories.NewDependencyHealthRepository(checks, repositories.WithDependencyTimeout(checkTimeout))
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: repo,
		Clock:            time.Now,
		Build:            build,
	})
}

func buildOIDCMiddleware(logger *zap.Logger, cfg config.Config, metrics auth.MetricsRecorder) func(http.Handler) http.Handler {
	if strings.TrimSpace(cfg.Security.OIDC.JWKSURL) == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := auth.NewJWKSCache(cfg.Security.OIDC.JWKSURL, auth.WithJWKSHTTPClient(httpkit.New(cfg.Security.OIDC.JWKSTimeout)))
	validator := auth.NewOIDCValidator(cache, metrics)

	audience := strings.TrimSpace(cfg.Security.OIDC.Audience)
	if audience == "" {
		logger.Warn("auth: OIDC audience not configured; internal routes will reject requests")
	}
	issuers := cfg.Security.OIDC.Issuers
	if len(issuers) == 0 {
		logger.Warn("auth: OIDC issuers not configured; internal routes will reject requests")
	}

	return validator.RequireOIDC(audience, issuers)
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal routes disabled", http.StatusForbidden)
	})
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}

	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE"); credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}
	if raw := lookup("API_SECRET_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid API_SECRET_CACHE_TTL %q: %w", raw, err)
		}
		opts = append(opts, secrets.WithCacheTTL(ttl))
	}

	return secrets.NewFetcher(ctx, opts...)
}
