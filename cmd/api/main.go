package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/config"
	"alfredoptarigan/hirematch/internal/handlers"
	"alfredoptarigan/hirematch/internal/logger"
	"alfredoptarigan/hirematch/internal/metrics"
	"alfredoptarigan/hirematch/internal/middleware"
	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/repositories"
	"alfredoptarigan/hirematch/internal/services"
	"alfredoptarigan/hirematch/internal/telemetry"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := telemetry.Init(cfg.Telemetry.SentryDSN, cfg.Server.Env, version); err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer telemetry.Flush()

	// Initialize database
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	rdb, err := config.InitRedis(cfg)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	listingRepo := repositories.NewListingRepository(db)
	appRepo := repositories.NewApplicationRepository(db)
	log.Info("repositories initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.TextModel, cfg.Gemini.EmbedModel, log)
	if err != nil {
		log.Fatal("failed to initialize Gemini", zap.Error(err))
	}

	var provider services.EmbeddingProvider = geminiService
	if cfg.Gemini.EmbedTransport == "rest" {
		provider = services.NewRESTEmbedder(cfg.Gemini.RESTBaseURL, cfg.Gemini.APIKey, cfg.Gemini.EmbedModel, log)
	}
	embeddingService := services.NewEmbeddingService(provider, log)
	log.Info("gemini initialized", zap.String("embed_transport", cfg.Gemini.EmbedTransport))

	searcher, err := newVectorSearcher(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize vector search", zap.Error(err))
	}
	log.Info("vector search initialized", zap.String("backend", searcher.Backend()))

	expansionService := services.NewQueryExpansionService(geminiService, log)
	searchService := services.NewSearchService(expansionService, embeddingService, searcher, log)
	aiService := services.NewAIService(geminiService, log)
	pdfParser := services.NewPDFParserService()
	marketService := services.NewMarketService(services.MarketOptions{
		BaseURL:  cfg.Market.BaseURL,
		AppID:    cfg.Market.AppID,
		AppKey:   cfg.Market.AppKey,
		Country:  cfg.Market.Country,
		CacheTTL: cfg.Market.CacheTTL,
	}, rdb, log)
	verifier := services.NewIdentityVerifier(cfg.Auth.IdentityBaseURL, cfg.Auth.APIKey, log)

	mailer := services.NewLogMailer(log)
	if cfg.Email.Enabled {
		mailer, err = services.NewSESMailer(ctx, cfg.Email.Region, cfg.Email.FromEmail, log)
		if err != nil {
			log.Fatal("failed to initialize SES mailer", zap.Error(err))
		}
	}
	log.Info("services initialized")

	// Initialize scheduler
	scheduler := services.NewScheduler(listingRepo, appRepo, mailer, services.SchedulerOptions{
		ReaperInterval: cfg.Scheduler.ReaperInterval,
		WarningWindow:  cfg.Scheduler.WarningWindow,
		StaleInterval:  cfg.Scheduler.StaleInterval,
		StaleAfter:     cfg.Scheduler.StaleAfter,
	}, log)
	if cfg.Scheduler.Enabled {
		scheduler.Start(ctx)
	}

	// Initialize handlers
	reporter := handlers.NewErrorReporter(log, cfg.IsProduction())
	searchHandler := handlers.NewSearchHandler(searchService, cfg.Search.MaxQueryLen, reporter)
	aiHandler := handlers.NewAIHandler(aiService, embeddingService, cfg.Storage.MaxEmbeddingText, reporter)
	uploadHandler := handlers.NewUploadHandler(pdfParser, cfg.Storage.MaxFileSize, reporter)
	referralHandler := handlers.NewReferralHandler(ledgerRepo, reporter)
	marketHandler := handlers.NewMarketHandler(marketService, reporter)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "HireMatch API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: reporter.FiberErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(metrics.Middleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(
		middleware.NewRedisStorage(rdb, "ratelimit:"),
		cfg.RateLimit.Max,
		cfg.RateLimit.Window,
	)
	authenticate := middleware.Authenticate(verifier, userRepo, log)
	employerOnly := middleware.RequireRole(models.RoleEmployer, models.RoleAdmin)

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":         "healthy",
			"search_backend": searcher.Backend(),
			"time":           time.Now(),
		})
	})

	search := api.Group("/search", limiter, authenticate)
	search.Post("/jobs", searchHandler.HandleSearchJobs)
	search.Post("/candidates", searchHandler.HandleSearchCandidates)

	ai := api.Group("/ai", limiter, authenticate)
	ai.Post("/job-description", employerOnly, aiHandler.HandleJobDescription)
	ai.Post("/job-assist", employerOnly, aiHandler.HandleJobAssist)
	ai.Post("/embedding", aiHandler.HandleEmbedding)
	for _, task := range []string{
		"resume-analysis",
		"skill-gap",
		"interview-questions",
		"interview-evaluation",
		"assessment",
		"outreach",
	} {
		ai.Post("/"+task, aiHandler.HandleStructured(task))
	}
	ai.Post("/resume/parse", uploadHandler.HandleResumeParse)

	referrals := api.Group("/referrals", authenticate)
	referrals.Post("/redeem", middleware.RequireRole(models.RoleSeeker, models.RoleEmployer), referralHandler.HandleRedeem)
	referrals.Get("/ledger", referralHandler.HandleLedger)

	admin := api.Group("/admin", authenticate, middleware.RequireRole(models.RoleAdmin))
	admin.Post("/referrals/adjust", referralHandler.HandleAdjust)

	api.Get("/market/salary", authenticate, marketHandler.HandleSalary)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "HireMatch API",
			"version": version,
			"endpoints": []string{
				"POST /api/v1/search/jobs",
				"POST /api/v1/search/candidates",
				"POST /api/v1/ai/job-description",
				"POST /api/v1/ai/job-assist",
				"POST /api/v1/ai/embedding",
				"POST /api/v1/ai/resume/parse",
				"POST /api/v1/referrals/redeem",
				"GET /api/v1/referrals/ledger",
				"POST /api/v1/admin/referrals/adjust",
				"GET /api/v1/market/salary",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		scheduler.Stop()
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// newVectorSearcher builds the configured vector backend.
func newVectorSearcher(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.VectorSearcher, error) {
	switch cfg.Search.Backend {
	case "qdrant":
		qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.CollectionPrefix, log)
		if err != nil {
			return nil, err
		}
		if err := qdrantService.InitCollections(ctx, services.JobsCollection, services.CandidatesCollection); err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant collections: %w", err)
		}
		return qdrantService, nil
	case "firestore", "":
		tokens, err := services.NewServiceTokenSource(ctx, cfg.Firestore.CredentialsFile)
		if err != nil {
			if cfg.Firestore.APIKey == "" {
				return nil, err
			}
			log.Warn("no service credentials, using API key only", zap.Error(err))
			tokens = nil
		}
		return services.NewFirestoreClient(services.FirestoreOptions{
			BaseURL:    cfg.Firestore.BaseURL,
			ProjectID:  cfg.Firestore.ProjectID,
			DatabaseID: cfg.Firestore.DatabaseID,
			APIKey:     cfg.Firestore.APIKey,
			Timeout:    30 * time.Second,
		}, tokens, log), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}
