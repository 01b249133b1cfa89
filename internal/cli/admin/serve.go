package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curiolabs/curio/internal/api/handlers"
	"github.com/curiolabs/curio/internal/config"
	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/extract"
	"github.com/curiolabs/curio/internal/fetch"
	"github.com/curiolabs/curio/internal/jobs"
	"github.com/curiolabs/curio/internal/messaging"
	"github.com/curiolabs/curio/internal/openai"
	"github.com/curiolabs/curio/internal/render"
	"github.com/curiolabs/curio/internal/repository"
	"github.com/curiolabs/curio/internal/server"
	"github.com/curiolabs/curio/internal/service"
	"github.com/curiolabs/curio/internal/storage"
	"github.com/curiolabs/curio/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the curio API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if a DSN is configured
	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	recordRepo := repository.NewRecordRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	ownerRepo := repository.NewOwnerRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if cfg.InitOwnerName != "" {
		if err := bootstrapInitialOwner(ctx, cfg, ownerRepo, apiKeyRepo); err != nil {
			return fmt.Errorf("failed to bootstrap initial owner: %w", err)
		}
	}

	var s3Client *storage.S3Client
	var storageClient service.StorageClientInterface
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    true,
		}
		s3Client, err = storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		storageClient = &S3StorageAdapter{client: s3Client}
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	logger := log.Default()

	recordSvc := service.NewRecordService(recordRepo)
	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, uuidGen)

	var assetSvc *service.AssetService
	if storageClient != nil {
		assetSvc = service.NewAssetService(assetRepo, recordRepo, storageClient, txRunner)
	}

	var deliverer messaging.Deliverer
	if cfg.HasTeamWebhook() {
		deliverer = messaging.NewWebhookClient(cfg.TeamWebhookURL, 10*time.Second)
	} else {
		deliverer = &noWebhookDeliverer{}
	}

	var assetURLs service.AssetURLProvider
	if s3Client != nil {
		assetURLs = s3Client
	}
	distributionSvc := service.NewDistributionService(recordRepo, deliverer, assetURLs)

	var ingestWorker *jobs.Worker
	ingestHandlerSvc := handlers.IngestService(&NoOpIngestService{})
	searchHandlerSvc := handlers.SearchService(&NoOpSearchService{})
	answerHandlerSvc := handlers.AnswerService(&NoOpAnswerService{})
	var imageSummarySvc handlers.ImageSummaryService

	if cfg.HasOpenAI() {
		aiClient := openai.NewClient(cfg.OpenAIAPIKey)
		embeddingSvc := service.NewEmbeddingService(aiClient)

		var signer fetch.URLSigner
		if s3Client != nil {
			signer = s3Client
		}
		pageStrategy := fetch.NewPageStrategy(cfg.FetchTimeout)
		fetcher := fetch.NewFetcher(fetch.DefaultStrategies(aiClient, signer, pageStrategy), logger)
		extractor := extract.NewExtractor(aiClient, logger)

		ingestSvc := service.NewIngestService(recordRepo, ingestJobRepo, fetcher, extractor, embeddingSvc, logger)
		ingestHandlerSvc = ingestSvc

		retrievalSvc := service.NewRetrievalService(recordRepo, embeddingSvc, service.DefaultRetrievalConfig())
		searchHandlerSvc = retrievalSvc
		answerHandlerSvc = service.NewAnswerService(retrievalSvc, recordRepo, aiClient)

		if s3Client != nil {
			imageSummarySvc = service.NewImageService(assetRepo, s3Client, aiClient, embeddingSvc)
		}

		ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, ingestSvc)
		ingestWorker = jobs.NewWorker(ingestProcessor, cfg.JobPollInterval)
		go ingestWorker.Start(ctx)
		log.Println("ingest worker started")
	}

	recordHandler := handlers.NewRecordHandler(recordSvc)
	ingestHandler := handlers.NewIngestHandler(ingestHandlerSvc)
	searchHandler := handlers.NewSearchHandler(searchHandlerSvc)
	answerHandler := handlers.NewAnswerHandler(answerHandlerSvc)
	distributionHandler := handlers.NewDistributionHandler(distributionSvc)
	authHandler := handlers.NewAuthHandler(authSvc)

	var assetHandler *handlers.AssetHandler
	if assetSvc != nil {
		assetHandler = handlers.NewAssetHandler(assetSvc, imageSummarySvc)
	} else {
		assetHandler = handlers.NewAssetHandler(&NoOpAssetService{}, nil)
	}

	routerCfg := server.RouterConfig{
		AuthValidator:       authSvc,
		RecordHandler:       recordHandler,
		IngestHandler:       ingestHandler,
		SearchHandler:       searchHandler,
		AnswerHandler:       answerHandler,
		DistributionHandler: distributionHandler,
		AssetHandler:        assetHandler,
		AuthHandler:         authHandler,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type S3StorageAdapter struct {
	client *storage.S3Client
}

func (a *S3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *S3StorageAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *S3StorageAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.client.DeleteObject(ctx, key)
}

func (a *S3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

type noWebhookDeliverer struct{}

func (d *noWebhookDeliverer) Deliver(ctx context.Context, msg render.Message) error {
	return fmt.Errorf("team delivery not configured: TEAM_WEBHOOK_URL required")
}

type NoOpAssetService struct{}

func (s *NoOpAssetService) InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error) {
	return nil, fmt.Errorf("asset service not configured: S3_ENDPOINT required")
}

func (s *NoOpAssetService) CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.Asset, error) {
	return nil, fmt.Errorf("asset service not configured: S3_ENDPOINT required")
}

func (s *NoOpAssetService) GetDownloadURL(ctx context.Context, ownerID, assetID string) (string, error) {
	return "", fmt.Errorf("asset service not configured: S3_ENDPOINT required")
}

func (s *NoOpAssetService) GetByID(ctx context.Context, ownerID, assetID string) (*domain.Asset, error) {
	return nil, fmt.Errorf("asset service not configured: S3_ENDPOINT required")
}

func (s *NoOpAssetService) Delete(ctx context.Context, ownerID, assetID string) error {
	return fmt.Errorf("asset service not configured: S3_ENDPOINT required")
}

type NoOpIngestService struct{}

func (s *NoOpIngestService) ProcessBatch(ctx context.Context, ownerID string, limit int) (*service.BatchResult, error) {
	return nil, fmt.Errorf("ingestion not configured: OPENAI_API_KEY required")
}

func (s *NoOpIngestService) StartProcessAll(ctx context.Context, ownerID string) (*domain.IngestJob, error) {
	return nil, fmt.Errorf("ingestion not configured: OPENAI_API_KEY required")
}

func (s *NoOpIngestService) GetJob(ctx context.Context, ownerID, jobID string) (*domain.IngestJob, error) {
	return nil, fmt.Errorf("ingestion not configured: OPENAI_API_KEY required")
}

type NoOpSearchService struct{}

func (s *NoOpSearchService) Search(ctx context.Context, ownerID, query string, mode domain.SearchMode) ([]*domain.RetrievalCandidate, error) {
	return nil, fmt.Errorf("search not configured: OPENAI_API_KEY required")
}

type NoOpAnswerService struct{}

func (s *NoOpAnswerService) Ask(ctx context.Context, ownerID, question string, mode domain.SearchMode) (*domain.AnswerResult, error) {
	return nil, fmt.Errorf("answers not configured: OPENAI_API_KEY required")
}

func bootstrapInitialOwner(ctx context.Context, cfg *config.Config, ownerRepo *repository.OwnerRepository, apiKeyRepo *repository.APIKeyRepository) error {
	owner, err := ownerRepo.GetByName(ctx, cfg.InitOwnerName)
	if err != nil && err != domain.ErrOwnerNotFound {
		return fmt.Errorf("failed to check existing owner: %w", err)
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, uuidGen)

	if owner == nil {
		owner, err = authSvc.CreateOwner(ctx, cfg.InitOwnerName, "")
		if err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}
		log.Printf("bootstrap: created owner '%s' (id: %s)", owner.Name, owner.ID)
	} else {
		log.Printf("bootstrap: owner '%s' already exists (id: %s)", owner.Name, owner.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid CURIO_INIT_API_KEY format (expected 'cur_<64 hex chars>')")
		}

		existingKey, err := authSvc.GetAPIKeyByHash(ctx, cfg.InitAPIKey)
		if err == nil && existingKey != nil {
			log.Printf("bootstrap: API key already exists (id: %s)", existingKey.ID)
			return nil
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, owner.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
