package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/account"
	googleauth "docparse-backend/internal/auth"
	"docparse-backend/internal/cache"
	"docparse-backend/internal/documents"
	"docparse-backend/internal/export"
	"docparse-backend/internal/health"
	"docparse-backend/internal/llm"
	openai "docparse-backend/internal/llm/openai"
	"docparse-backend/internal/parse"
	"docparse-backend/internal/queue"
	"docparse-backend/internal/shared/config"
	"docparse-backend/internal/shared/server"
	"docparse-backend/internal/shared/storage/db"
	"docparse-backend/internal/shared/storage/object"
	localstore "docparse-backend/internal/shared/storage/object/local"
	s3store "docparse-backend/internal/shared/storage/object/s3"
	"docparse-backend/internal/stats"
	"docparse-backend/internal/usage"
	"docparse-backend/internal/users"
)

const defaultModel = "gpt-4o-mini"

// App holds shared dependencies for the API and the worker.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	ExportStore      object.ObjectStore
	Cache            cache.Cache
	Queue            queue.Client
	DocumentsRepo    documents.DocumentsRepo
	ResultsRepo      parse.ResultsRepo
	ExportsRepo      export.ExportsRepo
	UsersRepo        users.Repo
	DocumentsService *documents.Service
	ParseService     *parse.Service
	ParseProcessor   ParseProcessor
	ExportService    *export.Service
	UsageService     *usage.Service
	UsersService     *users.Service
	StatsService     *stats.Service
	HealthService    *health.Service
	AccountService   *account.Service
	GoogleAuth       *googleauth.GoogleService
}

// ParseProcessor allows callers to override parse processing for tests.
type ParseProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exportStore, err := buildExportStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		Store:       store,
		ExportStore: exportStore,
		Cache:       buildCache(cfg),
		Queue:       queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		HealthHandler:   health.NewHandler(app.HealthService),
		UsersHandler:    users.NewHandler(app.UsersService),
		GoogleAuth:      app.GoogleAuth,
		DocumentHandler: documents.NewHandler(app.DocumentsService, app.ParseService),
		ParseHandler:    parse.NewHandler(app.ParseService),
		ExportHandler:   export.NewHandler(app.ExportService),
		UsageHandler:    usage.NewHandler(app.UsageService),
		StatsHandler:    stats.NewHandler(app.StatsService),
		AccountHandler:  account.NewHandler(app.AccountService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExportStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		prefix := strings.TrimSuffix(cfg.S3Prefix, "/")
		if prefix != "" {
			prefix += "/"
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, prefix+"exports/", cfg.SSEKMSKeyID)
	}
	dir := strings.TrimSpace(cfg.ExportsDir)
	if dir == "" {
		dir = filepath.Join(cfg.LocalStoreDir, "exports")
	}
	return localstore.New(dir), nil
}

func buildCache(cfg config.Config) cache.Cache {
	fileCache := cache.NewFileCache(filepath.Join(cfg.LocalStoreDir, "cache"))
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return fileCache
	}
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
	return cache.NewFallback(redisCache, fileCache)
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	switch cfg.QueueBackend {
	case "sqs":
		if strings.TrimSpace(cfg.SQSQueueURL) == "" {
			if isDevLike(cfg.Env) {
				return nil, nil
			}
			return nil, fmt.Errorf("QUEUE_BACKEND=sqs requires DP_SQS_QUEUE_URL")
		}
		return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
	default:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			// No broker configured: async parses run in-process.
			return nil, nil
		}
		return queue.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisQueueDB), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildLLM(cfg config.Config) (llm.Client, string, bool, error) {
	model := strings.TrimSpace(cfg.LLMModel)
	if model == "" {
		model = defaultModel
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if cfg.LLMProvider == "openai" && apiKey != "" {
		client, err := openai.NewClient(apiKey, model)
		if err != nil {
			return nil, "", false, err
		}
		return client, model, true, nil
	}

	if isDevLike(cfg.Env) {
		log.Printf("bootstrap: no LLM credentials; using heuristic extraction")
		return llm.HeuristicClient{}, "heuristic", false, nil
	}

	return nil, "", false, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var resultRepo parse.ResultsRepo
	var exportRepo export.ExportsRepo
	var userRepo users.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		resultRepo = &parse.PGRepo{DB: app.DB}
		exportRepo = &export.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		resultRepo = parse.NewMemoryRepo()
		exportRepo = export.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	llmClient, model, llmConfigured, err := buildLLM(app.Config)
	if err != nil {
		return err
	}

	docSvc := &documents.Service{
		Store: app.Store,
		Repo:  docRepo,
	}

	parseSvc := &parse.Service{
		Repo:          resultRepo,
		Docs:          docSvc,
		Usage:         usageSvc,
		Cache:         app.Cache,
		LLM:           llmClient,
		Model:         model,
		PromptVersion: app.Config.PromptVersion,
	}
	if app.Queue != nil {
		parseSvc.Queue = queue.Enqueuer{Client: app.Queue}
	} else {
		parseSvc.Queue = &parse.InProcessQueue{Svc: parseSvc}
	}

	exportSvc := &export.Service{
		Repo:    exportRepo,
		Docs:    docRepo,
		Results: resultRepo,
		Store:   app.ExportStore,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.DocumentsRepo = docRepo
	app.ResultsRepo = resultRepo
	app.ExportsRepo = exportRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.ParseService = parseSvc
	app.ParseProcessor = parseSvc
	app.ExportService = exportSvc
	app.UsageService = usageSvc
	app.UsersService = userSvc
	app.StatsService = stats.NewService(docRepo, usageSvc)
	app.HealthService = &health.Service{
		DB:            app.DB,
		Cache:         app.Cache,
		LLMConfigured: llmConfigured,
		Users:         userSvc,
		Docs:          docRepo,
	}
	app.AccountService = account.NewService(docRepo, resultRepo)
	app.GoogleAuth = googleAuthSvc

	return nil
}
