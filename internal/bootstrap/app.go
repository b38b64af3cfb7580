package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"healthmate-backend/internal/chat"
	"healthmate-backend/internal/documents"
	"healthmate-backend/internal/embedding"
	"healthmate-backend/internal/healthdata"
	"healthmate-backend/internal/ingest"
	"healthmate-backend/internal/llm"
	openai "healthmate-backend/internal/llm/openai"
	"healthmate-backend/internal/queue"
	"healthmate-backend/internal/sections"
	"healthmate-backend/internal/shared/config"
	"healthmate-backend/internal/shared/server"
	"healthmate-backend/internal/shared/storage/db"
	"healthmate-backend/internal/shared/storage/object"
	localstore "healthmate-backend/internal/shared/storage/object/local"
	s3store "healthmate-backend/internal/shared/storage/object/s3"
)

const chatTemperature = 0.2

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo documents.DocumentsRepo
	SectionsRepo  sections.SectionsRepo
	HealthRepo    healthdata.HealthRepo

	Embedder  embedding.Client
	LLM       llm.Client
	Processor *ingest.Processor

	DocumentsService *documents.Service
	ChatService      *chat.Service

	DocumentsHandler *documents.Handler
	HealthHandler    *healthdata.Handler
	ChatHandler      *chat.Handler
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

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewClient(embedding.Config{
		Provider:   cfg.EmbeddingProvider,
		URL:        cfg.EmbeddingURL,
		Model:      cfg.EmbeddingModel,
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		Dimensions: cfg.EmbeddingDimensions,
		BatchSize:  cfg.EmbeddingBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		Embedder: embedder,
		LLM:      llmClient,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		HealthHandler:   app.HealthHandler,
		ChatHandler:     app.ChatHandler,
	})

	return app, nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.SectionsRepo = &sections.PGRepo{DB: app.DB}
		app.HealthRepo = &healthdata.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.SectionsRepo = sections.NewMemoryRepo()
		app.HealthRepo = healthdata.NewMemoryRepo()
	}

	app.Processor = &ingest.Processor{
		Store:       app.Store,
		Docs:        app.DocumentsRepo,
		Sections:    app.SectionsRepo,
		Embedder:    app.Embedder,
		Queue:       app.Queue,
		Concurrency: app.Config.EmbedConcurrency,
	}

	app.DocumentsService = &documents.Service{
		Store:    app.Store,
		Repo:     app.DocumentsRepo,
		Sections: app.SectionsRepo,
		Ingest:   app.Processor,
	}

	app.ChatService = &chat.Service{
		Embedder:       app.Embedder,
		Sections:       app.SectionsRepo,
		Health:         app.HealthRepo,
		LLM:            app.LLM,
		MatchThreshold: app.Config.MatchThreshold,
		MatchLimit:     app.Config.MatchLimit,
		MaxTokens:      app.Config.ChatMaxTokens,
		Temperature:    chatTemperature,
	}

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.HealthHandler = healthdata.NewHandler(app.HealthRepo)
	app.ChatHandler = chat.NewHandler(app.ChatService)
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
			log.Printf("bootstrap: database connect failed, falling back to memory: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed, falling back to memory: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, fmt.Errorf("build s3 store: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue returns nil when no queue is configured; ingestion then embeds
// inline.
func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("HM_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("build queue: %w", err)
	}
	return client, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: OPENAI_API_KEY empty; chat completions disabled")
				return llm.PlaceholderClient{}, nil
			}
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return openai.NewClient(apiKey, cfg.ChatModel)
	case "placeholder", "":
		return llm.PlaceholderClient{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "test", "local", "":
		return true
	default:
		return false
	}
}
