package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"docsight-backend/internal/account"
	googleauth "docsight-backend/internal/auth"
	"docsight-backend/internal/documents"
	"docsight-backend/internal/extract"
	"docsight-backend/internal/extractions"
	"docsight-backend/internal/insight"
	"docsight-backend/internal/insight/openai"
	"docsight-backend/internal/shared/config"
	"docsight-backend/internal/shared/metrics"
	"docsight-backend/internal/shared/server"
	"docsight-backend/internal/shared/storage/blob"
	"docsight-backend/internal/shared/storage/blob/fs"
	s3store "docsight-backend/internal/shared/storage/blob/s3"
	"docsight-backend/internal/shared/storage/content"
	"docsight-backend/internal/shared/storage/db"
	"docsight-backend/internal/shared/storage/staging"
	"docsight-backend/internal/users"
)

// App holds shared dependencies built once per process.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Blob    blob.Store
	Staging *staging.Store

	DocumentsRepo   documents.Repo
	ExtractionsRepo extractions.Repo
	UsersRepo       users.Repo

	DocumentsService *documents.Service
	UsersService     *users.Service
	AccountService   *account.Service

	DocumentsHandler *documents.Handler
	UsersHandler     *users.Handler
	AccountHandler   *account.Handler
	GoogleAuth       *googleauth.GoogleService

	Metrics *metrics.Metrics
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.BlobStoreType) == "" {
		cfg.BlobStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobStore, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Blob:    blobStore,
		Staging: staging.New(cfg.StagingDir),
		Metrics: metrics.New(),
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		AccountHandler:  app.AccountHandler,
		UserHandler:     app.UsersHandler,
		GoogleAuth:      app.GoogleAuth,
		Metrics:         app.Metrics,
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
	return sqlDB, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.BlobStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("BLOB_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return fs.New(cfg.BlobStoreDir), nil
	}
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.ExtractionsRepo = &extractions.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.ExtractionsRepo = extractions.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	}

	insightClient := insight.Client(insight.Placeholder{})
	if app.Config.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			if !isDevLike(app.Config.Env) {
				return err
			}
			log.Printf("bootstrap: openai not configured; using placeholder analysis: %v", err)
		} else {
			insightClient = openaiClient
		}
	}

	app.DocumentsService = &documents.Service{
		Repo:        app.DocumentsRepo,
		Extractions: app.ExtractionsRepo,
		Blob:        app.Blob,
		Staging:     app.Staging,
		Resolver:    &content.Resolver{Blob: app.Blob, Staging: app.Staging},
		Extractor:   documents.ExtractorFunc(extract.FromFile),
		Insight:     insight.WithBreaker(insightClient),
		Metrics:     app.Metrics,
	}
	app.UsersService = users.NewService(app.UsersRepo)
	app.AccountService = account.NewService(app.DocumentsService, app.UsersService, app.DocumentsRepo)

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.AccountHandler = account.NewHandler(app.AccountService)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
	)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
