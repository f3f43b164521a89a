package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/analytics"
	googleauth "github.com/somacore/roledeck/internal/auth"
	"github.com/somacore/roledeck/internal/decks"
	"github.com/somacore/roledeck/internal/llm"
	"github.com/somacore/roledeck/internal/llm/gemini"
	"github.com/somacore/roledeck/internal/llm/openai"
	"github.com/somacore/roledeck/internal/portal"
	"github.com/somacore/roledeck/internal/resume"
	"github.com/somacore/roledeck/internal/services/health"
	sharedauth "github.com/somacore/roledeck/internal/shared/auth"
	"github.com/somacore/roledeck/internal/shared/config"
	"github.com/somacore/roledeck/internal/shared/server"
	"github.com/somacore/roledeck/internal/shared/server/middleware"
	"github.com/somacore/roledeck/internal/shared/storage/db"
	"github.com/somacore/roledeck/internal/shared/storage/object"
	localstore "github.com/somacore/roledeck/internal/shared/storage/object/local"
	s3store "github.com/somacore/roledeck/internal/shared/storage/object/s3"
	"github.com/somacore/roledeck/internal/tenants"
	"github.com/somacore/roledeck/internal/views"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Store      object.ObjectStore
	Completer  llm.Completer
	Recorder   *views.Recorder
	Tenants    *tenants.Service
	Decks      *decks.Service
	DecksRepo  decks.Repo
	ViewsRepo  views.Repo
	Portal     *portal.Service
	Analytics  *analytics.Service
	GoogleAuth *googleauth.GoogleService
}

// Build prepares dependencies and wires routes. Without a database in dev
// every repository is in-memory.
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

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Completer: buildCompleter(ctx, cfg),
	}
	buildServices(app)

	var files server.FileSource
	if local, ok := store.(*localstore.Store); ok {
		files = local
	}

	healthSvc := health.NewService(nil, cfg.ObjectStoreType, cfg.LLMProvider)
	if sqlDB != nil {
		healthSvc.DB = sqlDB
		healthSvc.SchemaVersion = func(ctx context.Context) (int64, error) {
			return db.SchemaVersion(ctx, sqlDB)
		}
	}

	app.Router = server.NewRouter(server.Deps{
		Config:     cfg,
		Health:     healthSvc,
		GoogleAuth: app.GoogleAuth,
		Tenants:    tenants.NewHandler(app.Tenants, cfg.PublicScheme, cfg.RootDomain),
		Decks:      decks.NewHandler(app.Decks, app.Tenants, cfg.PublicScheme, cfg.RootDomain),
		Analytics:  analytics.NewHandler(app.Analytics),
		Portal:     portal.NewHandler(app.Portal),
		Files:      files,
		Limiter:    middleware.NewRateLimiter(nil),
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

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		secret := []byte(cfg.JWTSecret)
		if len(secret) == 0 {
			var err error
			if secret, err = sharedauth.SecretKey(); err != nil {
				return nil, err
			}
		}
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL, secret), nil
	}
}

// buildCompleter picks the structuring model. A provider that fails to
// initialize degrades to the placeholder so pages still render raw text.
func buildCompleter(ctx context.Context, cfg config.Config) llm.Completer {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			log.Printf("bootstrap: openai client unavailable: %v", err)
			return llm.PlaceholderClient{}
		}
		return client
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			log.Printf("bootstrap: gemini client unavailable: %v", err)
			return llm.PlaceholderClient{}
		}
		return client
	default:
		return llm.PlaceholderClient{}
	}
}

func buildServices(app *App) {
	var (
		tenantRepo tenants.Repo
		deckRepo   decks.Repo
		viewRepo   views.Repo
	)
	if app.DB != nil {
		tenantRepo = &tenants.PGRepo{DB: app.DB}
		deckRepo = &decks.PGRepo{DB: app.DB}
		viewRepo = &views.PGRepo{DB: app.DB}
	} else {
		tenantRepo = tenants.NewMemoryRepo()
		deckRepo = decks.NewMemoryRepo()
		viewRepo = views.NewMemoryRepo()
	}

	structurer := resume.LLMStructurer{Completer: app.Completer}
	tenantSvc := tenants.NewService(tenantRepo)
	recorder := views.NewRecorder(viewRepo)

	app.Tenants = tenantSvc
	app.DecksRepo = deckRepo
	app.ViewsRepo = viewRepo
	app.Recorder = recorder
	app.Decks = &decks.Service{
		Repo:       deckRepo,
		Store:      app.Store,
		Structurer: structurer,
	}
	app.Portal = &portal.Service{
		Tenants:      tenantSvc,
		Decks:        deckRepo,
		Views:        recorder,
		Signer:       app.Store,
		Normalizer:   &resume.Normalizer{Structurer: structurer, Store: deckRepo},
		SignedURLTTL: app.Config.SignedURLTTL,
	}
	app.Analytics = &analytics.Service{
		Decks: deckRepo,
		Views: viewRepo,
		Geo:   analytics.NewGeoClient(app.Config.GeoAPIURL),
	}
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:     app.Config.GoogleClientID,
		ClientSecret: app.Config.GoogleClientSecret,
		RedirectURL:  app.Config.GoogleRedirectURL,
		UIRedirect:   app.Config.UIRedirectURL,
	}, tenantSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
