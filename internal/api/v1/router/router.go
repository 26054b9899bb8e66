package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"goldsignal/internal/api/v1/handler"
	"goldsignal/internal/config"
	"goldsignal/internal/middleware"
	"goldsignal/internal/pubsub"
	"goldsignal/internal/repository"
	"goldsignal/internal/service"
	"goldsignal/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New builds the full application: store backend, repositories, services,
// handlers and middleware. The returned cleanup func releases backend
// resources and must be called on shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Str("storage_backend", cfg.StorageBackend).Msg("Router initializing")

	ctx := context.Background()
	cleanup := func() {}

	// 1. Select the persistence backend.
	var st store.Store
	switch cfg.StorageBackend {
	case "file":
		fs, err := store.NewFileStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file store: %w", err)
		}
		st = fs
	case "postgres":
		pg, err := store.NewPGStore(ctx, cfg.DBConnectionString, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		st = pg
		cleanup = pg.Close
	case "s3":
		s3s, err := store.NewS3Store(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening s3 store: %w", err)
		}
		st = s3s
	case "memory":
		st = store.NewMemory()
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	// 2. Load collections into repositories.
	userRepo, err := repository.NewUserRepo(ctx, st, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading users collection: %w", err)
	}
	analysisRepo, err := repository.NewAnalysisRepo(ctx, st, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading analyses collection: %w", err)
	}

	// 3. Initialize validator.
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Resolve the Gemini API key, falling back to Secret Manager.
	geminiKey := cfg.GeminiAPIKey
	if geminiKey == "" && cfg.GeminiSecretName != "" {
		sm, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("creating secret manager client: %w", err)
		}
		geminiKey, err = sm.AccessSecret(ctx, cfg.GeminiSecretName)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching gemini API key: %w", err)
		}
		_ = sm.Close()
	}
	if geminiKey == "" {
		logger.Warn().Msg("No Gemini API key configured, signal requests will fail upstream")
	}

	// 5. Optional Pub/Sub publisher for analysis.recorded events.
	var publisher pubsub.Publisher
	if cfg.PubSubAnalysisTopic != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("creating pub/sub publisher: %w", err)
		}
		publisher = p
	}

	// 6. Initialize services & handlers.
	userSvc := service.NewUserService(userRepo, logger)
	gateSvc := service.NewGateService(userRepo, logger)
	signalSvc := service.NewSignalService(geminiKey, cfg.GeminiModel, logger)
	analysisSvc := service.NewAnalysisService(userRepo, analysisRepo, publisher, cfg.PubSubAnalysisTopic, logger)

	jwtTTL := time.Duration(cfg.JWTTTLHours) * time.Hour
	authHandler := handler.NewAuthHandler(userSvc, validate, cfg.JWTSecret, jwtTTL, logger)
	userHandler := handler.NewUserHandler(userSvc, validate, logger)
	signalHandler := handler.NewSignalHandler(gateSvc, signalSvc, analysisSvc, validate, logger)
	adminHandler := handler.NewAdminHandler(userSvc, analysisSvc, validate, logger)

	// 7. Initialize middleware.
	authMw := middleware.AuthMiddleware(cfg.JWTSecret)
	adminMw := func(next http.Handler) http.Handler {
		return authMw(middleware.AdminOnly(next))
	}

	// 8. Create ServeMux router with the /v1 prefix.
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux)
	userHandler.RegisterRoutes(apiV1Mux, authMw)
	signalHandler.RegisterRoutes(apiV1Mux, authMw)
	adminHandler.RegisterRoutes(apiV1Mux, adminMw)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Swagger documentation
	mux.HandleFunc("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	// Redirect root-level requests to /v1/{path}.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || strings.HasPrefix(r.URL.Path, "/swagger/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	// 9. Apply CORS middleware.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), cleanup, nil
}
