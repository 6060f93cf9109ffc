package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	gcsstorage "cloud.google.com/go/storage"
	"github.com/caarlos0/env/v11"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	cardshandler "github.com/cardledger/cardledger/domains/cards/be/handler"
	cardsrepo "github.com/cardledger/cardledger/domains/cards/be/repo"
	cardsservice "github.com/cardledger/cardledger/domains/cards/be/service"
	collectionshandler "github.com/cardledger/cardledger/domains/collections/be/handler"
	collectionsrepo "github.com/cardledger/cardledger/domains/collections/be/repo"
	collectionsservice "github.com/cardledger/cardledger/domains/collections/be/service"
	platformlogging "github.com/cardledger/cardledger/platform/go/logging"
	platformmiddleware "github.com/cardledger/cardledger/platform/go/middleware"
	"github.com/cardledger/cardledger/platform/go/persistence"
	"github.com/cardledger/cardledger/platform/go/slugparse"
	platformstorage "github.com/cardledger/cardledger/platform/go/storage"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"firebase"`
	EnvKey          string        `env:"ENV_KEY" envDefault:"dev"`
	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"none"`              // gcs | local | none
	StorageBucket   string        `env:"STORAGE_BUCKET"`                                 // required when STORAGE_BACKEND=gcs
	StorageLocalDir string        `env:"STORAGE_LOCAL_DIR" envDefault:"./.data/storage"` // used when STORAGE_BACKEND=local
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	cardStore, err := persistence.NewCardStore(ctx, pool)
	if err != nil {
		logger.Fatal("init card store", zap.Error(err))
	}

	collectionStore, err := persistence.NewCollectionStore(ctx, pool)
	if err != nil {
		logger.Fatal("init collection store", zap.Error(err))
	}

	var imageStore platformstorage.ImageStore
	switch cfg.StorageBackend {
	case "gcs":
		if cfg.StorageBucket == "" {
			logger.Fatal("storage bucket required when STORAGE_BACKEND=gcs")
		}
		gcsClient, err := gcsstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("init gcs client", zap.Error(err))
		}
		defer gcsClient.Close()
		imageStore, err = platformstorage.NewGCSImageStore(gcsClient, cfg.StorageBucket, cfg.EnvKey+"/")
		if err != nil {
			logger.Fatal("init gcs image store", zap.Error(err))
		}
	case "local":
		if strings.TrimSpace(cfg.StorageLocalDir) == "" {
			logger.Fatal("storage local dir required when STORAGE_BACKEND=local")
		}
		imageStore, err = platformstorage.NewLocalImageStore(cfg.StorageLocalDir)
		if err != nil {
			logger.Fatal("init local image store", zap.Error(err))
		}
	case "none":
		logger.Warn("no storage backend configured; card image uploads disabled")
	default:
		logger.Fatal("invalid STORAGE_BACKEND (use gcs, local or none)", zap.String("backend", cfg.StorageBackend))
	}

	engine := slugparse.New(slugparse.Default())
	attrValidator := persistence.NewAttributeValidator()

	cardRepo := cardsrepo.NewPostgresRepository(cardStore)
	cardService := cardsservice.New(cardRepo, engine, attrValidator, imageStore)
	cardHTTPHandler := cardshandler.New(cardService, logger)

	collectionRepo := collectionsrepo.NewPostgresRepository(collectionStore)
	collectionService := collectionsservice.New(collectionRepo)
	collectionHTTPHandler := collectionshandler.New(collectionService, logger)

	authMiddleware := buildAuthMiddleware(ctx, cfg, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// ---- Swagger UI + OpenAPI JSON (public) ----
	registerDocsRoutes(rootRouter, logger)

	apiRouter := chi.NewRouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(platformmiddleware.RequestTrace)

	cardsValidator := mustNewSpecValidator(logger, "contracts/cards.yaml")
	apiRouter.Group(func(r chi.Router) {
		r.Use(cardsValidator)
		r.Mount("/cards", cardHTTPHandler.Routes())
	})

	collectionsValidator := mustNewSpecValidator(logger, "contracts/collections.yaml")
	apiRouter.Group(func(r chi.Router) {
		r.Use(collectionsValidator)
		r.Mount("/collection", collectionHTTPHandler.Routes())
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// mustNewSpecValidator loads the OpenAPI document and builds validator middleware.
// Reused by each domain group to guarantee contract compliance.
func mustNewSpecValidator(logger *zap.Logger, path string) func(http.Handler) http.Handler {
	spec := mustLoadSpec(logger, path)

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: platformmiddleware.ValidateAuthenticationViaSwagger,
		},
	})
}

// mustLoadSpec loads and returns the OpenAPI document for validation and docs serving.
func mustLoadSpec(logger *zap.Logger, path string) *openapi3.T {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	absPath, err := filepath.Abs(path)
	if err != nil {
		logger.Fatal("resolve spec path", zap.String("path", path), zap.Error(err))
	}

	baseDir := filepath.Dir(absPath)
	loader.ReadFromURIFunc = func(loader *openapi3.Loader, ref *url.URL) ([]byte, error) {
		if ref == nil {
			return nil, errors.New("nil reference URI")
		}

		if ref.IsAbs() {
			switch ref.Scheme {
			case "file":
				data, err := os.ReadFile(ref.Path)
				if err != nil {
					return nil, fmt.Errorf("read reference %q: %w", ref.Path, err)
				}
				return data, nil
			default:
				return nil, fmt.Errorf("unsupported reference scheme %q", ref.String())
			}
		}

		refPath := filepath.Clean(ref.Path)
		if refPath == "" {
			return nil, fmt.Errorf("empty reference path for %q", ref.String())
		}

		candidate := filepath.Join(baseDir, refPath)
		data, err := os.ReadFile(candidate)
		if err != nil {
			return nil, fmt.Errorf("read reference %q: %w", candidate, err)
		}
		return data, nil
	}

	spec, err := loader.LoadFromFile(absPath)
	if err != nil {
		logger.Fatal("load openapi spec", zap.String("path", path), zap.Error(err))
	}

	logSecuritySchemes(logger, path, spec)
	return spec
}

func logSecuritySchemes(logger *zap.Logger, path string, spec *openapi3.T) {
	if spec.Components == nil {
		return
	}

	names := make([]string, 0, len(spec.Components.SecuritySchemes))
	for name := range spec.Components.SecuritySchemes {
		names = append(names, name)
	}

	logger.Debug("loaded openapi spec",
		zap.String("path", path),
		zap.Strings("security_schemes", names),
	)
}
