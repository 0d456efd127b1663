package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/auth"
	"github.com/kaizenlab/defectdb-engine/pkg/config"
	"github.com/kaizenlab/defectdb-engine/pkg/database"
	"github.com/kaizenlab/defectdb-engine/pkg/handlers"
	"github.com/kaizenlab/defectdb-engine/pkg/logging"
	"github.com/kaizenlab/defectdb-engine/pkg/middleware"
	"github.com/kaizenlab/defectdb-engine/pkg/qr"
	"github.com/kaizenlab/defectdb-engine/pkg/repositories"
	"github.com/kaizenlab/defectdb-engine/pkg/services"
	"github.com/kaizenlab/defectdb-engine/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Database),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("debug", cfg.Debug),
	)

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// golang-migrate drives migrations through database/sql.
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	imageStore, err := newImageStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	sessionStore := auth.NewSessionStore(
		cfg.Session.Secret, cfg.Session.CookieName,
		cfg.Session.MaxAgeSeconds, cfg.Session.Secure,
	)
	authMiddleware := auth.NewMiddleware(sessionStore, logger)

	classificationRepo := repositories.NewClassificationRepository(db)
	defectRepo := repositories.NewDefectRepository(db)
	templateRepo := repositories.NewTemplateRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)

	assembler := services.NewAssembler(classificationRepo)
	defectService := services.NewDefectService(
		defectRepo, templateRepo, ratingRepo,
		assembler, imageStore, services.NoopNotifier{}, logger,
	)
	classificationService := services.NewClassificationService(classificationRepo)
	templateService := services.NewTemplateService(templateRepo)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDefectsHandler(defectService, qr.NewEncoder(), cfg, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewClassificationsHandler(classificationService, cfg, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTemplatesHandler(templateService, cfg, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.CORS(middleware.Recover(logger)(middleware.RequestLogger(logger)(mux)))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting defectdb-engine",
		zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newImageStore(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.Storage.Backend == "s3" {
		return storage.NewS3Store(&cfg.Storage.S3)
	}
	return storage.NewLocalStore(cfg.Storage.UploadDir), nil
}
