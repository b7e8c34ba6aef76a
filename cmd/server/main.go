// @title           Chmura Plikow API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"chmura-plikow/internal/api"
	"chmura-plikow/internal/blobstore"
	"chmura-plikow/internal/config"
	"chmura-plikow/internal/database"
	"chmura-plikow/internal/files"
	"chmura-plikow/internal/notifier"
	"chmura-plikow/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "chmura-plikow/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Nie można zainicjować loggera: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("nie można wczytać konfiguracji", "error", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		logger.Fatalw("nie można połączyć się z bazą danych", "error", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		logger.Fatalw("nie można pingować bazy danych", "error", err)
	}
	logger.Info("pomyślnie połączono z bazą danych")

	var blobs blobstore.BlobStore
	var localBlobs *blobstore.LocalStore

	switch cfg.Storage.Backend {
	case "s3":
		s3Store, err := blobstore.NewS3Store(context.Background(), blobstore.S3Config{
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			KeyPrefix:       cfg.Storage.S3.KeyPrefix,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		})
		if err != nil {
			logger.Fatalw("nie można zainicjować magazynu S3", "error", err)
		}
		blobs = s3Store
		logger.Infow("treść plików trafia do S3", "bucket", cfg.Storage.S3.Bucket)
	default:
		localBlobs, err = blobstore.NewLocalStore(cfg.Storage.Local.Path, cfg.JWT.Secret, cfg.AppHost)
		if err != nil {
			logger.Fatalw("nie można zainicjować lokalnego magazynu", "error", err)
		}
		blobs = localBlobs
		logger.Infow("treść plików trafia na dysk", "path", cfg.Storage.Local.Path)
	}

	var mailer notifier.Notifier = notifier.Noop{}
	if cfg.SMTP.Addr != "" {
		mailer = notifier.NewSMTP(cfg.SMTP.Addr, cfg.SMTP.From)
	}

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	store := database.NewStore(dbpool)
	filesSvc := files.NewService(store, blobs, logger)
	server := api.NewServer(cfg, store, filesSvc, localBlobs, wsHub, mailer, logger)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Chmura plików działa! Dokumentacja dostępna pod /swagger/index.html"))
	})

	r.Post("/api/v1/auth/register", server.RegisterHandler)
	r.Post("/api/v1/auth/login", server.LoginHandler)
	r.Post("/api/v1/auth/refresh", server.RefreshTokenHandler)
	r.Post("/api/v1/auth/logout", server.LogoutHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	if localBlobs != nil {
		r.Get("/blobs/{key}", server.ServeBlobHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Get("/me/storage", server.GetStorageUsageHandler)
		r.Put("/me/password", server.ChangePasswordHandler)
		r.Get("/entries", server.ListEntriesHandler)
		r.Get("/entries/search", server.SearchEntriesHandler)
		r.Post("/entries/folder", server.CreateFolderHandler)
		r.Post("/entries/file", server.UploadFileHandler)
		r.Get("/entries/{entryId}/url", server.DownloadURLHandler)
		r.Delete("/entries/{entryId}", server.DeleteEntryHandler)
		r.Get("/sessions", server.ListSessionsHandler)
		r.Delete("/sessions/{sessionId}", server.DeleteSessionHandler)
		r.Post("/sessions/terminate_all", server.TerminateAllSessionsHandler)
		r.Get("/events", server.GetEventsHandler)
	})

	logger.Info("uruchamianie serwera na porcie :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		logger.Fatalw("nie można uruchomić serwera", "error", err)
	}
}
