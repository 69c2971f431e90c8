package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"eldertales_api/blob"
	"eldertales_api/config"
	"eldertales_api/events"
	"eldertales_api/firebase"
	"eldertales_api/handlers"
	"eldertales_api/identity"
	"eldertales_api/replay"
	"eldertales_api/social"
	"eldertales_api/store"
	"eldertales_api/tasks"
	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/logging"
	"github.com/redis/go-redis/v9"
)

func newContentStore(cfg *config.Properties, app *types.FirebaseApp) store.ContentStore {
	if cfg.StoreBackend == config.BackendMemory {
		return store.NewMemoryStore()
	}
	return store.NewFirestoreStore(app.DB)
}

func newBlobStore(cfg *config.Properties, app *types.FirebaseApp) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case config.BackendMinio:
		return blob.NewMinioStore(cfg.Blob.MinioEndpoint, cfg.Blob.MinioAccessKey, cfg.Blob.MinioSecretKey, cfg.Blob.Bucket, cfg.Blob.MinioUseSSL, cfg.Blob.PublicURL)
	case config.BackendMemory:
		return blob.NewMemoryStore(cfg.Blob.PublicURL), nil
	default:
		return blob.NewGCSStore(app.Storage, cfg.Blob.Bucket), nil
	}
}

func newVerifier(ctx context.Context, cfg *config.Properties, app *types.FirebaseApp) (identity.Verifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		return identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
	case config.AuthOIDC:
		return identity.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
	default:
		return identity.NewFirebaseVerifier(app.Auth), nil
	}
}

func newReplayCache(ctx context.Context, cfg *config.Properties, logger tools.Logger) (replay.Cache, func()) {
	if cfg.Redis.Addr == "" {
		return replay.NewMemoryCache(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Warning,
			Payload:  "Redis is not reachable yet",
			Labels:   map[string]string{"error": err.Error(), "addr": cfg.Redis.Addr},
		})
	}
	return replay.NewRedisCache(client, cfg.Redis.KeyPrefix), func() { client.Close() }
}

func main() {
	cfg, err := config.ReadProperties()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase app
	firebaseApp, logger, err := firebase.InitFirebaseApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v\n", err)
	}
	defer firebaseApp.Close()

	contentStore := newContentStore(cfg, firebaseApp)

	blobs, err := newBlobStore(cfg, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v\n", err)
	}

	verifier, err := newVerifier(ctx, cfg, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to initialize token verifier: %v\n", err)
	}

	publishers := events.Multi{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(events.NATSConfig{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			ClientName:    cfg.NATS.ClientName,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v\n", err)
		}
		defer natsPublisher.Close()
		publishers = append(publishers, natsPublisher)
	}

	deps := handlers.Dependencies{
		Logger:      logger,
		Store:       contentStore,
		Verifier:    verifier,
		TaskSecret:  cfg.TaskSecret,
		CORSOrigins: cfg.CORS.Origins,
		EnablePprof: cfg.DebugPprof,
	}

	if cfg.NotificationsEnabled() {
		publishers = append(publishers, tasks.NewNotifier(firebaseApp.TaskClient, logger, tasks.QueueConfig{
			ProjectID:  cfg.GCP.ProjectID,
			LocationID: cfg.GCP.TasksLocation,
			QueueID:    cfg.GCP.TasksQueue,
			ServiceURL: cfg.GCP.ServiceURL,
			Secret:     cfg.TaskSecret,
		}))
		deps.Sender = firebaseApp.MessageClient
	}

	replayCache, closeReplayCache := newReplayCache(ctx, cfg, logger)
	defer closeReplayCache()
	deps.ReplayCache = replayCache
	deps.IdempotencyTTL = cfg.IdempotencyTTL

	deps.Service = social.NewService(contentStore, blobs, publishers, logger)

	r, err := handlers.NewRouter(deps)
	if err != nil {
		log.Fatalf("Failed to build router: %v\n", err)
	}

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log(logging.Entry{
			Severity: logging.Info,
			Payload:  "Listening on " + srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v\n", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Error,
			Payload:  "Error shutting down server",
			Labels:   map[string]string{"error": err.Error()},
		})
	}
}
