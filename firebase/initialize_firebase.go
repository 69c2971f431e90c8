package firebase

import (
	"context"
	"fmt"
	"os"

	"eldertales_api/config"
	"eldertales_api/tools"
	"eldertales_api/types"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/logging"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
)

func logInitialized(logger tools.Logger, client string, err error) {
	if err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Error,
			Payload:  "Error initializing " + client,
			Labels:   map[string]string{"error": err.Error()},
		})
		return
	}
	logger.Log(logging.Entry{
		Severity: logging.Info,
		Payload:  client + " initialized successfully",
		Labels:   map[string]string{"status": "success"},
	})
}

// InitFirebaseApp creates the Google Cloud clients the configured backends need and the
// logger every component writes to. Without a GCP project the logger writes JSON lines
// to stdout.
func InitFirebaseApp(ctx context.Context, cfg *config.Properties) (*types.FirebaseApp, tools.Logger, error) {
	app := &types.FirebaseApp{Context: ctx}

	// Initialize logging client
	var logger tools.Logger = tools.NewConsoleLogger(os.Stdout)
	if cfg.GCP.ProjectID != "" {
		loggingClient, err := logging.NewClient(ctx, cfg.GCP.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing logging client: %v", err)
		}
		app.LoggingClient = loggingClient
		app.Logger = loggingClient.Logger(cfg.GCP.LogName)
		logger = app.Logger
		logInitialized(logger, "Logging client", nil)
	}

	if !cfg.UsesFirebase() {
		return app, logger, nil
	}

	admin, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.GCP.ProjectID,
		StorageBucket: cfg.Blob.Bucket,
	})
	logInitialized(logger, "Firebase app", err)
	if err != nil {
		return nil, nil, err
	}
	app.Admin = admin

	if cfg.StoreBackend == config.BackendFirestore {
		app.DB, err = admin.Firestore(ctx)
		logInitialized(logger, "Firestore client", err)
		if err != nil {
			app.Close()
			return nil, nil, err
		}
	}

	if cfg.Blob.Backend == config.BackendGCS {
		app.Storage, err = storage.NewClient(ctx)
		logInitialized(logger, "Storage client", err)
		if err != nil {
			app.Close()
			return nil, nil, err
		}
	}

	if cfg.Auth.Mode == config.AuthFirebase {
		app.Auth, err = admin.Auth(ctx)
		logInitialized(logger, "Auth client", err)
		if err != nil {
			app.Close()
			return nil, nil, err
		}
	}

	if cfg.NotificationsEnabled() {
		app.MessageClient, err = admin.Messaging(ctx)
		logInitialized(logger, "Messaging client", err)
		if err != nil {
			app.Close()
			return nil, nil, err
		}

		app.TaskClient, err = cloudtasks.NewClient(ctx)
		logInitialized(logger, "Cloud Tasks client", err)
		if err != nil {
			app.Close()
			return nil, nil, err
		}
	}

	return app, logger, nil
}
