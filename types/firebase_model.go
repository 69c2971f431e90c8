package types

import (
	"context"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/firestore"
	"cloud.google.com/go/logging"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"firebase.google.com/go/messaging"
)

// FirebaseApp bundles the Google Cloud clients. Clients for backends that are not
// selected in the configuration stay nil.
type FirebaseApp struct {
	Context       context.Context
	Admin         *firebase.App
	DB            *firestore.Client
	Storage       *storage.Client
	Auth          *auth.Client
	LoggingClient *logging.Client
	Logger        *logging.Logger
	MessageClient *messaging.Client
	TaskClient    *cloudtasks.Client
}

func (app *FirebaseApp) Close() {
	if app.TaskClient != nil {
		app.TaskClient.Close()
	}
	if app.Storage != nil {
		app.Storage.Close()
	}
	if app.DB != nil {
		app.DB.Close()
	}
	if app.LoggingClient != nil {
		app.LoggingClient.Close()
	}
}
