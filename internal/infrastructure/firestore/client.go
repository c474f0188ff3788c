// Package firestore implements the document repository on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"google.golang.org/api/option"
)

// NewApp initializes the Firebase app for the configured project.
// Without a credentials file, application default credentials are used,
// which also covers FIRESTORE_EMULATOR_HOST.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// NewClient returns the Firestore client of app
func NewClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}
	return client, nil
}
