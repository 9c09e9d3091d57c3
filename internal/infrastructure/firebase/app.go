package firebase

import (
	"context"
	"fmt"
	"os"

	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"hitrank/pkg/config"
	"hitrank/pkg/logger"
)

// ClientOptions resolves service account credentials for every Google client
// the process builds. Nil means Application Default Credentials.
func ClientOptions(cfg *config.Config) ([]option.ClientOption, error) {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}, nil
	}

	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}, nil
	}

	logger.Info("Using application default credentials")
	return nil, nil
}

// NewApp initializes the Firebase app and returns the credential options it
// was built with, for reuse by Firestore and Storage clients.
func NewApp(ctx context.Context, cfg *config.Config) (*fbapp.App, []option.ClientOption, error) {
	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize firebase: %w", err)
	}

	return app, opts, nil
}
