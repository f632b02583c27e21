package services

import (
	"context"
	"fmt"

	"restaurant_backend/pkg/config"

	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

// ClientOptions returns the Google API options for the configured credentials
func ClientOptions(cfg *config.Config) []option.ClientOption {
	if cfg.GoogleApplicationCredentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.GoogleApplicationCredentials)}
}

// NewFirebaseApp initializes the Firebase app shared by Firestore, FCM and Auth
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}
