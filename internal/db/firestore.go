package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fitcoach-backend/internal/config"
)

var (
	// fsClient is the global Firestore client instance.
	fsClient *firestore.Client
	// fbAuthClient is the global Firebase Auth client instance.
	fbAuthClient *auth.Client
)

// ErrNotFound is returned by repositories when a document does not exist.
var ErrNotFound = errors.New("document not found")

// InitFirestore initializes the Firebase Admin SDK and sets up the Firestore and Auth clients.
// Credentials come from a file path, a base64 service account JSON, or Application Default
// Credentials, in that order.
func InitFirestore(ctx context.Context, appConfig *config.Config, logger *zap.Logger) error {
	if appConfig == nil {
		return errors.New("InitFirestore: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist", zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		logger.Info("Initializing Firebase with base64 service account JSON")
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: appConfig.FirebaseProjectID}, opts...)
	if err != nil {
		return fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("app.Auth: %w", err)
	}

	fsClient = client
	fbAuthClient = authClient
	logger.Info("Firebase Admin SDK initialized", zap.String("projectID", appConfig.FirebaseProjectID))
	return nil
}

// GetFirestoreClient returns the global Firestore client, nil before InitFirestore.
func GetFirestoreClient() *firestore.Client {
	return fsClient
}

// GetFirebaseAuthClient returns the global Firebase Auth client, nil before InitFirestore.
func GetFirebaseAuthClient() *auth.Client {
	return fbAuthClient
}

// Close releases the Firestore client.
func Close() error {
	if fsClient == nil {
		return nil
	}
	return fsClient.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
