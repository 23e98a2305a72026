package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (service account / GOOGLE_APPLICATION_CREDENTIALS).
	// Set GCS_CREDENTIALS_JSON to pass explicit JSON credentials (e.g. locally).
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// UploadReportToGCS writes an exported report to GCS_BUCKET and returns its gs:// URL.
func UploadReportToGCS(ctx context.Context, objectName string, contentType string, data []byte) (string, error) {
	bucketName := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if _, err := client.Bucket(bucketName).Attrs(ctx); err != nil {
		return "", fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucketName, err)
	}

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", bucketName, objectName), nil
}
