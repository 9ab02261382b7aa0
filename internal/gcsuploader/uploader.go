package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/moneyflow/internal/gcs"
)

// GCSStorageService is the Cloud Storage implementation of gcs.StorageService.
// It holds one client for the lifetime of the process.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates a storage client using Application Default
// Credentials.
func NewGCSStorageService(ctx context.Context) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: creating storage client: %w", err)
	}
	return &GCSStorageService{client: client}, nil
}

// Close closes the storage client.
func (s *GCSStorageService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Upload implements gcs.StorageService.
func (s *GCSStorageService) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Upload: copying to GCS writer: %w", err)
	}

	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalizing upload: %w", err)
	}
	return gcs.URI(bucket, object), nil
}

// Fetch implements gcs.StorageService.
func (s *GCSStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := gcs.ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// SignedURL implements gcs.StorageService. Signing needs a service account;
// with user credentials it fails and callers fall back to Fetch.
func (s *GCSStorageService) SignedURL(ctx context.Context, uri string, expiry time.Duration) (string, error) {
	bucket, object, err := gcs.ParseURI(uri)
	if err != nil {
		return "", fmt.Errorf("SignedURL: %w", err)
	}

	opts := &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  storage.SigningSchemeV4,
	}
	url, err := s.client.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("SignedURL: %w", err)
	}
	return url, nil
}

// Ensure GCSStorageService implements gcs.StorageService.
var _ gcs.StorageService = (*GCSStorageService)(nil)
