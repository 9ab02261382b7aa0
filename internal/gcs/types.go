package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Upload writes r to bucket/object and returns the gs:// URI.
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error)

	// Fetch downloads the bytes behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// SignedURL returns a time-limited HTTPS download URL for a gs:// URI.
	SignedURL(ctx context.Context, uri string, expiry time.Duration) (string, error)
}

// URI formats a gs:// URI.
func URI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Filename returns the last path element of a gs:// URI.
// e.g., "gs://bucket/folder/file.csv" → "file.csv"
func Filename(uri string) string {
	_, object, err := ParseURI(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "gs://")
	}
	if i := strings.LastIndex(object, "/"); i >= 0 {
		return object[i+1:]
	}
	return object
}
