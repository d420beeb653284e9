package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// ReadStatement returns the PDF bytes for a local path or a gs:// URI.
func ReadStatement(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "gs://") {
		return fetchFromGCS(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statement %q: %w", path, err)
	}
	return data, nil
}

// fetchFromGCS downloads the file bytes from the given GCS URI.
func fetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	// gcsURI example: gs://my-bucket/path/to/file.pdf
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}

	bucketName := parts[0]
	objectPath := parts[1]

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: creating storage client: %w", err)
	}
	defer storageClient.Close()

	rc, err := storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}
