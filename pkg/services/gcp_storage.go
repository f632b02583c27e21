package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize bounds menu image uploads
const MaxImageSize = 5 << 20

// ImageStore uploads menu item images to a GCS bucket
type ImageStore struct {
	client *storage.Client
	bucket string
}

// NewImageStore creates an ImageStore for bucket
func NewImageStore(ctx context.Context, bucket string) (*ImageStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCP_BUCKET_NAME not set")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}
	return &ImageStore{client: client, bucket: bucket}, nil
}

// PublicURL returns the public URL of an object in bucket
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

// ObjectName extracts the object name from a public URL of bucket
func ObjectName(bucket, imageURL string) string {
	prefix := PublicURL(bucket, "")
	if !strings.HasPrefix(imageURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(imageURL, prefix)
}

// ImageContentType returns the detected MIME type of data, or an error when it
// is not an image
func ImageContentType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("unsupported file type %s", mt.String())
	}
	return mt.String(), nil
}

// Upload stores data under a unique name and returns its public URL
func (s *ImageStore) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	contentType, err := ImageContentType(data)
	if err != nil {
		return "", err
	}

	object := "menu/" + uuid.NewString() + "-" + path.Base(fileName)
	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", fmt.Errorf("GCS upload failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("GCS upload finalization failed: %w", err)
	}
	return PublicURL(s.bucket, object), nil
}

// Delete removes an image previously returned by Upload. URLs outside the
// bucket and missing objects are ignored.
func (s *ImageStore) Delete(ctx context.Context, imageURL string) error {
	object := ObjectName(s.bucket, imageURL)
	if object == "" {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(object).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("GCS delete failed: %w", err)
	}
	return nil
}

// Close releases the storage client
func (s *ImageStore) Close() error {
	return s.client.Close()
}
