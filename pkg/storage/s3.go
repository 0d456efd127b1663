package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kaizenlab/defectdb-engine/pkg/config"
)

// S3Store removes image objects from an S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store creates a MinIO client for the configured bucket.
func NewS3Store(cfg *config.S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Remove deletes the named object. RemoveObject is a no-op for objects
// that are already gone, which matches the ImageStore contract.
func (s *S3Store) Remove(ctx context.Context, filename string) error {
	err := s.client.RemoveObject(ctx, s.bucket, filename, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove image object: %w", err)
	}
	return nil
}
