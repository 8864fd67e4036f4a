package storage

import (
	"context"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOBlobStore uploads to any S3-compatible endpoint.
type MinIOBlobStore struct {
	mc     *minio.Client
	bucket string
}

func NewMinIOBlobStore(endpoint, access, secret string, useTLS bool, bucket string) (*MinIOBlobStore, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIOBlobStore{mc: mc, bucket: bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinIOBlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *MinIOBlobStore) UploadFile(ctx context.Context, localPath, objectName, contentType string) (string, error) {
	if err := s.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure bucket %s: %w", s.bucket, err)
	}

	if _, err := s.mc.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", err
	}

	return objectURL(s.mc.EndpointURL(), s.bucket, objectName), nil
}

func objectURL(endpoint *url.URL, bucket, objectName string) string {
	return endpoint.JoinPath(bucket, objectName).String()
}
