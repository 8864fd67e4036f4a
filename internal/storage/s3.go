package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3BlobStore uploads to an AWS S3 bucket.
type S3BlobStore struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

// NewS3BlobStore uses static credentials when access is set and the default AWS
// credential chain otherwise.
func NewS3BlobStore(region, access, secret, bucket string) (*S3BlobStore, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if access != "" {
		cfg.Credentials = credentials.NewStaticCredentials(access, secret, "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &S3BlobStore{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

// EnsureBucket creates the bucket when HeadBucket cannot see it.
func (s *S3BlobStore) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	}); err == nil {
		return nil
	}

	_, err := s.client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	return err
}

func (s *S3BlobStore) UploadFile(ctx context.Context, localPath, objectName, contentType string) (string, error) {
	if err := s.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure bucket %s: %w", s.bucket, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectName),
		Body:        src,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return out.Location, nil
}
