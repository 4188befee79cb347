// Package storage provides blob storage for user documents and
// profile pictures.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/config"
)

// Uploader stores a blob under a key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type S3Uploader struct {
	client *s3.Client
	bucket string
	region string
	logger *logrus.Logger
}

func NewS3Uploader(client *s3.Client, cfg *config.S3Config, logger *logrus.Logger) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: logger,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		u.logger.WithError(err).WithField("key", key).Error("Failed to upload to S3")
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}

var _ Uploader = (*S3Uploader)(nil)
