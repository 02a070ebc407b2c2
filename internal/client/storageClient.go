package client

import (
	"context"
	"fmt"
	"promo-campaign-backend/internal/config"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// InvoiceStorage produces short-lived read URLs for uploaded invoice
// documents so they can be handed to the vision classifier.
type InvoiceStorage interface {
	SignURL(ctx context.Context, fileKey string, ttl time.Duration) (string, error)
}

type s3StorageImpl struct {
	s3     *s3.S3
	bucket string
}

func NewS3Storage(s3Cfg *config.S3) InvoiceStorage {
	sess, _ := session.NewSession(&aws.Config{
		Region:           aws.String(s3Cfg.Region),
		Credentials:      credentials.NewStaticCredentials(s3Cfg.AccessKey, s3Cfg.SecretKey, ""),
		Endpoint:         aws.String(s3Cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
	})

	return &s3StorageImpl{
		s3:     s3.New(sess),
		bucket: s3Cfg.Bucket,
	}
}

func (s *s3StorageImpl) SignURL(ctx context.Context, fileKey string, ttl time.Duration) (string, error) {
	req, _ := s.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileKey),
	})
	req.SetContext(ctx)

	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign invoice url: %w", err)
	}
	return url, nil
}
