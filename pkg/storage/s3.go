// Package storage uploads media (story images, avatars) to S3 and hands
// back public URLs.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// MediaStore uploads objects by path and resolves their public URLs
type MediaStore interface {
	Upload(ctx context.Context, path string, body io.Reader, contentType string) (string, error)
	PublicURL(path string) string
}

// S3Store implements MediaStore against an S3 bucket
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Store creates an S3-backed media store. Static credentials are
// used when both keys are set, otherwise the default chain applies.
func NewS3Store(ctx context.Context, bucket, region, accessKey, secretKey string) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "storage: load aws config")
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// Upload writes the object at the given path, overwriting any existing
// object (upsert semantics), and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "storage: upload %s", path)
	}
	return s.PublicURL(path), nil
}

// PublicURL returns the public URL for an object path
func (s *S3Store) PublicURL(path string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, path)
}
