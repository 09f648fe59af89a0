package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store stores file content as objects in an S3 (or S3-compatible) bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3Config configures the S3 storage backend. Endpoint is optional and
// enables S3-compatible stores such as MinIO; when set, path-style
// addressing is used. Credentials fall back to the default AWS chain when
// AccessKeyID/SecretAccessKey are empty.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Store creates an S3 storage backend. The bucket must already exist.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	configOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing for MinIO/Localstack compatibility
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// EnsureReady verifies the bucket is reachable.
func (s *S3Store) EnsureReady(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Save uploads data under key with a single PutObject.
func (s *S3Store) Save(ctx context.Context, key string, data io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, data)
	if err != nil {
		return 0, fmt.Errorf("failed to read content: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put object: %w", err)
	}
	return n, nil
}

// Read downloads the object stored under key, or returns ErrBlobNotFound.
func (s *S3Store) Read(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// Delete removes the object stored under key. S3 treats deleting a missing
// object as success, matching the filesystem backend.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *S3Store) objectKey(key string) string {
	return s.keyPrefix + key
}
