package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/vault-autounseal/interfaces"
)

// S3Store implements an object store using Amazon S3 or compatible services.
// Objects are written with server-side encryption since they hold unseal
// material.
type S3Store struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Store creates a new S3 object store.
// If accessKey and secretKey are empty, the SDK default credential chain is
// used, which covers environment variables and instance profiles.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	// Format the URI for tracking
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}

	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		// Custom endpoints (MinIO and friends) usually don't resolve
		// virtual-hosted bucket names.
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	} else {
		log.Debug("No explicit S3 credentials provided, using SDK default credential chain")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves an object from S3 by key.
// Returns ErrObjectNotFound if the object doesn't exist.
func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	objectKey := s.objectKey(key)

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})

	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			s.log.Debug("Object not found in S3",
				slog.String("bucket", s.bucketName),
				slog.String("key", objectKey),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrObjectNotFound
		}

		s.log.Error("Failed to get object from S3",
			slog.String("bucket", s.bucketName),
			slog.String("key", objectKey),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		s.log.Error("Failed to read object body",
			slog.String("bucket", s.bucketName),
			slog.String("key", objectKey),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	s.log.Debug("Fetched object from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", objectKey),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes data to S3 under the given key, overwriting any existing
// object. Objects are written with AES-256 server-side encryption.
func (s *S3Store) Store(ctx context.Context, key string, data []byte) error {
	objectKey := s.objectKey(key)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucketName),
		Key:                  aws.String(objectKey),
		Body:                 bytes.NewReader(data),
		ServerSideEncryption: aws.String("AES256"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}

	s.log.Debug("Stored object in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", objectKey),
		slog.Int("size", len(data)))

	return nil
}

// Exists checks whether an object is present without fetching its body.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	objectKey := s.objectKey(key)

	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})

	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object in S3: %w", err)
	}

	return true, nil
}

// Delete removes an object from S3. Deleting a key that does not exist is
// not an error, matching S3 semantics.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	objectKey := s.objectKey(key)

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	s.log.Debug("Deleted object from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", objectKey))

	return nil
}

// Available checks if the S3 store is accessible by attempting to head the bucket.
func (s *S3Store) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})

	if err != nil {
		s.log.Warn("S3 store unavailable",
			slog.String("bucket", s.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this object store.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this object store.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}

// objectKey prepends the configured prefix to a key.
func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}

	return path.Join(s.prefix, key)
}
