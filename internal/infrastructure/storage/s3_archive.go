// Package storage archives generated narratives in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"go.uber.org/zap"
)

const archivePrefix = "narratives"

// S3Archive writes narratives as JSON objects
type S3Archive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Archive creates an archive for cfg. It returns nil when no bucket is
// configured; a nil *S3Archive ignores writes.
func NewS3Archive(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &S3Archive{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Key returns the object key of n: narratives/<month>/<id>.json
func Key(n *report.Narrative) string {
	return path.Join(archivePrefix, n.Month, n.ID+".json")
}

// Put stores n under Key(n)
func (a *S3Archive) Put(ctx context.Context, n *report.Narrative) error {
	if a == nil {
		return nil
	}
	if n.ID == "" || n.Month == "" {
		return errors.New("narrative needs an id and a month to be archived")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode narrative: %w", err)
	}

	key := Key(n)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive narrative %s: %w", key, err)
	}

	a.logger.Debug("Narrative archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

// EnsureBucket creates the bucket when it does not exist
func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	if a == nil {
		return nil
	}
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}

	a.logger.Info("Creating narrative archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Bucket returns the bucket name
func (a *S3Archive) Bucket() string {
	return a.bucket
}
