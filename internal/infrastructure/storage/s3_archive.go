// Package storage archives finished saga transactions to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultRegion = "us-east-1"

// objectAPI is the subset of *s3.Client used by the archive
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3TransactionArchive writes each finished transaction as one JSON object,
// keyed by start date, job and transaction id
type S3TransactionArchive struct {
	client objectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// Option configures an S3TransactionArchive
type Option func(*S3TransactionArchive)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *S3TransactionArchive) { a.logger = logger }
}

// NewS3TransactionArchive builds an archive from cfg using static credentials
// when given and the default AWS credential chain otherwise
func NewS3TransactionArchive(ctx context.Context, cfg config.AuditConfig, opts ...Option) (*S3TransactionArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("audit archive bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newArchive(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func newArchive(client objectAPI, bucket, prefix string, opts ...Option) *S3TransactionArchive {
	a := &S3TransactionArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EnsureBucket creates the bucket when it does not exist
func (a *S3TransactionArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}

	a.logger.Info("Creating audit archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Archive implements batch.TransactionArchive
func (a *S3TransactionArchive) Archive(ctx context.Context, tx *batch.SagaTransaction) error {
	body, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.TransactionID, err)
	}
	key := a.Key(tx)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"job-id": tx.JobID,
			"status": string(tx.Status),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Debug("Saga transaction archived",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
	)
	return nil
}

// Key returns the object key of tx
func (a *S3TransactionArchive) Key(tx *batch.SagaTransaction) string {
	return path.Join(a.prefix,
		tx.StartedAt.UTC().Format("2006/01/02"),
		tx.JobID,
		tx.TransactionID+".json",
	)
}

var _ batch.TransactionArchive = (*S3TransactionArchive)(nil)
