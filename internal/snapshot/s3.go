package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"kbwatch/internal/watch"
)

// S3StoreConfig holds configuration for S3Store.
type S3StoreConfig struct {
	Bucket          string
	Prefix          string // optional key prefix, e.g. "snapshots/"
	Region          string
	Endpoint        string // optional custom endpoint (for MinIO, LocalStack, etc.)
	AccessKeyID     string // optional; default credential chain when empty
	SecretAccessKey string
}

// S3Store writes snapshots as S3 objects named by source identifier and
// capture timestamp. Existing objects are never overwritten.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed snapshot store.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Put uploads content as a new snapshot object and returns its metadata.
// Refuses to clobber an existing capture: snapshots are append-only.
func (s *S3Store) Put(ctx context.Context, sourceID string, content []byte, capturedAt time.Time) (*watch.SnapshotMetadata, error) {
	key := s.prefix + watch.SnapshotName(sourceID, capturedAt)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return nil, fmt.Errorf("snapshot already exists: s3://%s/%s", s.bucket, key)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put failed: %w", err)
	}

	return &watch.SnapshotMetadata{
		SourceID:    sourceID,
		Path:        fmt.Sprintf("s3://%s/%s", s.bucket, key),
		ContentHash: watch.HashContent(content),
		ByteSize:    int64(len(content)),
		CapturedAt:  capturedAt.UTC(),
	}, nil
}

// Compile-time check that S3Store implements watch.SnapshotStore
var _ watch.SnapshotStore = (*S3Store)(nil)
