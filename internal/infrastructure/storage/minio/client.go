// Package minio stores resume files and generated report documents in
// S3-compatible object storage.  Buckets are created on startup if missing;
// object keys are owned by the callers (profiles/<id>/resume, reports/<path>).
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/relayops/leadtrack/internal/config"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// MinIOAPI is the slice of the minio-go client this package calls, split out
// so the repository tests can fake the backend.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

const connectTimeout = 10 * time.Second

// Client wraps the minio SDK with this deployment's bucket layout.
type Client struct {
	api    MinIOAPI
	cfg    config.MinIOConfig
	logger logging.Logger
}

// NewClient connects to the object store, verifies reachability and makes
// sure both buckets exist.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := api.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal,
			fmt.Sprintf("failed to connect to object storage at %s", cfg.Endpoint))
	}

	c := &Client{
		api:    api,
		cfg:    cfg,
		logger: log,
	}

	if err := c.EnsureBuckets(ctx); err != nil {
		return nil, err
	}

	log.Info("Object storage connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("resume_bucket", cfg.ResumeBucket),
		logging.String("report_bucket", cfg.ReportBucket),
	)
	return c, nil
}

// EnsureBuckets creates the resume and report buckets if they do not exist.
func (c *Client) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{c.cfg.ResumeBucket, c.cfg.ReportBucket} {
		exists, err := c.api.BucketExists(ctx, bucket)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to check bucket existence")
		}
		if !exists {
			if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal,
					fmt.Sprintf("failed to create bucket %s", bucket))
			}
			c.logger.Info("Created bucket", logging.String("bucket", bucket))
		}
	}
	return nil
}

// GetClient exposes the underlying API for the repository.
func (c *Client) GetClient() MinIOAPI {
	return c.api
}

// ResumeBucket is where profile resume files live.
func (c *Client) ResumeBucket() string {
	return c.cfg.ResumeBucket
}

// ReportBucket is where generated report documents live.
func (c *Client) ReportBucket() string {
	return c.cfg.ReportBucket
}

// MaxResumeSize is the upload size cap for resume files, in bytes.
func (c *Client) MaxResumeSize() int64 {
	return c.cfg.MaxResumeSize
}

// HealthCheck verifies the store is reachable and both buckets still exist.
// Used by the readiness probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "object storage unreachable")
	}
	for _, bucket := range []string{c.cfg.ResumeBucket, c.cfg.ReportBucket} {
		exists, err := c.api.BucketExists(ctx, bucket)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to check bucket existence")
		}
		if !exists {
			return errors.Newf(errors.ErrCodeInternal, "bucket %s missing", bucket)
		}
	}
	return nil
}
