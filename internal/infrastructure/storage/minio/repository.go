package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// ErrObjectNotFound is returned when the requested key does not exist in the
// bucket.  Callers translate it into their own domain error (missing resume,
// missing report document).
var ErrObjectNotFound = errors.New(errors.ErrCodeObjectNotFound, "object not found")

// ObjectStorageRepository is the storage surface the services use.  Buckets
// are passed explicitly; the Client knows which bucket holds what.
type ObjectStorageRepository interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Download(ctx context.Context, bucket, objectKey string) (*DownloadResult, error)
	Delete(ctx context.Context, bucket, objectKey string) error
	Exists(ctx context.Context, bucket, objectKey string) (bool, error)
	GetPresignedDownloadURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error)
}

type UploadRequest struct {
	Bucket      string
	ObjectKey   string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type DownloadResult struct {
	Data         []byte
	ContentType  string
	Size         int64
	ETag         string
	LastModified time.Time
}

type minioRepository struct {
	api           MinIOAPI
	presignExpiry time.Duration
	logger        logging.Logger
}

func NewMinIORepository(client *Client, log logging.Logger) ObjectStorageRepository {
	return &minioRepository{
		api:           client.api,
		presignExpiry: client.cfg.PresignExpiry,
		logger:        log,
	}
}

// NewMinIORepositoryWithAPI builds a repository over an arbitrary backend.
// Tests use it to substitute a fake.
func NewMinIORepositoryWithAPI(api MinIOAPI, presignExpiry time.Duration, log logging.Logger) ObjectStorageRepository {
	return &minioRepository{
		api:           api,
		presignExpiry: presignExpiry,
		logger:        log,
	}
}

func (r *minioRepository) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req.Bucket == "" || req.ObjectKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "bucket and object key are required")
	}
	if req.ContentType == "" && len(req.Data) > 0 {
		req.ContentType = http.DetectContentType(req.Data[:min(512, len(req.Data))])
	}

	opts := minio.PutObjectOptions{
		ContentType:  req.ContentType,
		UserMetadata: req.Metadata,
	}

	info, err := r.api.PutObject(ctx, req.Bucket, req.ObjectKey,
		bytes.NewReader(req.Data), int64(len(req.Data)), opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUploadFailed, "upload failed")
	}

	r.logger.Debug("Uploaded object",
		logging.String("bucket", info.Bucket),
		logging.String("key", info.Key),
		logging.Int64("size", info.Size),
	)

	return &UploadResult{
		Bucket:     info.Bucket,
		ObjectKey:  info.Key,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now(),
	}, nil
}

func (r *minioRepository) Download(ctx context.Context, bucket, objectKey string) (*DownloadResult, error) {
	obj, err := r.api.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDownloadFailed, "download failed")
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrap(err, errors.ErrCodeDownloadFailed, "failed to stat object")
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDownloadFailed, "failed to read object")
	}

	return &DownloadResult{
		Data:         data,
		ContentType:  stat.ContentType,
		Size:         stat.Size,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}, nil
}

func (r *minioRepository) Delete(ctx context.Context, bucket, objectKey string) error {
	if err := r.api.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to remove object")
	}
	return nil
}

func (r *minioRepository) Exists(ctx context.Context, bucket, objectKey string) (bool, error) {
	_, err := r.api.StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeInternal, "failed to stat object")
	}
	return true, nil
}

func (r *minioRepository) GetPresignedDownloadURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = r.presignExpiry
	}
	u, err := r.api.PresignedGetObject(ctx, bucket, objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to presign download URL")
	}
	return u.String(), nil
}
