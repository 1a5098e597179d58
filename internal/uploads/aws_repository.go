package uploads

import (
	"context"
	"io"

	"github.com/castforge/studio-backend/internal/models"
)

// S3Repository is the object-storage surface the pipeline relies on:
// multipart session management plus plain object I/O.
type S3Repository interface {
	CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, bucket, key, multipartID string, partNumber int32) (string, error)
	// CompleteMultipartUpload requires parts in ascending part-number
	// order; callers sort before invoking.
	CompleteMultipartUpload(ctx context.Context, bucket, key, multipartID string, parts []models.CompletedPart) error
	HeadObjectSize(ctx context.Context, bucket, key string) (int64, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string) error
}
