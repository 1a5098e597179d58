package repository

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/uploads"
)

const presignPartExpiry = 60 * time.Minute

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient) uploads.S3Repository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
	}
}

func (a *awsRepository) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	res, err := a.client.CreateMultipartUpload(
		ctx,
		&s3.CreateMultipartUploadInput{
			Bucket:      &bucket,
			Key:         &key,
			ContentType: &contentType,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart upload: %w", err)
	}
	return aws.ToString(res.UploadId), nil
}

func (a *awsRepository) PresignUploadPart(ctx context.Context, bucket, key, multipartID string, partNumber int32) (string, error) {
	req, err := a.preSignClient.PresignUploadPart(
		ctx,
		&s3.UploadPartInput{
			Bucket:     &bucket,
			Key:        &key,
			UploadId:   &multipartID,
			PartNumber: aws.Int32(partNumber),
		},
		s3.WithPresignExpires(presignPartExpiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload part %d: %w", partNumber, err)
	}
	return req.URL, nil
}

func (a *awsRepository) CompleteMultipartUpload(ctx context.Context, bucket, key, multipartID string, parts []models.CompletedPart) error {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	_, err := a.client.CompleteMultipartUpload(
		ctx,
		&s3.CompleteMultipartUploadInput{
			Bucket:   &bucket,
			Key:      &key,
			UploadId: &multipartID,
			MultipartUpload: &types.CompletedMultipartUpload{
				Parts: completed,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to complete multipart upload: %w", err)
	}
	return nil
}

func (a *awsRepository) HeadObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	res, err := a.client.HeadObject(
		ctx,
		&s3.HeadObjectInput{
			Bucket: &bucket,
			Key:    &key,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to head object: %w", err)
	}
	return aws.ToInt64(res.ContentLength), nil
}

func (a *awsRepository) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := a.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &bucket,
			Key:           &key,
			Body:          body,
			ContentLength: &size,
			ContentType:   &contentType,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (a *awsRepository) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	res, err := a.client.GetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return res.Body, nil
}

func (a *awsRepository) RemoveObject(ctx context.Context, bucket, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
