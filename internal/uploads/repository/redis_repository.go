package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/castforge/studio-backend/internal/uploads"
)

const (
	progressKeyPrefix = "upload:progress:"
	progressTTL       = 24 * time.Hour
)

type uploadRedisRepo struct {
	redisClient *redis.Client
}

func NewUploadRedisRepo(redisClient *redis.Client) uploads.RedisRepository {
	return &uploadRedisRepo{
		redisClient: redisClient,
	}
}

func (r *uploadRedisRepo) SetProgress(ctx context.Context, uploadID uuid.UUID, bytesReceived int64) error {
	if err := r.redisClient.Set(ctx, progressKeyPrefix+uploadID.String(), bytesReceived, progressTTL).Err(); err != nil {
		return fmt.Errorf("failed to set upload progress: %w", err)
	}
	return nil
}

func (r *uploadRedisRepo) GetProgress(ctx context.Context, uploadID uuid.UUID) (int64, bool, error) {
	bytesReceived, err := r.redisClient.Get(ctx, progressKeyPrefix+uploadID.String()).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get upload progress: %w", err)
	}
	return bytesReceived, true, nil
}

func (r *uploadRedisRepo) DeleteProgress(ctx context.Context, uploadID uuid.UUID) error {
	if err := r.redisClient.Del(ctx, progressKeyPrefix+uploadID.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete upload progress: %w", err)
	}
	return nil
}
