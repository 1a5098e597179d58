package uploads

import (
	"context"

	"github.com/google/uuid"
)

// RedisRepository caches transfer progress so status reads don't hit
// Postgres for every poll. Values are advisory; the durable byte count is
// written at finalization.
type RedisRepository interface {
	SetProgress(ctx context.Context, uploadID uuid.UUID, bytesReceived int64) error
	GetProgress(ctx context.Context, uploadID uuid.UUID) (int64, bool, error)
	DeleteProgress(ctx context.Context, uploadID uuid.UUID) error
}
