// Package idempotency records keys of operations that have already been
// carried out, so that retried requests are not applied twice.
package idempotency

import (
	"context"
	"time"
)

type Repository interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Record stores key. A key recorded before yields common.ErrAlreadyExists.
	Record(ctx context.Context, key string, at time.Time) error
}
