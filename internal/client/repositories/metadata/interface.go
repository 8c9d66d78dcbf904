package metadata

import "context"

// Repository is a small key/value store for client state: token pair,
// sync cursors, last restore time.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
