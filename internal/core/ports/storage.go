package ports

import "context"

// DocumentStorage fetches uploaded document bytes by key. Implementations
// return domain.ErrNotFound when no object exists under the key.
type DocumentStorage interface {
	FetchByKey(ctx context.Context, key string) ([]byte, error)
}
