// Package prefs persists per-device preferences in the local sqlite store.
// Values are independent key/value entries: no transactional grouping, no
// versioning, last writer wins.
package prefs

import "context"

type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
