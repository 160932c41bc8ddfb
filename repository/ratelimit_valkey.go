package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sharebite/sharebite-bot/domains/ratelimit"
	"github.com/sharebite/sharebite-bot/infrastructure/valkey"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// ValkeyCounterStore is the shared fast path used when Valkey is enabled.
// Still best-effort: the gorm repository remains the source of truth.
type ValkeyCounterStore struct {
	client *valkey.Client
	window time.Duration
}

var _ ratelimit.ICounterStore = (*ValkeyCounterStore)(nil)

func NewValkeyCounterStore(client *valkey.Client, window time.Duration) *ValkeyCounterStore {
	return &ValkeyCounterStore{client: client, window: window}
}

func (s *ValkeyCounterStore) Incr(ctx context.Context, userID string) (int, time.Time, error) {
	inner := s.client.Inner()
	key := s.client.Key("ratelimit", userID)

	count, err := inner.Do(ctx, inner.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, time.Time{}, pkgError.StorageError(fmt.Sprintf("failed to increment counter for %s: %v", userID, err))
	}

	// First hit of the window owns the expiry.
	if count == 1 {
		seconds := int64(s.window / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		if err := inner.Do(ctx, inner.B().Expire().Key(key).Seconds(seconds).Build()).Error(); err != nil {
			return 0, time.Time{}, pkgError.StorageError(fmt.Sprintf("failed to set counter expiry for %s: %v", userID, err))
		}
	}

	resetAt := time.Now().Add(s.window)
	if ttl, err := inner.Do(ctx, inner.B().Ttl().Key(key).Build()).AsInt64(); err == nil && ttl > 0 {
		resetAt = time.Now().Add(time.Duration(ttl) * time.Second)
	}

	return int(count), resetAt, nil
}
