package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/sharebite/sharebite-bot/infrastructure/valkey"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

func TestValkeyCounterStore_FirstHitOwnsExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mock.NewClient(ctrl)
	store := NewValkeyCounterStore(valkey.Wrap(inner, "sharebite"), time.Minute)

	inner.EXPECT().Do(gomock.Any(), mock.Match("INCR", "sharebite:ratelimit:user-1")).
		Return(mock.Result(mock.ValkeyInt64(1)))
	inner.EXPECT().Do(gomock.Any(), mock.Match("EXPIRE", "sharebite:ratelimit:user-1", "60")).
		Return(mock.Result(mock.ValkeyInt64(1)))
	inner.EXPECT().Do(gomock.Any(), mock.Match("TTL", "sharebite:ratelimit:user-1")).
		Return(mock.Result(mock.ValkeyInt64(60)))

	count, resetAt, err := store.Incr(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 2*time.Second)
}

func TestValkeyCounterStore_LaterHitsLeaveExpiryAlone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mock.NewClient(ctrl)
	store := NewValkeyCounterStore(valkey.Wrap(inner, "sharebite"), time.Minute)

	// No EXPIRE expectation: a second hit must not touch the key's TTL.
	inner.EXPECT().Do(gomock.Any(), mock.Match("INCR", "sharebite:ratelimit:user-1")).
		Return(mock.Result(mock.ValkeyInt64(2)))
	inner.EXPECT().Do(gomock.Any(), mock.Match("TTL", "sharebite:ratelimit:user-1")).
		Return(mock.Result(mock.ValkeyInt64(45)))

	count, resetAt, err := store.Incr(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.WithinDuration(t, time.Now().Add(45*time.Second), resetAt, 2*time.Second)
}

func TestValkeyCounterStore_IncrFailureIsStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mock.NewClient(ctrl)
	store := NewValkeyCounterStore(valkey.Wrap(inner, "sharebite"), time.Minute)

	inner.EXPECT().Do(gomock.Any(), mock.Match("INCR", "sharebite:ratelimit:user-1")).
		Return(mock.ErrorResult(errors.New("connection refused")))

	_, _, err := store.Incr(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, pkgError.IsStorage(err))
}
