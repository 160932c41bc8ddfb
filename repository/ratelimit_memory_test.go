package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCounterStore_IncrementsWithinWindow(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore(time.Minute)
	store.now = func() time.Time { return start }

	for want := 1; want <= 3; want++ {
		count, resetAt, err := store.Incr(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Equal(t, want, count)
		assert.Equal(t, start.Add(time.Minute), resetAt)
	}
}

func TestMemoryCounterStore_ResetsAfterWindow(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCounterStore(time.Minute)
	store.now = func() time.Time { return start }

	_, _, _ = store.Incr(context.Background(), "user-1")
	_, _, _ = store.Incr(context.Background(), "user-1")

	store.now = func() time.Time { return start.Add(time.Minute) }
	count, resetAt, err := store.Incr(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, start.Add(2*time.Minute), resetAt)
}

func TestMemoryCounterStore_UsersAreIndependent(t *testing.T) {
	store := NewMemoryCounterStore(time.Minute)

	_, _, _ = store.Incr(context.Background(), "user-1")
	count, _, err := store.Incr(context.Background(), "user-2")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
