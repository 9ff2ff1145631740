//go:build integration

package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takaful/pkg/platform/sentinel"
	"takaful/pkg/testutil/containers"
)

func TestRedisStoreChallengeLifecycle(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()
	const phone = "+966500000001"

	_, err := store.LoadCode(ctx, phone)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.SaveCode(ctx, phone, "hash-1", time.Minute))
	hash, err := store.LoadCode(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)

	n, err := store.CountAttempt(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = store.CountAttempt(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A fresh code resets the attempt counter.
	require.NoError(t, store.SaveCode(ctx, phone, "hash-2", time.Minute))
	n, err = store.CountAttempt(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Clear(ctx, phone))
	_, err = store.LoadCode(ctx, phone)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreCodeExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()
	const phone = "+966500000002"

	require.NoError(t, store.SaveCode(ctx, phone, "hash", 200*time.Millisecond))
	time.Sleep(400 * time.Millisecond)

	_, err := store.LoadCode(ctx, phone)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreResendThrottle(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()
	const phone = "+966500000003"

	allowed, err := store.MarkSent(ctx, phone, 300*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.MarkSent(ctx, phone, 300*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed, "second send inside the window is throttled")

	time.Sleep(500 * time.Millisecond)
	allowed, err = store.MarkSent(ctx, phone, 300*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}
