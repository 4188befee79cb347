package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	rec, err := store.Get(ctx, "+15550000000")
	require.NoError(t, err)
	assert.Nil(t, rec)

	in := &Record{
		Code:      "4821",
		ExpiresAt: time.Now().Add(10 * time.Minute),
		Attempts:  0,
		LastSent:  time.Now(),
	}
	require.NoError(t, store.Set(ctx, "+15550000000", in))

	out, err := store.Get(ctx, "+15550000000")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Code, out.Code)

	// Mutating the returned record must not change the stored one.
	out.Attempts = 99
	again, err := store.Get(ctx, "+15550000000")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Attempts)

	require.NoError(t, store.Delete(ctx, "+15550000000"))
	gone, err := store.Get(ctx, "+15550000000")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryStoreSetOverwrites(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "+15550000001", &Record{Code: "1111"}))
	require.NoError(t, store.Set(ctx, "+15550000001", &Record{Code: "2222"}))

	rec, err := store.Get(ctx, "+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "2222", rec.Code)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Set(ctx, "expired", &Record{Code: "1111", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Set(ctx, "live", &Record{Code: "2222", ExpiresAt: now.Add(time.Minute)}))

	store.purgeExpired(now)

	rec, err := store.Get(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = store.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreDeleteMissingIsNoop(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()

	assert.NoError(t, store.Delete(context.Background(), "unknown"))
}
