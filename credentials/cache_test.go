package credentials

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSingleflight(t *testing.T) {
	var fetches atomic.Int32
	release := make(chan struct{})
	p := providerFunc(func(context.Context) (Credentials, error) {
		fetches.Add(1)
		<-release
		return Credentials{AccessKeyID: "AKID", SecretAccessKey: "s"}, nil
	})
	cache := NewCache(p, 0)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]Credentials, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			creds, err := cache.Fetch(context.Background())
			assert.NoError(t, err)
			results[i] = creds
		}(i)
	}

	// let the callers pile up on the shared fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load())
	for _, creds := range results {
		assert.Equal(t, "AKID", creds.AccessKeyID)
	}
}

func TestCacheRefreshesNearExpiry(t *testing.T) {
	var fetches atomic.Int32
	p := providerFunc(func(context.Context) (Credentials, error) {
		n := fetches.Add(1)
		expires := time.Now().Add(time.Minute) // inside the guard window
		if n > 1 {
			expires = time.Now().Add(time.Hour)
		}
		return Credentials{AccessKeyID: "AKID", SecretAccessKey: "s", CanExpire: true, Expires: expires}, nil
	})
	cache := NewCache(p, DefaultExpiryGuard)

	_, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	_, err = cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())

	// fresh credentials are served from the cache
	_, err = cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestCacheErrorNotCached(t *testing.T) {
	var fetches atomic.Int32
	p := providerFunc(func(context.Context) (Credentials, error) {
		if fetches.Add(1) == 1 {
			return Credentials{}, errors.New("transient")
		}
		return Credentials{AccessKeyID: "AKID", SecretAccessKey: "s"}, nil
	})
	cache := NewCache(p, 0)

	_, err := cache.Fetch(context.Background())
	assert.Error(t, err)

	creds, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
}

func TestCacheCallerCancelKeepsFetch(t *testing.T) {
	release := make(chan struct{})
	p := providerFunc(func(context.Context) (Credentials, error) {
		<-release
		return Credentials{AccessKeyID: "AKID", SecretAccessKey: "s"}, nil
	})
	cache := NewCache(p, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// the abandoned fetch still completes and serves the next caller
	close(release)
	creds, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
}
