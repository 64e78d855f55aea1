package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Queries(t *testing.T) {
	c := NewController(Config{MaxConcurrentQueries: 2})

	// Acquire 2
	require.NoError(t, c.AcquireQuery(context.Background()))
	require.NoError(t, c.AcquireQuery(context.Background()))
	assert.Equal(t, int64(2), c.QueriesInFlight())

	// Try 3rd
	assert.False(t, c.TryAcquireQuery())

	// Acquire 3rd (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireQuery(ctx), context.DeadlineExceeded)

	// Release 1
	c.ReleaseQuery()
	assert.Equal(t, int64(1), c.QueriesInFlight())

	// Try 3rd again
	assert.True(t, c.TryAcquireQuery())
	assert.Equal(t, int64(2), c.QueriesInFlight())
}

func TestController_Unlimited(t *testing.T) {
	c := NewController(Config{})

	for range 100 {
		require.NoError(t, c.AcquireQuery(context.Background()))
	}
	assert.Equal(t, int64(100), c.QueriesInFlight())
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireQuery(context.Background()))
	assert.True(t, c.TryAcquireQuery())
	c.ReleaseQuery()
	assert.Equal(t, int64(0), c.QueriesInFlight())
	assert.Equal(t, Config{}, c.Config())
	require.NoError(t, c.AcquireIO(context.Background(), 10))
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 1000})

	// The initial burst is free.
	start := time.Now()
	require.NoError(t, c.AcquireIO(context.Background(), 1000))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// Bucket is empty now; the next request cannot be served before the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 500))
}

func TestController_IOLargerThanBurst(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 1 << 20})

	// Requests above the burst are split instead of rejected.
	require.NoError(t, c.AcquireIO(context.Background(), (1<<20)+10))
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("snapshot"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "snapshot", buf.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRateLimitedWriter(ctx, &buf, c).Write([]byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitedWriterStopsPartWay(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	n, err := NewRateLimitedWriter(ctx, &buf, c).Write([]byte("abcdefghijkl"))
	require.Error(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", buf.String())
}

func TestRateLimitedWriterUnlimited(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewRateLimitedWriter(context.Background(), &buf, nil).Write(make([]byte, 1<<16))
	require.NoError(t, err)
	assert.Equal(t, 1<<16, n)
	assert.Equal(t, 1<<16, buf.Len())
}
