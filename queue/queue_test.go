package queue

import (
	"context"
	"testing"
	"time"

	"github.com/jasonmartens/flowgger/event"
	"github.com/stretchr/testify/require"
)

func TestEnqueueBlocksWhenFull(t *testing.T) {
	q := New(2)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, event.New(1, "h")))
	require.NoError(t, q.Enqueue(ctx, event.New(2, "h")))

	blocked := make(chan error, 1)
	go func() {
		blocked <- q.Enqueue(ctx, event.New(3, "h"))
	}()

	select {
	case <-blocked:
		t.Fatal("Enqueue should have blocked on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	ev, ok := q.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, int64(1), ev.Timestamp)

	select {
	case err := <-blocked:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not unblock after a Dequeue")
	}
}

func TestEnqueueRespectsContextCancellation(t *testing.T) {
	q := New(1)
	require.NoError(t, q.Enqueue(context.Background(), event.New(1, "h")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Enqueue(ctx, event.New(2, "h"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDrainDiscardsBufferedEvents(t *testing.T) {
	q := New(4)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, event.New(1, "h")))
	require.NoError(t, q.Enqueue(ctx, event.New(2, "h")))

	require.Equal(t, 2, q.Drain())
	require.Equal(t, 0, q.Len())
}
