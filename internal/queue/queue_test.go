package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/writerslogic/stenod/internal/chord"
)

func mustChord(t *testing.T, s string) chord.Chord {
	t.Helper()
	c, err := chord.Parse(s)
	require.NoError(t, err)
	return c
}

func TestPushPopIsFIFO(t *testing.T) {
	q := NewChord(4)
	ctx := context.Background()

	for _, s := range []string{"S", "T", "K"} {
		require.True(t, q.Push(ctx, mustChord(t, s)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"S", "T", "K"} {
		got, ok := q.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, mustChord(t, want), got)
	}
}

func TestPushBlocksWhenFull(t *testing.T) {
	q := NewChord(1)
	ctx := context.Background()
	require.True(t, q.Push(ctx, mustChord(t, "S")))

	done := make(chan bool, 1)
	go func() { done <- q.Push(ctx, mustChord(t, "T")) }()

	select {
	case <-done:
		t.Fatal("Push on a full queue returned before a Pop made room")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok := q.Pop(ctx)
	require.True(t, ok)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Push never unblocked after Pop made room")
	}
}

func TestTryPopOnEmptyIsFalse(t *testing.T) {
	q := NewChord(4)
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestTryPushOnFullIsFalse(t *testing.T) {
	q := NewChord(1)
	assert.True(t, q.TryPush(mustChord(t, "S")))
	assert.False(t, q.TryPush(mustChord(t, "T")))
}

func TestCloseUnblocksPendingPop(t *testing.T) {
	q := NewChord(4)
	ctx := context.Background()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()

	select {
	case <-done:
		t.Fatal("Pop on an empty queue returned before Close")
	case <-time.After(20 * time.Millisecond):
	}

	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked after Close")
	}
}

func TestCloseDrainsBeforeReturningFalse(t *testing.T) {
	q := NewChord(4)
	ctx := context.Background()
	require.True(t, q.Push(ctx, mustChord(t, "S")))
	q.Close()

	got, ok := q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, mustChord(t, "S"), got)

	_, ok = q.Pop(ctx)
	assert.False(t, ok)
}

func TestPushAfterCloseIsFalse(t *testing.T) {
	q := NewChord(4)
	q.Close()
	assert.False(t, q.Push(context.Background(), mustChord(t, "S")))
}

func TestPopRespectsContextCancellation(t *testing.T) {
	q := NewChord(4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked after context cancellation")
	}
}
