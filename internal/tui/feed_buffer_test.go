package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toast/internal/core/notify"
)

func TestFeedBuffer_DrainEmpty(t *testing.T) {
	b := NewFeedBuffer()
	list, ok := b.Drain()
	assert.False(t, ok)
	assert.Nil(t, list)
}

func TestFeedBuffer_CoalescesToNewest(t *testing.T) {
	b := NewFeedBuffer()

	b.Push([]notify.Notification{sticky("a")})
	b.Push([]notify.Notification{sticky("a"), sticky("b")})

	list, ok := b.Drain()
	require.True(t, ok)
	assert.Len(t, list, 2)

	_, ok = b.Drain()
	assert.False(t, ok, "drain clears the pending flag")
}

func TestFeedBuffer_EmptyListIsStillDelivered(t *testing.T) {
	b := NewFeedBuffer()
	b.Push(nil)

	list, ok := b.Drain()
	assert.True(t, ok)
	assert.Empty(t, list)
}

func TestFeedBuffer_WaitForSignal(t *testing.T) {
	b := NewFeedBuffer()
	cmd := b.WaitForSignal()

	got := make(chan any, 1)
	go func() { got <- cmd() }()

	b.Push([]notify.Notification{sticky("a")})

	select {
	case msg := <-got:
		feed, ok := msg.(feedMsg)
		require.True(t, ok)
		assert.Len(t, feed, 1)
	case <-time.After(time.Second):
		t.Fatal("WaitForSignal did not return")
	}
}

func TestFeedBuffer_PushNeverBlocks(t *testing.T) {
	b := NewFeedBuffer()
	done := make(chan struct{})
	go func() {
		for range 100 {
			b.Push(nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push blocked without a reader")
	}
}
