package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeLoader) load(ctx context.Context) (Board, error) {
	n := f.calls.Add(1)
	if f.fail.Load() {
		return Board{}, errors.New("db down")
	}
	return Board{Total: int(n)}, nil
}

func TestOrderCache_NotReadyBeforeFirstRefresh(t *testing.T) {
	c := NewOrderCache((&fakeLoader{}).load, time.Hour, zap.NewNop())
	_, _, ok := c.Snapshot()
	assert.False(t, ok)
}

func TestOrderCache_RunRefreshesOnStartAndInvalidate(t *testing.T) {
	fl := &fakeLoader{}
	c := NewOrderCache(fl.load, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, _, ok := c.Snapshot()
		return ok
	}, time.Second, 5*time.Millisecond)

	c.Invalidate()
	require.Eventually(t, func() bool { return fl.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	b, builtAt, ok := c.Snapshot()
	assert.True(t, ok)
	assert.False(t, builtAt.IsZero())
	assert.GreaterOrEqual(t, b.Total, 1)

	cancel()
	assert.NoError(t, <-done)
}

func TestOrderCache_TickerRefresh(t *testing.T) {
	fl := &fakeLoader{}
	c := NewOrderCache(fl.load, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return fl.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestOrderCache_FailedRefreshKeepsSnapshot(t *testing.T) {
	fl := &fakeLoader{}
	c := NewOrderCache(fl.load, time.Hour, zap.NewNop())

	require.NoError(t, c.Refresh(context.Background()))
	first, firstAt, _ := c.Snapshot()

	fl.fail.Store(true)
	assert.Error(t, c.Refresh(context.Background()))

	again, againAt, ok := c.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, first.Total, again.Total)
	assert.Equal(t, firstAt, againAt)
}

func TestOrderCache_InvalidateNeverBlocks(t *testing.T) {
	c := NewOrderCache((&fakeLoader{}).load, time.Hour, nil)
	for i := 0; i < 10; i++ {
		c.Invalidate()
	}
	assert.Len(t, c.kick, 1)
}
