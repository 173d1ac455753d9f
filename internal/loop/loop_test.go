package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPost_RunsInOrder(t *testing.T) {
	l := New()
	var got []int
	for i := range 5 {
		l.Post(func() { got = append(got, i) })
	}

	require.NoError(t, l.RunUntilIdle(testContext(t)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.False(t, l.Busy())
}

func TestPost_FromPostedFunction(t *testing.T) {
	l := New()
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})

	require.NoError(t, l.RunUntilIdle(testContext(t)))
	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestAddIdle_RunsUntilDone(t *testing.T) {
	l := New()
	calls := 0
	l.AddIdle(func() Status {
		calls++
		if calls == 3 {
			return Done
		}
		return Again
	})

	require.NoError(t, l.RunUntilIdle(testContext(t)))
	assert.Equal(t, 3, calls)
	assert.False(t, l.Busy())
}

func TestIterate_ReportsWork(t *testing.T) {
	l := New()
	assert.False(t, l.Iterate())

	l.AddIdle(func() Status { return Pending })
	assert.False(t, l.Iterate())
	assert.True(t, l.Busy())

	l.Post(func() {})
	assert.True(t, l.Iterate())
}

func TestRunUntilIdle_WaitsForWake(t *testing.T) {
	l := New()

	var mu sync.Mutex
	ready := false
	l.AddIdle(func() Status {
		mu.Lock()
		defer mu.Unlock()
		if ready {
			return Done
		}
		return Pending
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		ready = true
		mu.Unlock()
		l.Wake()
	}()

	require.NoError(t, l.RunUntilIdle(testContext(t)))
	assert.False(t, l.Busy())
}

func TestRun_StopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("posted function did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunUntilIdle_Cancelled(t *testing.T) {
	l := New()
	l.AddIdle(func() Status { return Pending })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.RunUntilIdle(ctx), context.Canceled)
}
