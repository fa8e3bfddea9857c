package event

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/saltfishpr/handoff/interrupt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSetIdempotent(t *testing.T) {
	e := New()
	assert.False(t, e.Signaled())
	e.Set()
	e.Set()
	assert.True(t, e.Signaled())
}

func TestWaitSuccess(t *testing.T) {
	e := New()
	go func() {
		time.Sleep(10 * time.Millisecond)
		e.Set()
	}()
	assert.Equal(t, Success, e.Wait(time.Time{}, nil))
}

func TestWaitAlreadySet(t *testing.T) {
	e := New()
	e.Set()
	// Set wins even against an expired deadline.
	assert.Equal(t, Success, e.Wait(time.Now().Add(-time.Second), nil))
}

func TestWaitExpiredDeadline(t *testing.T) {
	e := New()
	assert.Equal(t, Timeout, e.Wait(time.Now().Add(-time.Millisecond), nil))
}

func TestWaitTimeout(t *testing.T) {
	mock := clock.NewMock()
	old := clk
	clk = mock
	defer func() { clk = old }()

	e := New()
	results := make(chan Result, 1)
	go func() {
		results <- e.Wait(mock.Now().Add(time.Minute), nil)
	}()

	// Let the waiter arm its timer before advancing the mock clock.
	time.Sleep(50 * time.Millisecond)
	mock.Add(2 * time.Minute)

	select {
	case r := <-results:
		assert.Equal(t, Timeout, r)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not observe the deadline")
	}
}

func TestWaitInterrupted(t *testing.T) {
	src := interrupt.NewFake()
	e := New()
	results := make(chan Result, 1)
	go func() {
		results <- e.Wait(time.Time{}, src)
	}()

	src.Raise()
	select {
	case r := <-results:
		assert.Equal(t, Interrupted, r)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not observe the interrupt")
	}
	// The pending state is left for the caller to verify.
	assert.True(t, src.Pending())
}

func TestWaitWakesAllWaiters(t *testing.T) {
	const n = 8
	e := New()

	var wg sync.WaitGroup
	results := make(chan Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- e.Wait(time.Time{}, nil)
		}()
	}
	e.Set()
	wg.Wait()
	close(results)

	count := 0
	for r := range results {
		require.Equal(t, Success, r)
		count++
	}
	assert.Equal(t, n, count)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "interrupted", Interrupted.String())
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "result(42)", Result(42).String())
}
