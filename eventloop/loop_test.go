package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startLoop runs l on a background goroutine and returns a join func.
func startLoop(t *testing.T, l *Loop) func() {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- l.Run(context.Background())
	}()
	return func() {
		l.Close()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not stop")
		}
	}
}

func TestLoopRunsTasks(t *testing.T) {
	l := New()
	stop := startLoop(t, l)
	defer stop()

	done := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, l.CallSoonThreadsafe(func() { done <- i }))
	}
	for want := 0; want < 3; want++ {
		select {
		case got := <-done:
			assert.Equal(t, want, got, "tasks run in submission order")
		case <-time.After(5 * time.Second):
			t.Fatal("task did not run")
		}
	}
}

func TestLoopTasksBeforeRun(t *testing.T) {
	l := New()
	ran := make(chan struct{})
	require.NoError(t, l.CallSoonThreadsafe(func() { close(ran) }))

	stop := startLoop(t, l)
	defer stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("pre-run task did not run")
	}
}

func TestLoopCloseRejectsScheduling(t *testing.T) {
	l := New()
	stop := startLoop(t, l)
	stop()

	assert.ErrorIs(t, l.CallSoonThreadsafe(func() {}), ErrClosed)
}

func TestLoopCloseDrainsAcceptedTasks(t *testing.T) {
	l := New()
	ran := make(chan struct{})
	require.NoError(t, l.CallSoonThreadsafe(func() { close(ran) }))
	l.Close()

	require.NoError(t, l.Run(context.Background()))
	select {
	case <-ran:
	default:
		t.Fatal("accepted task was dropped on close")
	}
}

func TestLoopRunTwice(t *testing.T) {
	l := New()
	stop := startLoop(t, l)
	defer stop()

	// Wait for the background Run to win the start race.
	require.Eventually(t, func() bool {
		return l.state.Load() == stateRunning
	}, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, l.Run(context.Background()), ErrRunning)
}

func TestLoopContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not observe context cancellation")
	}
}

func TestLoopTaskPanicDoesNotKillLoop(t *testing.T) {
	l := New()
	stop := startLoop(t, l)
	defer stop()

	require.NoError(t, l.CallSoonThreadsafe(func() { panic("task boom") }))

	ran := make(chan struct{})
	require.NoError(t, l.CallSoonThreadsafe(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("loop died after a panicking task")
	}
}

func TestAwaitable(t *testing.T) {
	t.Run("single assignment", func(t *testing.T) {
		l := New()
		stop := startLoop(t, l)
		defer stop()

		aw := l.CreateAwaitable()
		assert.False(t, aw.Done())
		_, err := aw.Result()
		assert.ErrorIs(t, err, ErrPending)

		assert.True(t, aw.SetResult(1))
		assert.False(t, aw.SetResult(2), "duplicate completion is ignored")
		assert.False(t, aw.SetError(ErrPending))
		assert.False(t, aw.Cancel())

		assert.True(t, aw.Done())
		assert.False(t, aw.Cancelled())
		val, err := aw.Result()
		require.NoError(t, err)
		assert.Equal(t, 1, val)
	})

	t.Run("cancel", func(t *testing.T) {
		l := New()
		stop := startLoop(t, l)
		defer stop()

		aw := l.CreateAwaitable()
		assert.True(t, aw.Cancel())
		assert.True(t, aw.Cancelled())
		_, err := aw.Result()
		assert.ErrorIs(t, err, ErrCancelled)
	})

	t.Run("callbacks run on the loop", func(t *testing.T) {
		l := New()
		stop := startLoop(t, l)
		defer stop()

		aw := l.CreateAwaitable()

		var mu sync.Mutex
		var order []string
		record := func(s string) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, s)
		}

		fired := make(chan struct{}, 2)
		aw.AddDoneCallback(func() {
			record("registered before")
			fired <- struct{}{}
		})
		aw.SetError(assert.AnError)
		aw.AddDoneCallback(func() {
			record("registered after")
			fired <- struct{}{}
		})

		for i := 0; i < 2; i++ {
			select {
			case <-fired:
			case <-time.After(5 * time.Second):
				t.Fatal("awaitable callback did not run")
			}
		}
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"registered before", "registered after"}, order)
	})
}
