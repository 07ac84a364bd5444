package shutdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownRunsAllHandlers(t *testing.T) {
	m := NewManager()
	var count atomic.Int32
	m.OnShutdown("a", func(context.Context) { count.Add(1) })
	m.OnShutdown("b", func(context.Context) { count.Add(1) })
	m.OnShutdown("nil", nil)

	m.Shutdown(context.Background())
	assert.Equal(t, int32(2), count.Load())
}

func TestShutdownRespectsDeadline(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	defer close(release)
	m.OnShutdown("stuck", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	m.Shutdown(ctx)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForSignalContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, WaitForSignal(ctx))
}
