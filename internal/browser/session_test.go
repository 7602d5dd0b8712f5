package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/centralino/internal/step/steptest"
)

func TestSessionCloseOnce(t *testing.T) {
	var n int
	s := NewSession(&steptest.FakePage{}, func() error {
		n++
		return errors.New("boom")
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.EqualError(t, s.Close(), "boom")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, n)
	assert.True(t, s.Closed())
}

func TestSessionClosesWhenContextEnds(t *testing.T) {
	closed := make(chan struct{})
	s := NewSession(&steptest.FakePage{}, func() error {
		close(closed)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	s.closeWith(ctx)
	cancel()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("session not closed after context cancellation")
	}
	require.NoError(t, s.Close())
}

func TestSessionCloseStopsContextWatch(t *testing.T) {
	var n int
	s := NewSession(&steptest.FakePage{}, func() error {
		n++
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	s.closeWith(ctx)
	require.NoError(t, s.Close())
	cancel()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, n)
}
