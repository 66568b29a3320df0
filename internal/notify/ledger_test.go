package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"workforce-service/internal/models"
)

func TestShouldDisplayAtMostOnce(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(ctx, nil, nil, nil)
	n := models.Notification{ID: "n-1", Message: "hello"}

	assert.True(t, l.ShouldDisplay(ctx, n))
	for i := 0; i < 5; i++ {
		assert.False(t, l.ShouldDisplay(ctx, n))
	}
	assert.True(t, l.Displayed("n-1"))
}

func TestShouldDisplayConcurrent(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(ctx, nil, nil, nil)
	n := models.Notification{ID: "n-1"}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.ShouldDisplay(ctx, n) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestShouldDisplayWithoutID(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(ctx, nil, nil, nil)

	assert.True(t, l.ShouldDisplay(ctx, models.Notification{Message: "x"}))
	assert.True(t, l.ShouldDisplay(ctx, models.Notification{Message: "x"}))
}

func TestAcknowledgeOnceAndNotRetried(t *testing.T) {
	ctx := context.Background()
	acker := &ackRecorder{fail: true}
	l := NewLedger(ctx, acker, nil, nil)

	l.Acknowledge(ctx, "n-1")
	l.Acknowledge(ctx, "n-1")
	assert.Equal(t, []string{"n-1"}, acker.calls())
}

func TestClearResetsDisplayedSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := NewLedger(ctx, nil, store, nil)
	n := models.Notification{ID: "n-1"}

	assert.True(t, l.ShouldDisplay(ctx, n))
	l.Clear(ctx)
	assert.True(t, l.ShouldDisplay(ctx, n))

	ids, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"n-1"}, ids)
}

func TestLedgerLoadsPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := NewLedger(ctx, nil, store, nil)
	assert.True(t, first.ShouldDisplay(ctx, models.Notification{ID: "n-1"}))

	second := NewLedger(ctx, nil, store, nil)
	assert.False(t, second.ShouldDisplay(ctx, models.Notification{ID: "n-1"}))
	assert.True(t, second.ShouldDisplay(ctx, models.Notification{ID: "n-2"}))
}
