package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edura-Academy/edura-sub002/internal/models"
)

// fetchScript returns one prepared batch per call and records the cursor it
// was asked for.
type fetchScript struct {
	mu      sync.Mutex
	batches [][]models.Message
	errs    []error
	cursors []int64
}

func (f *fetchScript) fetch(ctx context.Context, afterSeq int64) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, afterSeq)
	call := len(f.cursors) - 1
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.batches) {
		return f.batches[call], nil
	}
	return nil, nil
}

func (f *fetchScript) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

func (f *fetchScript) cursorAt(i int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursors[i]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestPollerMergesBatchesAndAdvancesCursor(t *testing.T) {
	script := &fetchScript{batches: [][]models.Message{
		{msg(1, "a"), msg(2, "b")},
		{msg(3, "c")},
	}}

	var notified []View
	var notifyMu sync.Mutex
	poller := NewPoller(10*time.Millisecond, View{}, script.fetch, func(v View) {
		notifyMu.Lock()
		notified = append(notified, v)
		notifyMu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return script.calls() >= 3 })
	cancel()
	<-done

	view := poller.View()
	require.Len(t, view.Messages, 3)
	assert.Equal(t, int64(3), view.Cursor)

	// Second fetch must have used the cursor advanced by the first batch.
	assert.Equal(t, int64(0), script.cursorAt(0))
	assert.Equal(t, int64(2), script.cursorAt(1))

	notifyMu.Lock()
	defer notifyMu.Unlock()
	require.Len(t, notified, 2)
	assert.Equal(t, int64(3), notified[1].Cursor)
}

func TestPollerFailedTickLeavesStateUntouched(t *testing.T) {
	script := &fetchScript{
		batches: [][]models.Message{nil, {msg(1, "a")}},
		errs:    []error{errors.New("store down"), nil},
	}

	poller := NewPoller(10*time.Millisecond, View{}, script.fetch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return script.calls() >= 2 })
	cancel()
	<-done

	// The failed first tick did not advance the cursor: the second fetch
	// retried with the same position and its batch was merged normally.
	assert.Equal(t, int64(0), script.cursorAt(0))
	assert.Equal(t, int64(0), script.cursorAt(1))
	view := poller.View()
	require.Len(t, view.Messages, 1)
	assert.Equal(t, int64(1), view.Cursor)
}

func TestPollerStopsOnCancel(t *testing.T) {
	script := &fetchScript{}
	poller := NewPoller(5*time.Millisecond, View{}, script.fetch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return script.calls() >= 1 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	calls := script.calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, script.calls())
}

func TestPollerSeededFromHistoryLoad(t *testing.T) {
	seed := View{Messages: []models.Message{msg(1, "a"), msg(2, "b")}, Cursor: 2}
	script := &fetchScript{batches: [][]models.Message{{msg(3, "c")}}}

	poller := NewPoller(10*time.Millisecond, seed, script.fetch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return script.calls() >= 1 })
	cancel()
	<-done

	assert.Equal(t, int64(2), script.cursorAt(0))
}
