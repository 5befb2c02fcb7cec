package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	guard := NewGuard(NewPostDb())

	const workers = 50
	ids := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.Do(context.Background(), func(db *PostDb) {
				ids <- db.CreatePost("concurrent").Value
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d handed out twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	require.NoError(t, guard.Do(context.Background(), func(db *PostDb) {
		assert.Equal(t, workers, db.Len())
	}))
}

func TestGuard_PanicPoisons(t *testing.T) {
	guard := NewGuard(NewPostDb())

	err := guard.Do(context.Background(), func(db *PostDb) {
		db.CreatePost("half done")
		panic("boom")
	})
	require.ErrorIs(t, err, ErrLockPoisoned)
	assert.True(t, guard.Poisoned())

	called := false
	err = guard.Do(context.Background(), func(db *PostDb) { called = true })
	assert.ErrorIs(t, err, ErrLockPoisoned)
	assert.False(t, called)
}

func TestGuard_ContextEndsWhileWaiting(t *testing.T) {
	guard := NewGuard(NewPostDb())

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = guard.Do(context.Background(), func(db *PostDb) {
			close(holding)
			<-release
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := guard.Do(ctx, func(db *PostDb) { called = true })
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, called)
	assert.False(t, guard.Poisoned())
}
