package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var ErrLockPoisoned = errors.New("repository: post store lock poisoned by an earlier panic")

// Guard is the single coarse lock in front of a PostDb.
// A panic inside a critical section poisons the guard; every later Do fails
// with ErrLockPoisoned since the PostDb may have been left half-modified.
type Guard struct {
	sem      *semaphore.Weighted
	db       *PostDb
	poisoned atomic.Bool
}

func NewGuard(db *PostDb) *Guard {
	return &Guard{sem: semaphore.NewWeighted(1), db: db}
}

// Do runs fn with exclusive access to the PostDb.
// It returns an error without calling fn when the lock cannot be acquired,
// either because ctx ended first or because the guard is poisoned.
func (g *Guard) Do(ctx context.Context, fn func(db *PostDb)) (err error) {
	if g.poisoned.Load() {
		return ErrLockPoisoned
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire post store lock: %w", err)
	}
	defer g.sem.Release(1)

	// Checked again: the panicking holder may have finished while we waited.
	if g.poisoned.Load() {
		return ErrLockPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			g.poisoned.Store(true)
			err = fmt.Errorf("%w: %v", ErrLockPoisoned, r)
		}
	}()

	fn(g.db)
	return nil
}

// Poisoned reports whether a critical section has panicked.
func (g *Guard) Poisoned() bool {
	return g.poisoned.Load()
}
