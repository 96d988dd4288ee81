// Package governor holds the two concurrency bounds shared across one
// search invocation: a global semaphore over all outbound HTTP calls,
// and a lazily-grown, per-tree-level semaphore bounding fan-out.
package governor

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WorkSem bounds the number of in-flight HTTP requests at any one time.
// It satisfies cdb.Semaphore.
type WorkSem struct {
	sem *semaphore.Weighted
}

// NewWorkSem returns a WorkSem with the given capacity.
func NewWorkSem(capacity int) *WorkSem {
	if capacity < 1 {
		capacity = 1
	}
	return &WorkSem{sem: semaphore.NewWeighted(int64(capacity))}
}

// Acquire blocks until a slot is available or ctx is done.
func (w *WorkSem) Acquire(ctx context.Context) error { return w.sem.Acquire(ctx, 1) }

// Release frees the slot acquired by Acquire.
func (w *WorkSem) Release() { w.sem.Release(1) }

// LevelSemaphores is the lazily-grown array of per-level semaphores that
// bound fan-out within the search tree: search() at a given level holds
// levelSem[level] while it spawns and awaits its children, so no single
// level of the tree can explode fan-out across the whole search.
type LevelSemaphores struct {
	mu       sync.Mutex
	capacity int64
	sems     []*semaphore.Weighted
}

// NewLevelSemaphores returns a LevelSemaphores whose slots each have the
// given per-level capacity (conventionally 4x the work semaphore's).
func NewLevelSemaphores(perLevelCapacity int) *LevelSemaphores {
	if perLevelCapacity < 1 {
		perLevelCapacity = 1
	}
	return &LevelSemaphores{capacity: int64(perLevelCapacity)}
}

// getOrInsert returns the semaphore for level, growing the slice under a
// small mutex if this is the first time the level is visited. Once a slot
// exists it is never replaced, so a previously-read pointer stays valid.
func (l *LevelSemaphores) getOrInsert(level int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.sems) <= level {
		l.sems = append(l.sems, semaphore.NewWeighted(l.capacity))
	}
	return l.sems[level]
}

// Acquire blocks until a slot at the given level is available or ctx is done.
func (l *LevelSemaphores) Acquire(ctx context.Context, level int) error {
	return l.getOrInsert(level).Acquire(ctx, 1)
}

// Release frees the slot acquired for the given level.
func (l *LevelSemaphores) Release(level int) {
	l.getOrInsert(level).Release(1)
}
