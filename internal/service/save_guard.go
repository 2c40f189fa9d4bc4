package service

import (
	"context"
	"sync"
)

// saveGuard allows one document write per book at a time and lets shutdown
// wait for writes already in progress.
type saveGuard struct {
	mu      sync.Mutex
	writing map[string]struct{}
	wg      sync.WaitGroup
}

// Acquire marks bookID as being written. It reports false if a write of the
// same book is already running.
func (g *saveGuard) Acquire(bookID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writing == nil {
		g.writing = make(map[string]struct{})
	}
	if _, busy := g.writing[bookID]; busy {
		return false
	}
	g.writing[bookID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Release ends a write started by a successful Acquire.
func (g *saveGuard) Release(bookID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.writing[bookID]; !busy {
		return
	}
	delete(g.writing, bookID)
	g.wg.Done()
}

// Busy reports whether bookID is being written.
func (g *saveGuard) Busy(bookID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.writing[bookID]
	return busy
}

// Wait blocks until every running write has been released or ctx is done.
func (g *saveGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
