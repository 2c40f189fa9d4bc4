package service

import (
	"context"
	"testing"
	"time"
)

// ─────────────────────────────────────────────────────────────
// saveGuard tests
// ─────────────────────────────────────────────────────────────

func TestSaveGuard_OneWritePerBook(t *testing.T) {
	var g saveGuard

	if !g.Acquire("book-1") {
		t.Fatal("expected first Acquire to succeed")
	}
	if g.Acquire("book-1") {
		t.Fatal("expected second Acquire of the same book to fail")
	}
	if !g.Acquire("book-2") {
		t.Fatal("expected Acquire of another book to succeed")
	}
	if !g.Busy("book-1") {
		t.Error("book-1 should be busy")
	}
	g.Release("book-1")
	g.Release("book-2")

	if g.Busy("book-1") {
		t.Error("book-1 should be free after Release")
	}
	if !g.Acquire("book-1") {
		t.Fatal("expected Acquire to succeed after Release")
	}
	g.Release("book-1")
}

func TestSaveGuard_ReleaseUnknownIsNoop(t *testing.T) {
	var g saveGuard
	g.Release("never-acquired")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g.Wait(ctx)
	if ctx.Err() != nil {
		t.Fatal("Wait should return at once with nothing running")
	}
}

func TestSaveGuard_WaitForRunningWrites(t *testing.T) {
	var g saveGuard
	if !g.Acquire("book-a") {
		t.Fatal("expected Acquire to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.Wait(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	g.Release("book-a")

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Wait did not return")
	}
}
