package session

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	locks := newKeyedLock()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("iv-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most 1 holder for the same key, got %d", maxActive)
	}
}

func TestKeyedLock_DifferentKeysRunInParallel(t *testing.T) {
	locks := newKeyedLock()

	unlockA := locks.Lock("iv-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("iv-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedLock_ReleasesEntries(t *testing.T) {
	locks := newKeyedLock()

	unlock := locks.Lock("iv-1")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Fatalf("expected empty lock table, got %d entries", len(locks.locks))
	}
}
