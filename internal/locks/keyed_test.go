package locks

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	km := NewKeyedMutex()

	const workers = 16
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := km.Lock(ctx, "same")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer release()

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
		t.Fatalf("expected one holder at a time, observed %d", maxActive)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	ctx := context.Background()
	km := NewKeyedMutex()

	releaseA, err := km.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := km.Lock(ctx, "b")
		if err != nil {
			t.Errorf("lock b: %v", err)
			return
		}
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on an independent key blocked")
	}
}

func TestKeyedMutexReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	km := NewKeyedMutex()

	release, err := km.Lock(ctx, "once")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	release()
	release()

	again, err := km.Lock(ctx, "once")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestKeyedMutexRespectsCancelledContext(t *testing.T) {
	km := NewKeyedMutex()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := km.Lock(ctx, "cancelled"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSessionLockWithoutSharedLocker(t *testing.T) {
	ctx := context.Background()
	lock := NewSessionLock(nil)

	release, err := lock.Lock(ctx, "sess_1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	release()

	release, err = lock.Lock(ctx, "sess_1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	release()
}
