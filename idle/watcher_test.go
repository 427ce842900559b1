package idle

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitForFire(t *testing.T, fired *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fired.Load() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("onIdle count: got=%d want=%d", fired.Load(), want)
}

func TestFiresAfterTimeout(t *testing.T) {
	var fired atomic.Int32
	w := NewWatcher(20*time.Millisecond, func() { fired.Add(1) }, nil)
	w.Start()
	waitForFire(t, &fired, 1)

	// Fires at most once per Start.
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("onIdle fired %d times", got)
	}
}

func TestTouchPushesDeadlineOut(t *testing.T) {
	var fired atomic.Int32
	w := NewWatcher(60*time.Millisecond, func() { fired.Add(1) }, nil)
	w.Start()

	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		w.Touch()
	}
	if got := fired.Load(); got != 0 {
		t.Fatal("fired despite activity")
	}
	waitForFire(t, &fired, 1)
}

func TestStopPreventsFiring(t *testing.T) {
	var fired atomic.Int32
	w := NewWatcher(20*time.Millisecond, func() { fired.Add(1) }, nil)
	w.Start()
	w.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatal("fired after Stop")
	}
	// Touch after Stop stays inert.
	w.Touch()
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatal("Touch after Stop rearmed the watcher")
	}
}

func TestZeroTimeoutDisablesWatcher(t *testing.T) {
	var fired atomic.Int32
	w := NewWatcher(0, func() { fired.Add(1) }, nil)
	w.Start()
	w.Touch()
	time.Sleep(30 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatal("disabled watcher fired")
	}
}
