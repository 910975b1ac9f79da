package braindump

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTimeoutTrackerProgressesThroughStates(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTimeoutTracker(30*time.Second, 2*time.Minute, clock.Now)

	if got := tr.State(); got != TimeoutRunning {
		t.Fatalf("initial state = %q, want %q", got, TimeoutRunning)
	}

	clock.Advance(29 * time.Second)
	if got := tr.State(); got != TimeoutRunning {
		t.Fatalf("state before soft threshold = %q, want %q", got, TimeoutRunning)
	}

	clock.Advance(1 * time.Second)
	if got := tr.State(); got != TimeoutDegraded {
		t.Fatalf("state at soft threshold = %q, want %q", got, TimeoutDegraded)
	}

	clock.Advance(89 * time.Second)
	if got := tr.State(); got != TimeoutDegraded {
		t.Fatalf("state before hard ceiling = %q, want %q", got, TimeoutDegraded)
	}

	clock.Advance(1 * time.Second)
	if got := tr.State(); got != TimeoutForced {
		t.Fatalf("state at hard ceiling = %q, want %q", got, TimeoutForced)
	}
}

func TestTimeoutTrackerRemaining(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTimeoutTracker(30*time.Second, 2*time.Minute, clock.Now)

	if got := tr.SoftRemaining(); got != 30*time.Second {
		t.Fatalf("SoftRemaining = %v, want %v", got, 30*time.Second)
	}
	if got := tr.HardRemaining(); got != 2*time.Minute {
		t.Fatalf("HardRemaining = %v, want %v", got, 2*time.Minute)
	}

	clock.Advance(45 * time.Second)
	if got := tr.SoftRemaining(); got != 0 {
		t.Fatalf("SoftRemaining past threshold = %v, want 0", got)
	}
	if got := tr.HardRemaining(); got != 75*time.Second {
		t.Fatalf("HardRemaining = %v, want %v", got, 75*time.Second)
	}
}

func TestTimeoutTrackerDefaults(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTimeoutTracker(0, 0, clock.Now)

	if got := tr.SoftRemaining(); got != 30*time.Second {
		t.Fatalf("default soft = %v, want 30s", got)
	}
	if got := tr.HardRemaining(); got != 2*time.Minute {
		t.Fatalf("default hard = %v, want 2m", got)
	}

	// 硬上限不得低于软阈值
	tr = NewTimeoutTracker(time.Minute, 10*time.Second, clock.Now)
	if got := tr.HardRemaining(); got != 4*time.Minute {
		t.Fatalf("hard below soft = %v, want %v", got, 4*time.Minute)
	}
}
