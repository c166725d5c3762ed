// ABOUTME: Tests for the backoff helper
// ABOUTME: Validates growth, bounds, cap, and jitter behavior

package util

import (
	"testing"
	"time"
)

func TestBackoff_NonPositiveAttempt(t *testing.T) {
	for _, attempt := range []int{0, -1, -50} {
		if got := Backoff(time.Second, attempt); got != 0 {
			t.Errorf("Backoff(1s, %d) = %v, want 0", attempt, got)
		}
	}
}

func TestBackoff_ExponentialGrowth(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 1; attempt <= 5; attempt++ {
		expected := base * time.Duration(1<<uint(attempt))
		lo, hi := expected*3/4, expected*5/4

		got := Backoff(base, attempt)
		if got < lo || got > hi {
			t.Errorf("attempt %d: Backoff = %v, want within [%v, %v]", attempt, got, lo, hi)
		}
	}
}

func TestBackoff_Cap(t *testing.T) {
	// Attempt 100 must not overflow and must respect the 30s cap (+25% jitter).
	maxAllowed := 37500 * time.Millisecond
	for _, attempt := range []int{10, 30, 100} {
		got := Backoff(time.Second, attempt)
		if got < 0 || got > maxAllowed {
			t.Errorf("attempt %d: Backoff = %v, want within [0, %v]", attempt, got, maxAllowed)
		}
	}
}

func TestBackoff_Jitter(t *testing.T) {
	seen := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		seen[Backoff(time.Second, 2)] = true
	}
	if len(seen) == 1 {
		t.Error("jitter should vary results, all 100 samples were identical")
	}
}
