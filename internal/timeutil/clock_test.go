package timeutil

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	d := clock.Since(past)

	if d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_Now(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	if got := clock.Now(); !got.Equal(base) {
		t.Errorf("Now() = %v, expected %v", got, base)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	clock.Advance(90 * time.Second)
	want := base.Add(90 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("after Advance, Now() = %v, expected %v", got, want)
	}

	reset := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(reset)
	if got := clock.Now(); !got.Equal(reset) {
		t.Errorf("after Set, Now() = %v, expected %v", got, reset)
	}
}

func TestMockClock_Since(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	start := base.Add(-42 * time.Minute)
	if d := clock.Since(start); d != 42*time.Minute {
		t.Errorf("Since() = %v, expected 42m", d)
	}
}

func TestMockClock_Concurrent(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			_ = clock.Now()
		}()
	}
	wg.Wait()

	want := time.Unix(0, 0).Add(10 * time.Millisecond)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, expected %v", got, want)
	}
}
