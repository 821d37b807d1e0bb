// Package timeutil provides a Clock abstraction so components that stamp
// records with wall-clock time can be tested deterministically.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the current time. Production code uses RealClock;
// tests substitute a MockClock with a controlled time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the time package.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the elapsed wall-clock time since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock implements Clock with a manually controlled time.
// Safe for concurrent use.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock set to the given time.
func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

// Now returns the mock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Since returns the elapsed mock time since t.
func (m *MockClock) Since(t time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now.Sub(t)
}

// Set moves the mock's current time to the given instant.
func (m *MockClock) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Advance moves the mock's current time forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
