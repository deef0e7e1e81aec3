// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	if got := NewFakeClock(time.Time{}).Now(); !got.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("zero initial time should use the reference time, got %v", got)
	}

	initial := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(initial)
	if got := clock.Now(); !got.Equal(initial) {
		t.Errorf("Now() = %v, want %v", got, initial)
	}

	clock.Advance(90 * time.Second)
	if got := clock.Now(); !got.Equal(initial.Add(90 * time.Second)) {
		t.Errorf("Now() after Advance = %v", got)
	}

	later := initial.Add(24 * time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}
