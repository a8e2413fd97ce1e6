package globaltime

import (
	"testing"
	"time"
)

func TestSetMockTime(t *testing.T) {
	pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	SetMockTime(pinned)
	defer ResetTime()

	if got := UTC(); !got.Equal(pinned) || got.Location() != time.UTC {
		t.Fatalf("unexpected UTC time: %v", got)
	}
	if got := Since(pinned.Add(-time.Minute)); got != time.Minute {
		t.Fatalf("unexpected elapsed time: got %v want %v", got, time.Minute)
	}
}
