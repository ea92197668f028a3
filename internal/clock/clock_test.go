package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	c := NewFakeClock(start)
	if !c.Now().Equal(start) || c.Now().Location() != time.UTC {
		t.Fatalf("expected UTC start, got %v", c.Now())
	}
	c.Advance(90 * time.Minute)
	if got := c.Now().Sub(start); got != 90*time.Minute {
		t.Fatalf("expected 90m advance, got %v", got)
	}
}

func TestSystemClockIsUTC(t *testing.T) {
	if New().Now().Location() != time.UTC {
		t.Fatalf("expected UTC")
	}
}
