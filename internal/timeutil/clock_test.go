package timeutil

import (
	"testing"
	"time"
)

func TestMockClockNowAndSet(t *testing.T) {
	start := time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now = %v, want %v", c.Now(), start)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Now after Set = %v, want %v", c.Now(), later)
	}
	if got := c.Since(start); got != time.Hour {
		t.Errorf("Since = %v, want 1h", got)
	}
}

func TestMockClockTimerFires(t *testing.T) {
	c := NewMockClock(time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC))
	timer := c.NewTimer(5 * time.Second)

	c.Advance(4 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at its deadline")
	}

	// a fired timer does not fire again
	c.Advance(10 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired twice")
	default:
	}
}

func TestMockClockTimerStop(t *testing.T) {
	c := NewMockClock(time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC))
	timer := c.NewTimer(time.Second)

	if !timer.Stop() {
		t.Error("Stop on an active timer returned false")
	}
	c.Advance(5 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
	if timer.Stop() {
		t.Error("second Stop returned true")
	}
}

func TestMockClockAfter(t *testing.T) {
	c := NewMockClock(time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC))
	ch := c.After(2 * time.Second)

	c.Advance(2 * time.Second)
	select {
	case <-ch:
	default:
		t.Fatal("After channel did not deliver")
	}
}

func TestMockClockTickerRepeats(t *testing.T) {
	c := NewMockClock(time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC))
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		c.Advance(time.Second)
		select {
		case <-ticker.C():
		default:
			t.Fatalf("tick %d not delivered", i+1)
		}
	}

	ticker.Stop()
	c.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker ticked")
	default:
	}
}

func TestRealClock(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Errorf("Now = %v is before %v", now, before)
	}

	timer := c.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(2 * time.Second):
		t.Fatal("real timer never fired")
	}

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(2 * time.Second):
		t.Fatal("real ticker never ticked")
	}
}
