package portal

import (
	"context"
	"testing"
	"time"

	"github.com/trackside-data/portal.report/internal/timeutil"
)

func TestDemoSourceIntro(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC))
	src := NewDemoSource(clock)
	defer src.Close()

	ctx := context.Background()
	wantChannels := []Channel{ChannelControl, ChannelDetection, ChannelSerial, ChannelIdentity}
	for i, want := range wantChannels {
		n, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		if n.Channel != want {
			t.Errorf("intro step %d channel = %s, want %s", i, n.Channel.Name(), want.Name())
		}
		if n.Time.IsZero() {
			t.Errorf("intro step %d has zero timestamp", i)
		}
	}
}

func TestDemoSourceSpeedPassesArePaced(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC))
	src := NewDemoSource(clock)
	defer src.Close()

	ctx := context.Background()
	for i := 0; i < len(demoIntro); i++ {
		if _, err := src.Next(ctx); err != nil {
			t.Fatalf("intro Next: %v", err)
		}
	}

	done := make(chan Notification, 1)
	go func() {
		n, err := src.Next(ctx)
		if err != nil {
			t.Errorf("speed Next: %v", err)
		}
		done <- n
	}()

	select {
	case <-done:
		t.Fatal("speed pass emitted before the pacing delay")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(2 * time.Second)
	select {
	case n := <-done:
		if n.Channel != ChannelSpeed {
			t.Errorf("channel = %s, want speed", n.Channel.Name())
		}
		if len(n.Payload) != 4 {
			t.Errorf("payload length = %d, want 4", len(n.Payload))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("speed pass never emitted")
	}
}

func TestDemoSourceClose(t *testing.T) {
	clock := timeutil.NewMockClock(time.Now())
	src := NewDemoSource(clock)
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := src.Next(context.Background()); err != ErrClosed {
		t.Errorf("Next after Close = %v, want ErrClosed", err)
	}
}
