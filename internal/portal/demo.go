package portal

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/trackside-data/portal.report/internal/timeutil"
)

// demoUID is the NFC UID of the synthetic car.
var demoUID = []byte{0x04, 0xDE, 0xAD, 0xBE, 0xEF, 0x12, 0x34}

// demoSpeeds are raw float values cycled through by the demo source. At the
// default x64 scale these land in the 45-110 scale-mph range a real car
// produces on a loop track.
var demoSpeeds = []float32{0.71, 1.02, 1.33, 0.88, 1.57, 1.19}

// DemoSource synthesizes a plausible portal session without any hardware: a
// car is placed on the portal, identifies itself, and then repeatedly passes
// the speed gate. Useful for development and for exercising the full decode
// path end to end.
type DemoSource struct {
	clock timeutil.Clock

	mu     sync.Mutex
	step   int
	closed bool
}

// NewDemoSource creates a demo source paced by the given clock.
func NewDemoSource(clock timeutil.Clock) *DemoSource {
	return &DemoSource{clock: clock}
}

type demoStep struct {
	channel Channel
	payload []byte
}

var demoIntro = []demoStep{
	{ChannelControl, []byte{0x00, 0xFE, 0x00, 0xFE, 0x02}},
	{ChannelDetection, demoUID},
	{ChannelSerial, []byte("HW-DEMO-0001")},
	{ChannelIdentity, demoIdentityPayload()},
}

func demoIdentityPayload() []byte {
	content := []byte("hotwheels.com/pid.mattel/QUJDRA")
	p := []byte{0xD1, 0x01, byte(1 + len(content)), 'U', 0x04}
	p = append(p, content...)
	// trailing opaque signature block
	p = append(p, 0x5A, 0x5A, 0x5A, 0x5A)
	return p
}

func speedPayload(raw float32) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, math.Float32bits(raw))
	return p
}

// Next emits the scripted intro once, then a speed pass every two seconds.
func (s *DemoSource) Next(ctx context.Context) (Notification, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Notification{}, ErrClosed
	}
	step := s.step
	s.step++
	s.mu.Unlock()

	var n Notification
	if step < len(demoIntro) {
		n = Notification{Channel: demoIntro[step].channel, Payload: demoIntro[step].payload}
	} else {
		raw := demoSpeeds[(step-len(demoIntro))%len(demoSpeeds)]
		n = Notification{Channel: ChannelSpeed, Payload: speedPayload(raw)}

		select {
		case <-ctx.Done():
			return Notification{}, ctx.Err()
		case <-s.clock.After(2 * time.Second):
		}
	}

	n.Time = s.clock.Now()
	return n, nil
}

// Close stops the source.
func (s *DemoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
