package portal

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
)

// Notification is one raw record delivered by the transport: which channel
// it arrived on, the payload bytes, and the arrival timestamp. Notifications
// are transient; nothing downstream retains the payload beyond decode.
type Notification struct {
	Channel Channel
	Payload []byte
	Time    time.Time
}

// String renders the notification in the capture log line format:
// "<HH:MM:SS.mmm> | <channel-name> | <lowercase-hex-payload>".
func (n Notification) String() string {
	return fmt.Sprintf("%s | %s | %s",
		n.Time.Format("15:04:05.000"), n.Channel.Name(), hex.EncodeToString(n.Payload))
}

// Source delivers notifications from a transport. Implementations own the
// underlying link; the rest of the system only ever sees this interface.
// Ordering is guaranteed only within a single channel, not across channels.
type Source interface {
	// Next blocks until a notification is available, the source is
	// exhausted (io.EOF), or the context is cancelled.
	Next(ctx context.Context) (Notification, error)

	// Close releases the source. Next returns an error after Close.
	Close() error
}
