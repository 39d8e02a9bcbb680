// Package decode turns raw portal notifications into typed events.
//
// Decoding is pure and total: malformed payloads degrade to Unparsed (or a
// partial variant with optional fields left unset), never to an error. The
// decoder holds no mutable state and is safe for repeated concurrent use.
package decode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/trackside-data/portal.report/internal/portal"
	"github.com/trackside-data/portal.report/internal/units"
)

// Event is a decoded portal event. Exactly one concrete variant is returned
// per notification; a nil Event means the payload carries no update (empty
// serial or identity payloads).
type Event interface {
	isEvent()
}

// CarDetected reports an NFC tag seen on the detection channel. TypeByte
// 0x04 is the only tag value observed for a car placed on the portal; other
// values pass through with the raw tag preserved.
type CarDetected struct {
	TypeByte byte
	UID      [6]byte
	UIDText  string
}

// Known reports whether the type tag is the observed "car present" value.
func (e CarDetected) Known() bool { return e.TypeByte == carPresentTag }

// TypeName describes the detection tag for display.
func (e CarDetected) TypeName() string {
	if e.Known() {
		return "Car Detected"
	}
	return fmt.Sprintf("Unknown (0x%02x)", e.TypeByte)
}

// CarRemoved reports an empty payload on the detection channel: the car left
// the portal.
type CarRemoved struct{}

// SerialNumber carries the tag's serial text.
type SerialNumber struct {
	Text string
}

// SpeedSample is one pass through the speed gate. Raw is the wire value
// (32-bit float); Scaled is Raw multiplied by the configured speed scale.
type SpeedSample struct {
	Raw    float64
	Scaled float64
}

// NdefRecord is the car's full identity record from the identity channel.
// All fields are optional; sub-step failures leave them unset.
type NdefRecord struct {
	URIRecord   bool
	URI         string
	DeviceID    string
	DeviceIDRaw []byte
	Signature   []byte
}

// ControlStatus exposes the 5-byte control register. CarPresent derives from
// byte 4: the observed value 0x02 means a car is on the portal; everything
// else is absent or transitional.
type ControlStatus struct {
	Bytes      [5]byte
	CarPresent bool
}

// Unparsed is the fallback for unknown channels and payloads below a
// channel's minimum length. It is not an error.
type Unparsed struct {
	Channel portal.Channel
	Raw     []byte
}

func (CarDetected) isEvent()   {}
func (CarRemoved) isEvent()    {}
func (SerialNumber) isEvent()  {}
func (SpeedSample) isEvent()   {}
func (NdefRecord) isEvent()    {}
func (ControlStatus) isEvent() {}
func (Unparsed) isEvent()      {}

const (
	// carPresentTag is the only detection type byte observed for a car
	// placed on the portal.
	carPresentTag = 0x04

	// controlCarPresent is the control register byte 4 value while a car
	// sits on the portal.
	controlCarPresent = 0x02
)

// Decoder decodes notifications. SpeedScale defaults to the 1:64 heuristic
// and may be overridden via configuration.
type Decoder struct {
	SpeedScale float64
}

// New returns a Decoder with the default speed scale.
func New() *Decoder {
	return &Decoder{SpeedScale: units.DefaultSpeedScale}
}

// Decode maps a notification to its typed event. It never fails: inputs that
// cannot be interpreted come back as Unparsed, and empty no-update payloads
// come back as nil.
func (d *Decoder) Decode(n portal.Notification) Event {
	switch n.Channel.Kind() {
	case portal.KindDetection:
		return decodeDetection(n)
	case portal.KindSerial:
		return decodeSerial(n)
	case portal.KindSpeed:
		return d.decodeSpeed(n)
	case portal.KindIdentity:
		return decodeIdentity(n)
	case portal.KindControl:
		return decodeControl(n)
	default:
		return Unparsed{Channel: n.Channel, Raw: n.Payload}
	}
}

func decodeDetection(n portal.Notification) Event {
	p := n.Payload
	if len(p) == 0 {
		return CarRemoved{}
	}
	if len(p) < 7 {
		return Unparsed{Channel: n.Channel, Raw: p}
	}

	ev := CarDetected{TypeByte: p[0]}
	copy(ev.UID[:], p[1:7])
	ev.UIDText = FormatUID(ev.UID)
	return ev
}

// FormatUID renders a 6-byte NFC UID as upper-case hex pairs joined by
// colons, e.g. "DE:AD:BE:EF:12:34". This canonical form is the car's
// identity everywhere in the system.
func FormatUID(uid [6]byte) string {
	var b strings.Builder
	for i, v := range uid {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

func decodeSerial(n portal.Notification) Event {
	if len(n.Payload) == 0 {
		// empty read is "no update", not a blank serial
		return nil
	}
	return SerialNumber{Text: lossyUTF8(n.Payload)}
}

func (d *Decoder) decodeSpeed(n portal.Notification) Event {
	p := n.Payload
	if len(p) < 4 {
		return Unparsed{Channel: n.Channel, Raw: p}
	}
	raw := float64(math.Float32frombits(binary.LittleEndian.Uint32(p[:4])))
	return SpeedSample{
		Raw:    raw,
		Scaled: units.ScaleSpeed(raw, d.SpeedScale),
	}
}

func decodeControl(n portal.Notification) Event {
	p := n.Payload
	if len(p) < 5 {
		return Unparsed{Channel: n.Channel, Raw: p}
	}
	ev := ControlStatus{CarPresent: p[4] == controlCarPresent}
	copy(ev.Bytes[:], p[:5])
	return ev
}

// lossyUTF8 decodes bytes as UTF-8, replacing invalid sequences with the
// replacement character rather than failing.
func lossyUTF8(p []byte) string {
	return strings.ToValidUTF8(string(p), "�")
}
