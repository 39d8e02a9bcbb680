// Package portal defines the race-track portal's notification channels and
// provides a multiplexer that fans incoming notifications out to multiple
// subscribers.
//
// The portal exposes its telemetry as BLE characteristics; each
// characteristic UUID is treated here as an opaque channel identifier. The
// channel set is closed: every channel the device is known to notify on is
// enumerated below, and anything else decodes downstream as unparsed.
package portal

// Channel identifies a logical notification source on the portal.
type Channel string

// Device name advertised by the portal.
const DeviceName = "HWiD"

// Channels notified by the portal. The 000a service is authentication, 000b
// is bulk data transfer, 000c carries telemetry and control.
const (
	ChannelAuthCommand  Channel = "af0a6ec7-0002-000a-84a0-91559fc6f0de"
	ChannelAuthKey      Channel = "af0a6ec7-0003-000a-84a0-91559fc6f0de"
	ChannelAuthResponse Channel = "af0a6ec7-0004-000a-84a0-91559fc6f0de"
	ChannelDataCommand  Channel = "af0a6ec7-0002-000b-84a0-91559fc6f0de"
	ChannelDataFast     Channel = "af0a6ec7-0003-000b-84a0-91559fc6f0de"
	ChannelFirmware     Channel = "af0a6ec7-0002-000c-84a0-91559fc6f0de"
	ChannelSerial       Channel = "af0a6ec7-0003-000c-84a0-91559fc6f0de"
	ChannelIdentity     Channel = "af0a6ec7-0004-000c-84a0-91559fc6f0de"
	ChannelDetection    Channel = "af0a6ec7-0005-000c-84a0-91559fc6f0de"
	ChannelSpeed        Channel = "af0a6ec7-0006-000c-84a0-91559fc6f0de"
	ChannelControl      Channel = "af0a6ec7-0007-000c-84a0-91559fc6f0de"
	ChannelCommand      Channel = "af0a6ec7-0008-000c-84a0-91559fc6f0de"
)

// Kind classifies what a channel carries.
type Kind int

const (
	KindOpaque Kind = iota // auth/data/command traffic, not decoded
	KindDetection
	KindIdentity
	KindSpeed
	KindSerial
	KindControl
)

// Info holds the static metadata for a channel.
type Info struct {
	Name string
	Kind Kind
}

// channelInfo is the closed metadata set. Names match the capture log
// contract and must not change.
var channelInfo = map[Channel]Info{
	ChannelAuthCommand:  {Name: "Auth Command", Kind: KindOpaque},
	ChannelAuthKey:      {Name: "Auth Key", Kind: KindOpaque},
	ChannelAuthResponse: {Name: "Auth Response", Kind: KindOpaque},
	ChannelDataCommand:  {Name: "Data Command", Kind: KindOpaque},
	ChannelDataFast:     {Name: "Data Fast", Kind: KindOpaque},
	ChannelFirmware:     {Name: "Firmware Version", Kind: KindOpaque},
	ChannelSerial:       {Name: "Serial Number", Kind: KindSerial},
	ChannelIdentity:     {Name: "Event Channel 1", Kind: KindIdentity},
	ChannelDetection:    {Name: "Event Channel 2", Kind: KindDetection},
	ChannelSpeed:        {Name: "Event Channel 3", Kind: KindSpeed},
	ChannelControl:      {Name: "Control Register", Kind: KindControl},
	ChannelCommand:      {Name: "Command", Kind: KindOpaque},
}

// byName is the reverse lookup used when reading capture logs back.
var byName = func() map[string]Channel {
	m := make(map[string]Channel, len(channelInfo))
	for c, info := range channelInfo {
		m[info.Name] = c
	}
	return m
}()

// Info returns the metadata for a channel and whether the channel belongs to
// the known set.
func (c Channel) Info() (Info, bool) {
	info, ok := channelInfo[c]
	return info, ok
}

// Kind returns the channel's classification. Channels outside the known set
// are KindOpaque.
func (c Channel) Kind() Kind {
	return channelInfo[c].Kind
}

// Name returns the display name for a channel, or "Unknown" for channels
// outside the known set.
func (c Channel) Name() string {
	if info, ok := channelInfo[c]; ok {
		return info.Name
	}
	return "Unknown"
}

// ChannelByName resolves a display name back to its channel. It is the
// inverse of Name for the known set.
func ChannelByName(name string) (Channel, bool) {
	c, ok := byName[name]
	return c, ok
}

// Channels returns all known channels. The order is unspecified.
func Channels() []Channel {
	out := make([]Channel, 0, len(channelInfo))
	for c := range channelInfo {
		out = append(out, c)
	}
	return out
}
