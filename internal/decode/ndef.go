package decode

import (
	"encoding/base64"
	"strings"

	"github.com/trackside-data/portal.report/internal/portal"
)

// The identity channel carries a short NDEF record: a one-byte header, a
// type length, a payload length, the record type, and the payload. The only
// record type the portal is known to emit is a URI record ('U') whose URI
// embeds the vendor car identifier. Other type bytes and prefix codes exist
// in the NDEF standard but the portal's encoder behaviour for them is
// unverified, so the narrow decoding below is deliberate.

// uriRecordType marks a well-known-type URI record.
const uriRecordType = "U"

// deviceIDMarker splits the decoded URI; the vendor car id follows it.
const deviceIDMarker = "pid.mattel/"

// uriPrefixes maps the URI-prefix code byte to its expansion. Codes outside
// the table expand to the empty string; that fallback is documented
// behaviour, not an error.
var uriPrefixes = map[byte]string{
	0x00: "",
	0x01: "http://www.",
	0x02: "https://www.",
	0x03: "http://",
	0x04: "https://",
}

func decodeIdentity(n portal.Notification) Event {
	p := n.Payload
	if len(p) == 0 {
		// removal is signalled on the detection channel; nothing to do
		return nil
	}
	if len(p) < 10 {
		return Unparsed{Channel: n.Channel, Raw: p}
	}

	// Layout: byte 0 header flags, byte 1 type length (tl), byte 2 payload
	// length (pl), bytes [3, 3+tl) record type, payload after that, and any
	// trailing bytes beyond 3+tl+pl are an opaque signature block.
	tl := int(p[1])
	pl := int(p[2])
	if 3+tl > len(p) {
		return Unparsed{Channel: n.Channel, Raw: p}
	}

	var ev NdefRecord
	recordType := string(p[3 : 3+tl])

	if recordType == uriRecordType && pl >= 1 && 3+tl < len(p) {
		ev.URIRecord = true
		prefix := uriPrefixes[p[3+tl]]

		end := 3 + tl + pl
		if end > len(p) {
			end = len(p)
		}
		ev.URI = prefix + lossyUTF8(p[4+tl:end])

		if idx := strings.Index(ev.URI, deviceIDMarker); idx >= 0 {
			ev.DeviceID = ev.URI[idx+len(deviceIDMarker):]
			// vendor ids are URL-safe base64 with padding stripped; a
			// failed decode just leaves the raw form unset
			if raw, err := base64.URLEncoding.DecodeString(ev.DeviceID + "=="); err == nil {
				ev.DeviceIDRaw = raw
			}
		}
	}

	if end := 3 + tl + pl; end >= 0 && end < len(p) {
		ev.Signature = p[end:]
	}

	return ev
}
