package decode

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/trackside-data/portal.report/internal/portal"
)

// ndefPayload builds a single-record URI NDEF payload: header byte, type
// length 1, payload length covering the prefix code plus content, record
// type 'U', then any trailing signature bytes.
func ndefPayload(prefixCode byte, content string, signature []byte) []byte {
	p := []byte{0xD1, 0x01, byte(1 + len(content)), 'U', prefixCode}
	p = append(p, content...)
	p = append(p, signature...)
	return p
}

func decodeNdef(t *testing.T, payload []byte) NdefRecord {
	t.Helper()
	ev := New().Decode(portal.Notification{Channel: portal.ChannelIdentity, Payload: payload})
	rec, ok := ev.(NdefRecord)
	if !ok {
		t.Fatalf("Decode returned %T, want NdefRecord", ev)
	}
	return rec
}

// TestURIPrefixTable checks the round-trip property: for codes 0-4 the URI
// is the table prefix plus the decoded remainder; for any other code the
// prefix is empty, by documented fallback rather than error.
func TestURIPrefixTable(t *testing.T) {
	prefixes := map[byte]string{
		0: "",
		1: "http://www.",
		2: "https://www.",
		3: "http://",
		4: "https://",
		5: "",
		9: "",
	}
	for code, prefix := range prefixes {
		rec := decodeNdef(t, ndefPayload(code, "example.org/x", nil))
		if !rec.URIRecord {
			t.Fatalf("code %d: URIRecord = false", code)
		}
		want := prefix + "example.org/x"
		if rec.URI != want {
			t.Errorf("code %d: URI = %q, want %q", code, rec.URI, want)
		}
	}
}

func TestDeviceIDExtraction(t *testing.T) {
	rec := decodeNdef(t, ndefPayload(4, "hotwheels.com/pid.mattel/QUJDRA", nil))

	want := NdefRecord{
		URIRecord:   true,
		URI:         "https://hotwheels.com/pid.mattel/QUJDRA",
		DeviceID:    "QUJDRA",
		DeviceIDRaw: []byte("ABCD"),
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("NdefRecord mismatch (-want +got):\n%s", diff)
	}
}

// TestDeviceIDBadBase64 confirms that a device id that fails base64 decoding
// keeps its text form while the raw form stays unset.
func TestDeviceIDBadBase64(t *testing.T) {
	rec := decodeNdef(t, ndefPayload(3, "x/pid.mattel/not!base64", nil))
	if rec.DeviceID != "not!base64" {
		t.Errorf("DeviceID = %q", rec.DeviceID)
	}
	if rec.DeviceIDRaw != nil {
		t.Errorf("DeviceIDRaw = % x, want unset", rec.DeviceIDRaw)
	}
}

func TestSignatureCapture(t *testing.T) {
	sig := []byte{0x5A, 0xA5, 0x01, 0x02}
	rec := decodeNdef(t, ndefPayload(0, "example.org", sig))
	if diff := cmp.Diff(sig, rec.Signature); diff != "" {
		t.Errorf("Signature mismatch (-want +got):\n%s", diff)
	}

	// no trailing bytes, no signature
	rec = decodeNdef(t, ndefPayload(0, "example.org", nil))
	if rec.Signature != nil {
		t.Errorf("Signature = % x, want unset", rec.Signature)
	}
}

// TestNonURIRecord covers the single recognized record type: anything other
// than 'U' yields a record without a URI, with trailing bytes still treated
// as signature.
func TestNonURIRecord(t *testing.T) {
	content := "some text payload!"
	p := []byte{0xD1, 0x01, byte(len(content))}
	p = append(p, 'T')
	p = append(p, content...)
	p = append(p, 0xFF)

	rec := decodeNdef(t, p)
	if rec.URIRecord {
		t.Error("URIRecord = true for type 'T'")
	}
	if rec.URI != "" || rec.DeviceID != "" {
		t.Errorf("unexpected URI fields: %+v", rec)
	}
	if len(rec.Signature) != 1 || rec.Signature[0] != 0xFF {
		t.Errorf("Signature = % x", rec.Signature)
	}
}

// TestTruncatedPayloadLength exercises a declared payload length running
// past the actual data: the URI is built from what is present.
func TestTruncatedPayloadLength(t *testing.T) {
	p := []byte{0xD1, 0x01, 0x40, 'U', 0x04}
	p = append(p, "short"...)

	rec := decodeNdef(t, p)
	if rec.URI != "https://short" {
		t.Errorf("URI = %q, want %q", rec.URI, "https://short")
	}
	if rec.Signature != nil {
		t.Errorf("Signature = % x, want unset", rec.Signature)
	}
}
