// Package testutil provides shared test helpers for the portal packages.
package testutil

import (
	"encoding/binary"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trackside-data/portal.report/internal/portal"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// SpeedPayload encodes a raw speed value as the portal's 4-byte
// little-endian float.
func SpeedPayload(raw float32) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, math.Float32bits(raw))
	return p
}

// SpeedNotification builds a speed-channel notification at ts.
func SpeedNotification(ts time.Time, raw float32) portal.Notification {
	return portal.Notification{
		Channel: portal.ChannelSpeed,
		Payload: SpeedPayload(raw),
		Time:    ts,
	}
}

// DetectionNotification builds a detection-channel notification for the
// given type byte and UID at ts.
func DetectionNotification(ts time.Time, typeByte byte, uid [6]byte) portal.Notification {
	payload := append([]byte{typeByte}, uid[:]...)
	return portal.Notification{
		Channel: portal.ChannelDetection,
		Payload: payload,
		Time:    ts,
	}
}
