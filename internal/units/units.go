// Package units provides the speed scale constant and conversion helpers
// shared between the decoder and the read surfaces.
package units

import "time"

// DefaultSpeedScale converts the portal's raw float speed into the displayed
// "scale-mph" unit. The toy cars are 1:64 scale; the multiplier is a
// heuristic ("scale to real-world equivalent") with no calibration evidence,
// so callers may override it rather than treat it as physically exact.
const DefaultSpeedScale = 64.0

// ScaleSpeed converts a raw decoded speed value to scale-mph using the given
// multiplier. A zero or negative scale falls back to DefaultSpeedScale.
func ScaleSpeed(raw, scale float64) float64 {
	if scale <= 0 {
		scale = DefaultSpeedScale
	}
	return raw * scale
}

// Seconds returns the duration as fractional seconds, the unit used for lap
// times on the wire and in the JSON read surface.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// FromSeconds converts fractional seconds to a duration.
func FromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
