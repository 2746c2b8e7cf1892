package domain

import "fmt"

// Finger identifies one of the ten fixed anatomical targets a biometric
// task can address. The numeric codes are part of the agent wire protocol
// and must not be reordered.
type Finger int

const (
	FingerRightThumb Finger = iota
	FingerRightIndex
	FingerRightMiddle
	FingerRightRing
	FingerRightLittle
	FingerLeftThumb
	FingerLeftIndex
	FingerLeftMiddle
	FingerLeftRing
	FingerLeftLittle
)

// fingerCount is the number of valid finger identifiers.
const fingerCount = 10

var fingerNames = [fingerCount]string{
	"right_thumb",
	"right_index",
	"right_middle",
	"right_ring",
	"right_little",
	"left_thumb",
	"left_index",
	"left_middle",
	"left_ring",
	"left_little",
}

var fingerDisplayNames = [fingerCount]string{
	"Right thumb",
	"Right index",
	"Right middle",
	"Right ring",
	"Right little",
	"Left thumb",
	"Left index",
	"Left middle",
	"Left ring",
	"Left little",
}

// AllFingers returns the ten finger identifiers in protocol order.
func AllFingers() []Finger {
	fingers := make([]Finger, fingerCount)
	for i := range fingers {
		fingers[i] = Finger(i)
	}
	return fingers
}

// ParseFinger converts a numeric wire code into a Finger.
// Returns an error if the code is outside the 0-9 range.
func ParseFinger(code int) (Finger, error) {
	if code < 0 || code >= fingerCount {
		return 0, fmt.Errorf("invalid finger code: %d", code)
	}
	return Finger(code), nil
}

// Valid reports whether the finger is one of the ten known identifiers.
func (f Finger) Valid() bool {
	return f >= 0 && f < fingerCount
}

// Code returns the numeric wire code for the finger.
func (f Finger) Code() int {
	return int(f)
}

// String returns the machine-readable name (e.g. "right_thumb").
func (f Finger) String() string {
	if !f.Valid() {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// DisplayName returns the human-readable label (e.g. "Right thumb").
func (f Finger) DisplayName() string {
	if !f.Valid() {
		return fmt.Sprintf("Finger %d", int(f))
	}
	return fingerDisplayNames[f]
}
