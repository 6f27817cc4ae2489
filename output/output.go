// Package output hands finished frames to the LED hardware.
package output

import (
	"errors"
	"math"
	"time"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/util"
)

var (
	ErrWriteTimeout = errors.New("write timed out")
	ErrNotOpen      = errors.New("output not open")
)

// Output is the transport every frame goes through.
type Output interface {
	Output(frame color.Frame) error
	Close() error
}

// Reopener is implemented by outputs that can re-establish a lost
// connection.
type Reopener interface {
	Reopen() error
}

// Fault is published to the operator whenever an output changes between
// working and degraded.
type Fault struct {
	Time     time.Time
	Name     string
	Err      error
	Degraded bool
}

// toByte maps a component in [0,1] to 0..255, rounding to nearest.
func toByte(c float64) byte {
	if math.IsNaN(c) {
		return 0
	}
	return byte(math.Round(util.Clamp(c, 0, 1) * 255))
}
