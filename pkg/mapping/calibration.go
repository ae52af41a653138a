package mapping

import "github.com/golang/geo/r3"

// Calibration is the zero reference captured by the zero command. It is
// not safe for concurrent use; the owner serializes access.
type Calibration struct {
	zero   r3.Vector
	zeroed bool
	offset Rotation
}

// Set replaces the origin and rotation offset.
func (c *Calibration) Set(zero r3.Vector, offset Rotation) {
	c.zero = zero
	c.offset = offset
	c.zeroed = true
}

// Zeroed reports whether an origin has been captured.
func (c *Calibration) Zeroed() bool { return c.zeroed }

// Origin returns the raw sensor position captured as zero.
func (c *Calibration) Origin() r3.Vector { return c.zero }

// Offset returns the rotation offset in degrees.
func (c *Calibration) Offset() Rotation { return c.offset }
