package transport

import "math"

// countsPerRad converts between servo counts and radians for the 4096-count
// magnetic encoders.
const countsPerRad = 4096.0 / (2 * math.Pi)

// countsMax is the highest raw position the encoder can report.
const countsMax = 4095

// JointCalibration maps one joint between radians and raw servo counts.
type JointCalibration struct {
	ID     int  `json:"id"`
	Center int  `json:"center"`
	Invert bool `json:"invert"`
}

// ToCounts converts a joint angle in radians to a raw servo position,
// clamped to the encoder range.
func (c JointCalibration) ToCounts(rad float64) int {
	if c.Invert {
		rad = -rad
	}
	counts := c.Center + int(math.Round(rad*countsPerRad))
	if counts < 0 {
		return 0
	}
	if counts > countsMax {
		return countsMax
	}
	return counts
}

// ToRadians converts a raw servo position to a joint angle in radians.
func (c JointCalibration) ToRadians(counts int) float64 {
	rad := float64(counts-c.Center) / countsPerRad
	if c.Invert {
		rad = -rad
	}
	return rad
}

// DefaultCalibration returns a calibration for servo IDs 1..NumJoints, all
// centered at mid-range. Setup overwrites the centers with measured values.
func DefaultCalibration() []JointCalibration {
	cals := make([]JointCalibration, NumJoints)
	for i := range cals {
		cals[i] = JointCalibration{ID: i + 1, Center: 2048}
	}
	return cals
}
