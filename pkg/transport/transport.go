// Package transport moves joint commands and feedback between the
// controller and the actuators. The controller only sees the JointGroup
// interface; behind it sits either the servo bus or a simulation.
package transport

import (
	"context"
	"math"
)

// NumJoints is the joint count of the whole robot: 4 legs x 3 joints.
const NumJoints = 12

// Command is one cycle's worth of joint setpoints. A nil slice means the
// field is not commanded this cycle; a NaN element means that joint keeps
// its previous setpoint. Slices must have NumJoints elements when non-nil.
type Command struct {
	Positions  []float64 // [rad]
	Velocities []float64 // [rad/s]
	Efforts    []float64 // [N*m]
}

// Quaternion is a unit quaternion in w,x,y,z order, as the IMU reports it.
type Quaternion struct {
	W, X, Y, Z float64
}

// Feedback is one hardware sample. Orientation is nil when the group has no
// IMU (or the sample was invalid); position elements may be NaN when a joint
// did not report.
type Feedback struct {
	Positions   []float64 // [rad]
	Orientation *Quaternion
}

// JointGroup sends commands to and receives feedback from a group of
// actuators at the control rate. NextFeedback may block briefly waiting for
// the next hardware sample.
type JointGroup interface {
	SendCommand(ctx context.Context, cmd Command) error
	NextFeedback(ctx context.Context) (Feedback, error)
	Close() error
}

// NewCommand returns a Command with all three fields allocated and filled
// with NaN, ready for per-joint assignment.
func NewCommand() Command {
	nans := func() []float64 {
		s := make([]float64, NumJoints)
		for i := range s {
			s[i] = math.NaN()
		}
		return s
	}
	return Command{Positions: nans(), Velocities: nans(), Efforts: nans()}
}
