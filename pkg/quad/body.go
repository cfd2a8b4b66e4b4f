package quad

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/gwillem/quadpod/pkg/kin"
	"github.com/gwillem/quadpod/pkg/transport"
)

// Leg mounting geometry: front legs at +-30 degrees, hind legs at +-150,
// all at the same radius from the trunk center.
const (
	frontMountAngle = 30.0 * math.Pi / 180.0
	hindMountAngle  = 150.0 * math.Pi / 180.0
	mountRadius     = 0.2375
)

// Foot stance rectangle on the ground, from the trunk center [m].
const (
	footBarX = 0.2057 + 0.34
	footBarY = 0.1187 + 0.20
)

// Leg indices. Diagonal pairs (LF+RH, RF+LH) swing together when trotting.
const (
	LegLF = iota
	LegRF
	LegLH
	LegRH
)

// Body aggregates the four legs and the trunk orientation estimate. It is
// owned and mutated by the control goroutine only; other goroutines get
// copies via Snapshot.
type Body struct {
	legs [NumLegs]*Leg

	rot      kin.Rotation
	balance  kin.Rotation
	tracking bool
	initRot  *kin.Rotation

	mass float64
}

// NewBody builds the trunk and its four legs from the parameter set.
func NewBody(p Parameters) *Body {
	b := &Body{
		rot:     kin.Identity(),
		balance: kin.Identity(),
		mass:    p.Mass,
	}
	b.legs[LegLF] = NewLeg(LegLF, Left, frontMountAngle, mountRadius, p)
	b.legs[LegRF] = NewLeg(LegRF, Right, -frontMountAngle, mountRadius, p)
	b.legs[LegLH] = NewLeg(LegLH, Left, hindMountAngle, mountRadius, p)
	b.legs[LegRH] = NewLeg(LegRH, Right, -hindMountAngle, mountRadius, p)
	return b
}

// Leg returns the leg at index 0..3.
func (b *Body) Leg(i int) *Leg { return b.legs[i] }

// Rotation returns the current body orientation.
func (b *Body) Rotation() kin.Rotation { return b.rot }

// SetRotation stores a new body orientation, re-orthonormalized so that
// accumulated incremental updates cannot drift off the rotation manifold.
func (b *Body) SetRotation(r kin.Rotation) {
	b.rot = r.Orthonormalized()
}

// StartRotationTracking arms orientation ingestion. The first IMU sample
// after arming becomes the reference; the body rotation is the rotation
// relative to it.
func (b *Body) StartRotationTracking() {
	b.tracking = true
}

// CaptureBalance records the current rotation as the balance target the
// passive-orient state regulates toward.
func (b *Body) CaptureBalance() {
	b.balance = b.rot
}

// Balance returns the captured balance target.
func (b *Body) Balance() kin.Rotation { return b.balance }

// GravityDirection returns the world down direction expressed in the body
// frame, a unit vector.
func (b *Body) GravityDirection() r3.Vector {
	return b.rot.Transpose().Apply(r3.Vector{Z: -1})
}

// Weight returns the gravitational force on the whole robot [N].
func (b *Body) Weight() float64 { return b.mass * 9.8 }

// IngestFeedback distributes a hardware sample to the legs and, once
// tracking is armed, folds the IMU orientation into the body rotation.
// Joints that reported NaN keep their previous angle; a sample with the
// wrong joint count is dropped entirely.
func (b *Body) IngestFeedback(fb transport.Feedback) {
	if len(fb.Positions) == transport.NumJoints {
		for i, leg := range b.legs {
			angles := leg.JointAngles()
			for j := 0; j < NumJoints; j++ {
				v := fb.Positions[i*NumJoints+j]
				if !math.IsNaN(v) {
					angles[j] = v
				}
			}
			_ = leg.SetJointAngles(angles)
		}
	}

	if !b.tracking || fb.Orientation == nil {
		return
	}
	q := *fb.Orientation
	sample := kin.FromQuat(quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z})
	if b.initRot == nil {
		ref := sample
		b.initRot = &ref
		return
	}
	b.SetRotation(b.initRot.Transpose().Mul(sample))
}

// LegSnapshot is the per-leg part of a telemetry snapshot.
type LegSnapshot struct {
	Side   string     `json:"side"`
	Angles [3]float64 `json:"angles"`
}

// Snapshot is a copy of the observable body state, safe to hand to other
// goroutines.
type Snapshot struct {
	State    string               `json:"state"`
	Rotation [9]float64           `json:"rotation"`
	Gravity  [3]float64           `json:"gravity"`
	Legs     [NumLegs]LegSnapshot `json:"legs"`
}

// Snapshot copies the current body state. The State field is filled in by
// the controller.
func (b *Body) Snapshot() Snapshot {
	var s Snapshot
	s.Rotation = [9]float64(b.rot)
	g := b.GravityDirection()
	s.Gravity = [3]float64{g.X, g.Y, g.Z}
	for i, leg := range b.legs {
		s.Legs[i].Side = leg.Side().String()
		copy(s.Legs[i].Angles[:], leg.JointAngles())
	}
	return s
}
