package quad

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/gwillem/quadpod/pkg/kin"
)

// NumLegs is the leg count; NumJoints the joints per leg.
const (
	NumLegs   = 4
	NumJoints = 3
)

// Leg geometry, left-side convention. A leg is an azimuth joint at the
// mount, then two pitch joints. Right legs use the same chain mirrored
// across the XZ plane.
const (
	// Offset from the azimuth joint to the shoulder joint.
	baseOffsetX = 0.04
	baseOffsetZ = -0.02

	femurLength = 0.325
	lowerLength = 0.325

	// Per-segment masses, mount to foot [kg].
	baseMass  = 0.6
	femurMass = 0.9
	lowerMass = 0.5
)

// Side tells a leg whether it is mounted on the left or right of the trunk.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Leg owns one leg's kinematic chain, its current joint angles as reported
// by feedback, and the warm-start seed for the IK solver. The seed is only
// replaced by a successful solve, so a string of failed solves never
// degrades the next attempt.
type Leg struct {
	index       int
	side        Side
	chain       *kin.Chain
	angles      []float64
	seed        []float64
	springShift float64
	masses      []float64
}

// legChain builds the left-convention chain for one leg.
func legChain() *kin.Chain {
	return kin.NewChain([]kin.Joint{
		{
			Axis: r3.Vector{Z: 1},
			Link: r3.Vector{X: baseOffsetX, Z: baseOffsetZ},
			Mass: baseMass,
			COM:  r3.Vector{X: baseOffsetX / 2},
		},
		{
			Axis: r3.Vector{Y: 1},
			Link: r3.Vector{X: femurLength},
			Mass: femurMass,
			COM:  r3.Vector{X: femurLength / 2},
		},
		{
			Axis: r3.Vector{Y: 1},
			Link: r3.Vector{X: lowerLength},
			Mass: lowerMass,
			COM:  r3.Vector{X: lowerLength / 2},
		},
	})
}

// NewLeg builds the leg mounted at mountAngle radians around the trunk,
// radius meters out from its center. Mirroring for right legs is baked into
// the chain and the base frame once, here; the gait code never needs to know
// which side a leg is on.
func NewLeg(index int, side Side, mountAngle, radius float64, p Parameters) *Leg {
	chain := legChain()
	if side == Right {
		chain = chain.Mirrored()
	}

	rot := kin.RotZ(mountAngle)
	chain.SetBaseFrame(kin.Transform{
		R: rot,
		T: rot.Apply(r3.Vector{X: radius}),
	})

	// The mirrored chain maps equal joint values to mirror-image postures,
	// so the seed and the spring offset are side-independent.
	return &Leg{
		index:       index,
		side:        side,
		chain:       chain,
		angles:      make([]float64, NumJoints),
		seed:        []float64{0.2, -0.3, -1.9},
		springShift: -p.SpringShift,
		masses:      chain.Masses(),
	}
}

// Index returns the leg's index, 0..3.
func (l *Leg) Index() int { return l.index }

// Side returns which side of the trunk the leg is mounted on.
func (l *Leg) Side() Side { return l.side }

// BaseFrame returns the fixed leg-local to body transform.
func (l *Leg) BaseFrame() kin.Transform { return l.chain.BaseFrame() }

// SetJointAngles overwrites the current joint angles with feedback values.
func (l *Leg) SetJointAngles(angles []float64) error {
	if len(angles) != NumJoints {
		return fmt.Errorf("leg %d: got %d joint angles, want %d", l.index, len(angles), NumJoints)
	}
	copy(l.angles, angles)
	return nil
}

// JointAngles returns a copy of the current joint angles.
func (l *Leg) JointAngles() []float64 {
	out := make([]float64, NumJoints)
	copy(out, l.angles)
	return out
}

// FootPosition returns the body-frame foot position at the given angles.
func (l *Leg) FootPosition(angles []float64) r3.Vector {
	return l.chain.EndEffector(angles)
}

// ComputeIK solves for joint angles placing the foot at target (body
// frame), warm-started from the stored seed. On success the seed is updated
// to the solution; on failure it is left untouched.
func (l *Leg) ComputeIK(target r3.Vector) ([]float64, error) {
	angles, err := l.chain.SolveIK(l.seed, target)
	if err != nil {
		return nil, fmt.Errorf("leg %d ik: %w", l.index, err)
	}
	copy(l.seed, angles)
	out := make([]float64, NumJoints)
	copy(out, angles)
	return out, nil
}

// CompensateTorques returns per-joint torques holding the leg against
// gravity and an external foot contact force, plus the constant spring
// offset on the shoulder joint. Pure function of its inputs and the leg's
// fixed mass/spring parameters.
//
// The velocity vector is accepted alongside the trajectory state but does
// not enter the torque model.
func (l *Leg) CompensateTorques(angles, vels []float64, gravity, footForce r3.Vector) []float64 {
	_ = vels

	torques := []float64{0, l.springShift, 0}

	// Reaction to the foot contact force: Jee^T * (-F).
	jee := l.chain.JacobianEndEffector(angles)
	f := mat.NewVecDense(3, []float64{-footForce.X, -footForce.Y, -footForce.Z})
	var stance mat.VecDense
	stance.MulVec(jee.T(), f)

	// Gravity compensation: -sum_i Jcom_i^T * (g * m_i).
	jcoms := l.chain.JacobianCOMs(angles)
	grav := mat.NewVecDense(NumJoints, nil)
	for i, jc := range jcoms {
		gm := gravity.Mul(l.masses[i])
		gv := mat.NewVecDense(3, []float64{gm.X, gm.Y, gm.Z})
		var part mat.VecDense
		part.MulVec(jc.T(), gv)
		grav.SubVec(grav, &part)
	}

	for i := 0; i < NumJoints; i++ {
		torques[i] += stance.AtVec(i) + grav.AtVec(i)
	}
	return torques
}
