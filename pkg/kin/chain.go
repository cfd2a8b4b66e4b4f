// Package kin provides the small kinematics toolbox the robot controllers
// are built on: serial chains of revolute joints with forward kinematics,
// numeric Jacobians, a damped least-squares IK solver, and 3D rotation
// utilities.
package kin

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Joint is one revolute joint of a serial chain. The joint rotates its
// outboard frame about Axis, then the next joint sits at Link in that rotated
// frame. The segment between this joint and the next has mass Mass centered
// at COM (also in the rotated frame).
type Joint struct {
	Axis r3.Vector
	Link r3.Vector
	Mass float64
	COM  r3.Vector
}

// Chain is a serial kinematic chain anchored at a settable base frame.
// All outputs (end effector, COM positions, Jacobians) are expressed in the
// frame the base frame is expressed in, i.e. the robot body frame.
type Chain struct {
	base   Transform
	joints []Joint
}

// NewChain builds a chain from its joints. The base frame defaults to
// identity.
func NewChain(joints []Joint) *Chain {
	return &Chain{
		base:   Transform{R: Identity()},
		joints: joints,
	}
}

// Mirrored returns a copy of the chain reflected across the XZ plane.
// Reflecting a rotation R(a, theta) gives R(-Ma, theta) where M negates the
// Y component, so axes get the full reflection plus a sign flip while link
// and COM offsets get the reflection only.
func (c *Chain) Mirrored() *Chain {
	mirrorY := func(v r3.Vector) r3.Vector { return r3.Vector{X: v.X, Y: -v.Y, Z: v.Z} }
	joints := make([]Joint, len(c.joints))
	for i, j := range c.joints {
		joints[i] = Joint{
			Axis: mirrorY(j.Axis).Mul(-1),
			Link: mirrorY(j.Link),
			Mass: j.Mass,
			COM:  mirrorY(j.COM),
		}
	}
	return &Chain{base: c.base, joints: joints}
}

// DOF returns the number of joints.
func (c *Chain) DOF() int { return len(c.joints) }

// SetBaseFrame fixes the transform from the chain's mounting point to the
// body frame.
func (c *Chain) SetBaseFrame(t Transform) { c.base = t }

// BaseFrame returns the transform set by SetBaseFrame.
func (c *Chain) BaseFrame() Transform { return c.base }

// Masses returns the per-segment mass vector, one element per joint.
func (c *Chain) Masses() []float64 {
	m := make([]float64, len(c.joints))
	for i, j := range c.joints {
		m[i] = j.Mass
	}
	return m
}

// frames walks the chain at the given angles and returns the transform of
// every joint frame (after its rotation), ending with the end effector
// position.
func (c *Chain) frames(angles []float64) ([]Transform, r3.Vector) {
	cur := c.base
	fs := make([]Transform, len(c.joints))
	for i, j := range c.joints {
		cur = cur.Mul(Transform{R: FromAngleAxis(angles[i], j.Axis)})
		fs[i] = cur
		cur = cur.Mul(Transform{R: Identity(), T: j.Link})
	}
	return fs, cur.T
}

// EndEffector returns the body-frame position of the chain tip.
func (c *Chain) EndEffector(angles []float64) r3.Vector {
	_, ee := c.frames(angles)
	return ee
}

// COMs returns the body-frame position of each segment's center of mass.
func (c *Chain) COMs(angles []float64) []r3.Vector {
	fs, _ := c.frames(angles)
	out := make([]r3.Vector, len(fs))
	for i, f := range fs {
		out[i] = f.Apply(c.joints[i].COM)
	}
	return out
}

const jacobianEps = 1e-6

// JacobianEndEffector returns the 3xN positional Jacobian of the end
// effector, by central differences.
func (c *Chain) JacobianEndEffector(angles []float64) *mat.Dense {
	return c.numericJacobian(angles, func(q []float64) r3.Vector {
		return c.EndEffector(q)
	})
}

// JacobianCOMs returns a 3xN positional Jacobian for each segment COM.
func (c *Chain) JacobianCOMs(angles []float64) []*mat.Dense {
	out := make([]*mat.Dense, len(c.joints))
	for i := range c.joints {
		i := i
		out[i] = c.numericJacobian(angles, func(q []float64) r3.Vector {
			return c.COMs(q)[i]
		})
	}
	return out
}

func (c *Chain) numericJacobian(angles []float64, pos func([]float64) r3.Vector) *mat.Dense {
	n := len(c.joints)
	jac := mat.NewDense(3, n, nil)
	q := make([]float64, n)
	copy(q, angles)
	for i := 0; i < n; i++ {
		orig := q[i]
		q[i] = orig + jacobianEps
		hi := pos(q)
		q[i] = orig - jacobianEps
		lo := pos(q)
		q[i] = orig
		d := hi.Sub(lo).Mul(1 / (2 * jacobianEps))
		jac.Set(0, i, d.X)
		jac.Set(1, i, d.Y)
		jac.Set(2, i, d.Z)
	}
	return jac
}
