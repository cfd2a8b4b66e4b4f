package kin

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Rotation is a 3x3 rotation matrix in row-major order.
type Rotation [9]float64

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// RotX returns a rotation of theta radians about the X axis.
func RotX(theta float64) Rotation {
	c, s := math.Cos(theta), math.Sin(theta)
	return Rotation{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a rotation of theta radians about the Y axis.
func RotY(theta float64) Rotation {
	c, s := math.Cos(theta), math.Sin(theta)
	return Rotation{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a rotation of theta radians about the Z axis.
func RotZ(theta float64) Rotation {
	c, s := math.Cos(theta), math.Sin(theta)
	return Rotation{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

func (r Rotation) String() string {
	return fmt.Sprintf("&Rot{%+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f}",
		r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8])
}

// Mul returns the product r*o.
func (r Rotation) Mul(o Rotation) Rotation {
	var p Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i*3+j] = r[i*3]*o[j] + r[i*3+1]*o[3+j] + r[i*3+2]*o[6+j]
		}
	}
	return p
}

// Transpose returns the transpose, which for a proper rotation is its inverse.
func (r Rotation) Transpose() Rotation {
	return Rotation{
		r[0], r[3], r[6],
		r[1], r[4], r[7],
		r[2], r[5], r[8],
	}
}

// Apply rotates the vector v.
func (r Rotation) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// Det returns the determinant.
func (r Rotation) Det() float64 {
	return r[0]*(r[4]*r[8]-r[5]*r[7]) -
		r[1]*(r[3]*r[8]-r[5]*r[6]) +
		r[2]*(r[3]*r[7]-r[4]*r[6])
}

// Orthonormalized returns the nearest well-formed rotation, rebuilding the
// rows by Gram-Schmidt. Repeatedly multiplying float rotations drifts away
// from orthonormality; callers that accumulate rotations must pass the result
// through here.
func (r Rotation) Orthonormalized() Rotation {
	x := r3.Vector{X: r[0], Y: r[1], Z: r[2]}.Normalize()
	y := r3.Vector{X: r[3], Y: r[4], Z: r[5]}
	y = y.Sub(x.Mul(x.Dot(y))).Normalize()
	z := x.Cross(y)
	return Rotation{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}
}

// Quat converts the rotation to a unit quaternion.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func (r Rotation) Quat() quat.Number {
	tr := r[0] + r[4] + r[8]
	var q quat.Number
	switch {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = quat.Number{Real: s / 4, Imag: (r[7] - r[5]) / s, Jmag: (r[2] - r[6]) / s, Kmag: (r[3] - r[1]) / s}
	case r[0] > r[4] && r[0] > r[8]:
		s := 2 * math.Sqrt(1+r[0]-r[4]-r[8])
		q = quat.Number{Real: (r[7] - r[5]) / s, Imag: s / 4, Jmag: (r[1] + r[3]) / s, Kmag: (r[2] + r[6]) / s}
	case r[4] > r[8]:
		s := 2 * math.Sqrt(1+r[4]-r[0]-r[8])
		q = quat.Number{Real: (r[2] - r[6]) / s, Imag: (r[1] + r[3]) / s, Jmag: s / 4, Kmag: (r[5] + r[7]) / s}
	default:
		s := 2 * math.Sqrt(1+r[8]-r[0]-r[4])
		q = quat.Number{Real: (r[3] - r[1]) / s, Imag: (r[2] + r[6]) / s, Jmag: (r[5] + r[7]) / s, Kmag: s / 4}
	}
	return q
}

// FromQuat converts a unit quaternion to a rotation matrix.
func FromQuat(q quat.Number) Rotation {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Rotation{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// AngleAxis decomposes the rotation into a rotation angle and a unit axis.
// The angle is always in [0, pi]; the zero rotation reports the Z axis.
func (r Rotation) AngleAxis() (float64, r3.Vector) {
	q := r.Quat()
	v := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	n := v.Norm()
	if n < 1e-12 {
		return 0, r3.Vector{Z: 1}
	}
	theta := 2 * math.Atan2(n, q.Real)
	axis := v.Mul(1 / n)
	if theta < 0 {
		theta, axis = -theta, axis.Mul(-1)
	}
	return theta, axis
}

// FromAngleAxis builds the rotation of theta radians about the given axis.
// The axis need not be normalized; a zero axis yields the identity.
func FromAngleAxis(theta float64, axis r3.Vector) Rotation {
	n := axis.Norm()
	if n < 1e-12 {
		return Identity()
	}
	u := axis.Mul(1 / n)
	half := theta / 2
	s := math.Sin(half)
	return FromQuat(quat.Number{Real: math.Cos(half), Imag: u.X * s, Jmag: u.Y * s, Kmag: u.Z * s})
}

// Transform is a rigid transform: rotate by R, then translate by T.
type Transform struct {
	R Rotation
	T r3.Vector
}

// Apply maps a point through the transform.
func (t Transform) Apply(v r3.Vector) r3.Vector {
	return t.R.Apply(v).Add(t.T)
}

// Mul composes two transforms; the result applies o first, then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		R: t.R.Mul(o.R),
		T: t.R.Apply(o.T).Add(t.T),
	}
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() Transform {
	rt := t.R.Transpose()
	return Transform{R: rt, T: rt.Apply(t.T).Mul(-1)}
}
