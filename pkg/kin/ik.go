package kin

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrNotConverged is returned when the IK iteration runs out of budget
// without reaching the target, which includes targets outside the chain's
// workspace.
var ErrNotConverged = errors.New("kin: ik did not converge")

const (
	ikMaxIterations = 100
	ikTolerance     = 1e-4 // [m]
	ikDamping       = 0.05
)

// SolveIK searches for joint angles placing the end effector at target
// (body frame), starting from seed. It runs damped least-squares iterations:
// each step solves (J*Jt + lambda^2*I) y = err and applies dq = Jt*y.
// Solutions are wrapped into (-pi, pi] per joint; full turns do not move a
// revolute joint, so wrapping leaves the end effector in place.
//
// The seed is not modified. On failure the returned slice is nil.
func (c *Chain) SolveIK(seed []float64, target r3.Vector) ([]float64, error) {
	n := c.DOF()
	q := make([]float64, n)
	copy(q, seed)

	lambdaSq := ikDamping * ikDamping
	for iter := 0; iter < ikMaxIterations; iter++ {
		err := target.Sub(c.EndEffector(q))
		if err.Norm() < ikTolerance {
			for i := range q {
				q[i] = wrapAngle(q[i])
			}
			return q, nil
		}

		jac := c.JacobianEndEffector(q)

		// J*Jt + lambda^2*I, 3x3
		var jjt mat.Dense
		jjt.Mul(jac, jac.T())
		for i := 0; i < 3; i++ {
			jjt.Set(i, i, jjt.At(i, i)+lambdaSq)
		}

		ev := mat.NewVecDense(3, []float64{err.X, err.Y, err.Z})
		var y mat.VecDense
		if solveErr := y.SolveVec(&jjt, ev); solveErr != nil {
			return nil, ErrNotConverged
		}

		var dq mat.VecDense
		dq.MulVec(jac.T(), &y)
		for i := 0; i < n; i++ {
			q[i] += dq.AtVec(i)
		}
	}
	return nil, ErrNotConverged
}

// wrapAngle maps an angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	switch {
	case a > math.Pi:
		a -= 2 * math.Pi
	case a <= -math.Pi:
		a += 2 * math.Pi
	}
	return a
}
