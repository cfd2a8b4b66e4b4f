package kin

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// testChain is an azimuth joint followed by two pitch joints, the same
// topology the robot's legs use.
func testChain() *Chain {
	return NewChain([]Joint{
		{Axis: r3.Vector{Z: 1}, Link: r3.Vector{X: 0.1}, Mass: 0.5, COM: r3.Vector{X: 0.05}},
		{Axis: r3.Vector{Y: 1}, Link: r3.Vector{X: 0.3}, Mass: 1.0, COM: r3.Vector{X: 0.15}},
		{Axis: r3.Vector{Y: 1}, Link: r3.Vector{X: 0.3}, Mass: 0.4, COM: r3.Vector{X: 0.15}},
	})
}

func TestChain_EndEffectorZeroAngles(t *testing.T) {
	c := testChain()
	got := c.EndEffector([]float64{0, 0, 0})
	want := r3.Vector{X: 0.7}
	if !vecApproxEqual(got, want, eps) {
		t.Errorf("end effector at zero = %v, want %v", got, want)
	}
}

func TestChain_EndEffectorAzimuth(t *testing.T) {
	c := testChain()
	got := c.EndEffector([]float64{math.Pi / 2, 0, 0})
	want := r3.Vector{Y: 0.7}
	if !vecApproxEqual(got, want, eps) {
		t.Errorf("end effector = %v, want %v", got, want)
	}
}

func TestChain_EndEffectorKneeBend(t *testing.T) {
	c := testChain()
	// Folding the last joint by -pi/2 about Y swings its link from +X to +Z.
	got := c.EndEffector([]float64{0, 0, -math.Pi / 2})
	want := r3.Vector{X: 0.4, Z: 0.3}
	if !vecApproxEqual(got, want, eps) {
		t.Errorf("end effector = %v, want %v", got, want)
	}
}

func TestChain_BaseFrame(t *testing.T) {
	c := testChain()
	rot := RotZ(math.Pi)
	c.SetBaseFrame(Transform{R: rot, T: r3.Vector{X: 1}})

	got := c.EndEffector([]float64{0, 0, 0})
	want := r3.Vector{X: 1 - 0.7}
	if !vecApproxEqual(got, want, eps) {
		t.Errorf("end effector with base frame = %v, want %v", got, want)
	}
}

func TestChain_MirroredReflectsAcrossXZ(t *testing.T) {
	c := testChain()
	m := c.Mirrored()

	angleSets := [][]float64{
		{0, 0, 0},
		{0.5, -0.8, 1.2},
		{-1.0, 0.3, -2.0},
	}
	for _, q := range angleSets {
		orig := c.EndEffector(q)
		mir := m.EndEffector(q)
		want := r3.Vector{X: orig.X, Y: -orig.Y, Z: orig.Z}
		if !vecApproxEqual(mir, want, 1e-9) {
			t.Errorf("mirrored EE at %v = %v, want %v", q, mir, want)
		}
	}
}

func TestChain_MirroredKeepsMasses(t *testing.T) {
	c := testChain()
	m := c.Mirrored()
	for i, mass := range c.Masses() {
		if m.Masses()[i] != mass {
			t.Errorf("mirrored mass %d = %f, want %f", i, m.Masses()[i], mass)
		}
	}
}

func TestChain_COMsZeroAngles(t *testing.T) {
	c := testChain()
	coms := c.COMs([]float64{0, 0, 0})
	want := []r3.Vector{
		{X: 0.05},
		{X: 0.25},
		{X: 0.55},
	}
	for i, com := range coms {
		if !vecApproxEqual(com, want[i], eps) {
			t.Errorf("com %d = %v, want %v", i, com, want[i])
		}
	}
}

func TestChain_JacobianSingleJoint(t *testing.T) {
	c := NewChain([]Joint{
		{Axis: r3.Vector{Z: 1}, Link: r3.Vector{X: 0.5}},
	})
	jac := c.JacobianEndEffector([]float64{0})

	// d/dq of (0.5*cos q, 0.5*sin q, 0) at q=0 is (0, 0.5, 0).
	want := []float64{0, 0.5, 0}
	for i := 0; i < 3; i++ {
		if math.Abs(jac.At(i, 0)-want[i]) > 1e-6 {
			t.Errorf("jacobian[%d] = %f, want %f", i, jac.At(i, 0), want[i])
		}
	}
}
