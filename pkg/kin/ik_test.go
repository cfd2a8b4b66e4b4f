package kin

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestSolveIK_ReachesTarget(t *testing.T) {
	c := testChain()

	// Targets taken from forward kinematics are reachable by construction.
	knownAngles := [][]float64{
		{0.2, -0.3, -1.9},
		{-0.4, 0.5, -1.0},
		{0.0, -0.8, -0.6},
	}
	seed := []float64{0.1, -0.2, -1.5}

	for _, q := range knownAngles {
		target := c.EndEffector(q)
		sol, err := c.SolveIK(seed, target)
		if err != nil {
			t.Fatalf("SolveIK to %v failed: %v", target, err)
		}
		got := c.EndEffector(sol)
		if got.Sub(target).Norm() > 1e-3 {
			t.Errorf("solution lands at %v, want %v", got, target)
		}
	}
}

func TestSolveIK_SeedNotModified(t *testing.T) {
	c := testChain()
	seed := []float64{0.1, -0.2, -1.5}
	before := make([]float64, len(seed))
	copy(before, seed)

	if _, err := c.SolveIK(seed, c.EndEffector([]float64{0.2, -0.5, -1.2})); err != nil {
		t.Fatalf("SolveIK failed: %v", err)
	}
	for i := range seed {
		if seed[i] != before[i] {
			t.Errorf("seed[%d] changed from %f to %f", i, before[i], seed[i])
		}
	}
}

func TestSolveIK_Unreachable(t *testing.T) {
	c := testChain()
	// Total reach is 0.7; a target at 10 is far outside the workspace.
	sol, err := c.SolveIK([]float64{0, 0, 0}, r3.Vector{X: 10})
	if !errors.Is(err, ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}
	if sol != nil {
		t.Errorf("expected nil solution on failure, got %v", sol)
	}
}

func TestSolveIK_NormalizedAngles(t *testing.T) {
	c := testChain()
	target := c.EndEffector([]float64{0.2, -0.3, -1.9})

	// A seed a full turn away from the answer must not leak wrapped-around
	// angles into the solution.
	seed := []float64{0.2 + 2*math.Pi, -0.3 - 2*math.Pi, -1.9}
	sol, err := c.SolveIK(seed, target)
	if err != nil {
		t.Fatalf("SolveIK failed: %v", err)
	}
	for i, q := range sol {
		if q <= -math.Pi || q > math.Pi {
			t.Errorf("solution[%d] = %f, outside (-pi, pi]", i, q)
		}
	}
	if got := c.EndEffector(sol); got.Sub(target).Norm() > 1e-3 {
		t.Errorf("wrapped solution lands at %v, want %v", got, target)
	}
}

func TestSolveIK_WarmStartConverges(t *testing.T) {
	c := testChain()
	q := []float64{0.2, -0.3, -1.9}
	target := c.EndEffector(q)

	// Seeding at the answer should converge immediately and stay there.
	sol, err := c.SolveIK(q, target)
	if err != nil {
		t.Fatalf("SolveIK from exact seed failed: %v", err)
	}
	for i := range q {
		if sol[i] != q[i] {
			t.Errorf("solution[%d] = %f, want seed value %f", i, sol[i], q[i])
		}
	}
}
