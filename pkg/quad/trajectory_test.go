package quad

import (
	"math"
	"testing"
)

func TestJointTrajectory_Endpoints(t *testing.T) {
	start := []float64{0, 0, 0}
	mid := []float64{0.5, -0.2, 0.1}
	end := []float64{1, -0.4, 0.2}
	tr := newJointTrajectory(0.5, start, mid, end)

	pos, vel := tr.state(0)
	for j := range start {
		if pos[j] != start[j] {
			t.Errorf("pos[%d] at t=0 is %f, want %f", j, pos[j], start[j])
		}
		if vel[j] != 0 {
			t.Errorf("vel[%d] at t=0 is %f, want 0", j, vel[j])
		}
	}

	pos, vel = tr.state(0.5)
	for j := range end {
		if pos[j] != end[j] {
			t.Errorf("pos[%d] at t=end is %f, want %f", j, pos[j], end[j])
		}
		if vel[j] != 0 {
			t.Errorf("vel[%d] at t=end is %f, want 0", j, vel[j])
		}
	}
}

func TestJointTrajectory_ClampsOutsideSpan(t *testing.T) {
	tr := newJointTrajectory(0.5, []float64{0, 0, 0}, []float64{1, 1, 1})

	pos, _ := tr.state(-1)
	if pos[0] != 0 {
		t.Errorf("pos before start = %f, want 0", pos[0])
	}
	pos, vel := tr.state(99)
	if pos[0] != 1 {
		t.Errorf("pos after end = %f, want 1", pos[0])
	}
	if vel[0] != 0 {
		t.Errorf("vel after end = %f, want 0", vel[0])
	}
}

func TestJointTrajectory_PassesWaypoints(t *testing.T) {
	start := []float64{0, 0, 0}
	mid := []float64{0.3, 0.6, -0.2}
	end := []float64{0.1, 1.0, 0.4}
	tr := newJointTrajectory(1.0, start, mid, end)

	// Waypoints are evenly spaced; the middle one sits at t=0.5.
	pos, vel := tr.state(0.5)
	for j := range mid {
		if math.Abs(pos[j]-mid[j]) > 1e-9 {
			t.Errorf("pos[%d] at midpoint = %f, want %f", j, pos[j], mid[j])
		}
		if math.Abs(vel[j]) > 1e-9 {
			t.Errorf("vel[%d] at waypoint = %f, want 0", j, vel[j])
		}
	}
}

func TestJointTrajectory_MonotoneSegment(t *testing.T) {
	tr := newJointTrajectory(0.4, []float64{0, 0, 0}, []float64{1, 1, 1})

	prev := -1.0
	for i := 0; i <= 80; i++ {
		tt := 0.4 * float64(i) / 80
		pos, _ := tr.state(tt)
		if pos[0] < prev-1e-12 {
			t.Fatalf("trajectory not monotone at t=%f: %f after %f", tt, pos[0], prev)
		}
		prev = pos[0]
	}
}

func TestJointTrajectory_VelocityMatchesSlope(t *testing.T) {
	tr := newJointTrajectory(0.5, []float64{0, 0, 0}, []float64{1, 1, 1})

	const h = 1e-6
	for _, tt := range []float64{0.1, 0.25, 0.4} {
		lo, _ := tr.state(tt - h)
		hi, _ := tr.state(tt + h)
		_, vel := tr.state(tt)
		slope := (hi[0] - lo[0]) / (2 * h)
		if math.Abs(vel[0]-slope) > 1e-4 {
			t.Errorf("vel at %f = %f, numeric slope %f", tt, vel[0], slope)
		}
	}
}
