package quad

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// reachable reports whether target is plausibly inside the leg's workspace,
// measured from the shoulder.
func reachable(l *Leg, target r3.Vector) bool {
	shoulder := l.BaseFrame().Apply(r3.Vector{X: baseOffsetX, Z: baseOffsetZ})
	return target.Sub(shoulder).Norm() <= femurLength+lowerLength+1e-9
}

func TestLeg_MirroredStance(t *testing.T) {
	p := Defaults()
	left := NewLeg(0, Left, frontMountAngle, mountRadius, p)
	right := NewLeg(1, Right, -frontMountAngle, mountRadius, p)

	lt := left.BaseFrame().Apply(baseStance)
	rt := right.BaseFrame().Apply(baseStance)

	// The stance targets of a front pair mirror across the XZ plane.
	if math.Abs(lt.X-rt.X) > 1e-9 || math.Abs(lt.Y+rt.Y) > 1e-9 || math.Abs(lt.Z-rt.Z) > 1e-9 {
		t.Fatalf("stance targets not mirrored: left %v, right %v", lt, rt)
	}

	la, err := left.ComputeIK(lt)
	if err != nil {
		t.Fatalf("left IK failed: %v", err)
	}
	ra, err := right.ComputeIK(rt)
	if err != nil {
		t.Fatalf("right IK failed: %v", err)
	}

	lf := left.FootPosition(la)
	rf := right.FootPosition(ra)
	if lf.Sub(lt).Norm() > 1e-3 {
		t.Errorf("left foot lands at %v, want %v", lf, lt)
	}
	if rf.Sub(rt).Norm() > 1e-3 {
		t.Errorf("right foot lands at %v, want %v", rf, rt)
	}
}

func TestLeg_AllLegsReachStances(t *testing.T) {
	body := NewBody(Defaults())
	for _, stance := range []r3.Vector{spreadStance, baseStance} {
		for i := 0; i < NumLegs; i++ {
			leg := body.Leg(i)
			target := leg.BaseFrame().Apply(stance)
			if !reachable(leg, target) {
				t.Fatalf("leg %d stance %v outside workspace", i, stance)
			}
			angles, err := leg.ComputeIK(target)
			if err != nil {
				t.Fatalf("leg %d IK to %v failed: %v", i, target, err)
			}
			if got := leg.FootPosition(angles); got.Sub(target).Norm() > 1e-3 {
				t.Errorf("leg %d foot at %v, want %v", i, got, target)
			}
		}
	}
}

func TestLeg_IKFailureKeepsSeed(t *testing.T) {
	leg := NewLeg(0, Left, frontMountAngle, mountRadius, Defaults())
	target := leg.BaseFrame().Apply(baseStance)

	// Warm the seed with a good solve, then fail far outside the workspace.
	first, err := leg.ComputeIK(target)
	if err != nil {
		t.Fatalf("initial IK failed: %v", err)
	}
	if _, err := leg.ComputeIK(r3.Vector{X: 10}); err == nil {
		t.Fatal("IK to unreachable target should fail")
	}

	// The failed solve must not have corrupted the warm start.
	again, err := leg.ComputeIK(target)
	if err != nil {
		t.Fatalf("IK after failure failed: %v", err)
	}
	for i := range first {
		if math.Abs(again[i]-first[i]) > 1e-6 {
			t.Errorf("angle %d drifted after failed solve: %f vs %f", i, again[i], first[i])
		}
	}
}

func TestLeg_CompensateTorquesZeroCase(t *testing.T) {
	p := Defaults()
	tests := []struct {
		side  Side
		mount float64
	}{
		{Left, frontMountAngle},
		{Right, -frontMountAngle},
	}

	for _, tt := range tests {
		leg := NewLeg(0, tt.side, tt.mount, mountRadius, p)
		angles := []float64{0.2, -0.3, -1.9}

		// No gravity and no contact force leaves only the spring offset,
		// which is the same joint-space value on both sides.
		torques := leg.CompensateTorques(angles, nil, r3.Vector{}, r3.Vector{})
		want := []float64{0, -p.SpringShift, 0}
		for i := range torques {
			if torques[i] != want[i] {
				t.Errorf("%s torque %d = %f, want %f", tt.side, i, torques[i], want[i])
			}
		}
	}
}

func TestLeg_MirroredPosture(t *testing.T) {
	p := Defaults()
	left := NewLeg(0, Left, frontMountAngle, mountRadius, p)
	right := NewLeg(1, Right, -frontMountAngle, mountRadius, p)

	la, err := left.ComputeIK(left.BaseFrame().Apply(baseStance))
	if err != nil {
		t.Fatalf("left IK failed: %v", err)
	}
	ra, err := right.ComputeIK(right.BaseFrame().Apply(baseStance))
	if err != nil {
		t.Fatalf("right IK failed: %v", err)
	}

	// Mirror-image stances use identical joint values, so the two sides
	// stand with the same shoulder and knee bend.
	for i := range la {
		if math.Abs(la[i]-ra[i]) > 1e-6 {
			t.Errorf("joint %d: left %f, right %f", i, la[i], ra[i])
		}
	}

	// And both sides put their torques on the same side of zero.
	down := r3.Vector{Z: -9.8}
	lt := left.CompensateTorques(la, nil, down, r3.Vector{})
	rt := right.CompensateTorques(ra, nil, down, r3.Vector{})
	for i := range lt {
		if math.Abs(lt[i]-rt[i]) > 1e-6 {
			t.Errorf("torque %d: left %f, right %f", i, lt[i], rt[i])
		}
	}
}

func TestLeg_CompensateTorquesOpposesGravity(t *testing.T) {
	p := Defaults()
	leg := NewLeg(0, Left, frontMountAngle, mountRadius, p)

	target := leg.BaseFrame().Apply(baseStance)
	angles, err := leg.ComputeIK(target)
	if err != nil {
		t.Fatalf("IK failed: %v", err)
	}

	down := r3.Vector{Z: -9.8}
	base := leg.CompensateTorques(angles, nil, r3.Vector{}, r3.Vector{})
	loaded := leg.CompensateTorques(angles, nil, down, r3.Vector{})

	// Hanging leg mass must pull some torque away from the spring-only case.
	changed := false
	for i := range loaded {
		if math.Abs(loaded[i]-base[i]) > 1e-6 {
			changed = true
		}
	}
	if !changed {
		t.Error("gravity had no effect on compensation torques")
	}

	// Doubling gravity doubles the gravity contribution.
	double := leg.CompensateTorques(angles, nil, down.Mul(2), r3.Vector{})
	for i := range loaded {
		gravPart := loaded[i] - base[i]
		got := double[i] - base[i]
		if math.Abs(got-2*gravPart) > 1e-6 {
			t.Errorf("torque %d not linear in gravity: %f vs %f", i, got, 2*gravPart)
		}
	}
}

func TestLeg_SetJointAnglesLength(t *testing.T) {
	leg := NewLeg(0, Left, frontMountAngle, mountRadius, Defaults())
	if err := leg.SetJointAngles([]float64{1, 2}); err == nil {
		t.Error("short angle slice should be rejected")
	}
	if err := leg.SetJointAngles([]float64{0.1, 0.2, 0.3}); err != nil {
		t.Errorf("valid angle slice rejected: %v", err)
	}
	got := leg.JointAngles()
	got[0] = 99
	if leg.JointAngles()[0] == 99 {
		t.Error("JointAngles must return a copy")
	}
}
