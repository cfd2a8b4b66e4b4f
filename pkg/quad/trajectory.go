package quad

// jointTrajectory interpolates joint angles through waypoints with a cubic
// blend per segment (zero velocity at every waypoint). It stands in for the
// vendor's QP spline generator, which is enough for step-length motions at
// the control rate.
type jointTrajectory struct {
	times  []float64
	points [][]float64
}

// newJointTrajectory spaces the given waypoints evenly over total seconds.
func newJointTrajectory(total float64, waypoints ...[]float64) jointTrajectory {
	n := len(waypoints)
	times := make([]float64, n)
	for i := range times {
		times[i] = total * float64(i) / float64(n-1)
	}
	return jointTrajectory{times: times, points: waypoints}
}

// state evaluates positions and velocities at time t, clamped to the
// trajectory's span.
func (tr jointTrajectory) state(t float64) (pos, vel []float64) {
	n := len(tr.points)
	pos = make([]float64, NumJoints)
	vel = make([]float64, NumJoints)

	if t <= tr.times[0] {
		copy(pos, tr.points[0])
		return pos, vel
	}
	if t >= tr.times[n-1] {
		copy(pos, tr.points[n-1])
		return pos, vel
	}

	seg := 0
	for seg < n-2 && t > tr.times[seg+1] {
		seg++
	}
	t0, t1 := tr.times[seg], tr.times[seg+1]
	p0, p1 := tr.points[seg], tr.points[seg+1]

	dt := t1 - t0
	s := (t - t0) / dt
	h := s * s * (3 - 2*s)
	hdot := 6 * s * (1 - s) / dt

	for j := 0; j < NumJoints; j++ {
		d := p1[j] - p0[j]
		pos[j] = p0[j] + d*h
		vel[j] = d * hdot
	}
	return pos, vel
}
