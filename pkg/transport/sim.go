package transport

import (
	"context"
	"math"
	"sync"
)

// SimGroup is an actuator group without hardware: commanded positions are
// tracked with a first-order lag and echoed back as feedback, with an
// identity IMU orientation. It lets the full control stack run on a desk.
type SimGroup struct {
	mu      sync.Mutex
	current []float64
	target  []float64
	alpha   float64
}

// NewSimGroup returns a simulated group starting at the given joint angles
// (nil for all-zero). alpha in (0,1] is the per-sample tracking fraction.
func NewSimGroup(initial []float64, alpha float64) *SimGroup {
	cur := make([]float64, NumJoints)
	copy(cur, initial)
	tgt := make([]float64, NumJoints)
	copy(tgt, cur)
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	return &SimGroup{current: cur, target: tgt, alpha: alpha}
}

// SendCommand records position setpoints; NaN entries keep the previous
// setpoint, matching the bus semantics.
func (g *SimGroup) SendCommand(_ context.Context, cmd Command) error {
	if cmd.Positions == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, pos := range cmd.Positions {
		if i >= NumJoints {
			break
		}
		if !math.IsNaN(pos) {
			g.target[i] = pos
		}
	}
	return nil
}

// NextFeedback advances the joints one lag step toward their setpoints and
// returns the result.
func (g *SimGroup) NextFeedback(_ context.Context) (Feedback, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	positions := make([]float64, NumJoints)
	for i := range g.current {
		g.current[i] += g.alpha * (g.target[i] - g.current[i])
		positions[i] = g.current[i]
	}
	return Feedback{
		Positions:   positions,
		Orientation: &Quaternion{W: 1},
	}, nil
}

// Close is a no-op.
func (g *SimGroup) Close() error { return nil }
