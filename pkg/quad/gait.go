package quad

import (
	"context"
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/gwillem/quadpod/pkg/kin"
	"github.com/gwillem/quadpod/pkg/transport"
)

// State names the current phase of the standup/gait machine, for logs and
// telemetry.
type State string

const (
	StateSpread     State = "stand_up_spread"
	StatePush       State = "stand_up_push"
	StatePrepare    State = "stand_up_prepare"
	StateSwingLeft  State = "swing_left"
	StateSwingRight State = "swing_right"
	StateOrient     State = "orient"
	StateBalance    State = "passive_orient"
)

// Foot targets in the leg base frame. Spread plants the feet wide with the
// belly down; stance tucks them under the standing trunk.
var (
	spreadStance = r3.Vector{X: 0.55, Z: 0.05}
	baseStance   = r3.Vector{X: 0.36, Z: -0.31}
)

// phase is one state of the machine. Each phase value owns exactly the
// scratch data it needs; ticking returns the phase for the next cycle,
// which is the receiver itself unless a transition fires.
type phase interface {
	State() State
	tick(ctx context.Context, c *Controller, now time.Time) phase
}

// spreadPhase drives all feet outward until the startup duration elapses.
type spreadPhase struct {
	entered time.Time
}

func (p *spreadPhase) State() State { return StateSpread }

func (p *spreadPhase) tick(ctx context.Context, c *Controller, now time.Time) phase {
	cmd := transport.NewCommand()
	for i := 0; i < NumLegs; i++ {
		leg := c.body.Leg(i)
		target := leg.BaseFrame().Apply(spreadStance)
		angles, err := leg.ComputeIK(target)
		if err != nil {
			c.logIKFailure(i, err)
			continue
		}
		setLegCommand(&cmd, i, angles, nil, nil)
	}
	c.send(ctx, cmd)

	if now.Sub(p.entered).Seconds() >= c.params.StartupSeconds {
		return &pushPhase{entered: now}
	}
	return p
}

// pushPhase pushes the feet down under the trunk, ramping the supported
// share of body weight over the phase so the legs load up gradually.
type pushPhase struct {
	entered time.Time
}

func (p *pushPhase) State() State { return StatePush }

func (p *pushPhase) tick(ctx context.Context, c *Controller, now time.Time) phase {
	elapsed := now.Sub(p.entered).Seconds()
	ramp := elapsed / c.params.StartupSeconds
	if ramp > 1 {
		ramp = 1
	}
	gravity := c.body.GravityDirection().Mul(9.8)
	share := c.body.GravityDirection().Mul(-ramp * c.body.Weight() / NumLegs)

	cmd := transport.NewCommand()
	for i := 0; i < NumLegs; i++ {
		leg := c.body.Leg(i)
		target := leg.BaseFrame().Apply(baseStance)
		angles, err := leg.ComputeIK(target)
		if err != nil {
			c.logIKFailure(i, err)
			continue
		}
		torques := leg.CompensateTorques(angles, nil, gravity, share)
		setLegCommand(&cmd, i, angles, nil, torques)
	}
	c.send(ctx, cmd)

	if elapsed >= c.params.StartupSeconds {
		// From here on the IMU estimate feeds the body rotation.
		c.body.StartRotationTracking()
		return &preparePhase{entered: now}
	}
	return p
}

// preparePhase settles the legs into the quadruped stance under a constant
// quarter-weight load, then hands over to the steady-state behavior.
type preparePhase struct {
	entered time.Time
}

func (p *preparePhase) State() State { return StatePrepare }

func (p *preparePhase) tick(ctx context.Context, c *Controller, now time.Time) phase {
	gravity := c.body.GravityDirection().Mul(9.8)
	share := c.body.GravityDirection().Mul(-0.25 * c.body.Weight())

	cmd := transport.NewCommand()
	for i := 0; i < NumLegs; i++ {
		leg := c.body.Leg(i)
		target := leg.BaseFrame().Apply(baseStance)
		angles, err := leg.ComputeIK(target)
		if err != nil {
			c.logIKFailure(i, err)
			continue
		}
		torques := leg.CompensateTorques(angles, nil, gravity, share)
		setLegCommand(&cmd, i, angles, nil, torques)
	}
	c.send(ctx, cmd)

	if now.Sub(p.entered).Seconds() >= c.params.StartupSeconds {
		c.body.CaptureBalance()
		switch c.mode {
		case ModeTrot:
			return newSwingPhase(c, swingGroupLeft, now)
		case ModeOrient:
			return &orientPhase{}
		default:
			return &passiveOrientPhase{control: kin.Identity()}
		}
	}
	return p
}

// Swing groups of the trot: diagonal pairs swing together while the other
// pair stays in stance.
const (
	swingGroupLeft  = 0 // LF+RH swing
	swingGroupRight = 1 // RF+LH swing
)

var swingLegs = [2][2]int{
	{LegLF, LegRH},
	{LegRF, LegLH},
}

// legPlan is one leg's planned joint trajectory for the current swing
// phase. A failed plan leaves ok false and the leg holds its angles.
type legPlan struct {
	leg  int
	traj jointTrajectory
	ok   bool
}

// swingPhase executes planned swing and stance trajectories for one
// diagonal pair, then flips to the other pair.
type swingPhase struct {
	entered time.Time
	group   int
	swing   [2]legPlan
	stance  [2]legPlan
}

// newSwingPhase plans trajectories for the given group and returns the
// phase ready to execute them.
func newSwingPhase(c *Controller, group int, now time.Time) *swingPhase {
	p := &swingPhase{entered: now, group: group}

	v := c.input.TranslationVelocity()
	stride := r3.Vector{
		X: c.params.StrideLength * clamp1(v.X),
		Y: c.params.StrideLength * clamp1(v.Y),
	}

	for i, legIdx := range swingLegs[group] {
		p.swing[i] = c.planSwing(legIdx, stride)
	}
	for i, legIdx := range swingLegs[1-group] {
		p.stance[i] = c.planStance(legIdx)
	}
	return p
}

func (p *swingPhase) State() State {
	if p.group == swingGroupLeft {
		return StateSwingLeft
	}
	return StateSwingRight
}

func (p *swingPhase) tick(ctx context.Context, c *Controller, now time.Time) phase {
	elapsed := now.Sub(p.entered).Seconds()
	gravity := c.body.GravityDirection().Mul(9.8)
	// Swing feet carry a small fraction of the weight through the step;
	// the stance pair is position-held with gravity compensation only.
	swingForce := c.body.GravityDirection().Mul(-0.2 * c.body.Weight())

	cmd := transport.NewCommand()
	exec := func(plan legPlan, footForce r3.Vector) {
		leg := c.body.Leg(plan.leg)
		if !plan.ok {
			setLegCommand(&cmd, plan.leg, leg.JointAngles(), nil, nil)
			return
		}
		angles, vels := plan.traj.state(elapsed)
		torques := leg.CompensateTorques(angles, vels, gravity, footForce)
		setLegCommand(&cmd, plan.leg, angles, vels, torques)
	}
	for _, plan := range p.swing {
		exec(plan, swingForce)
	}
	for _, plan := range p.stance {
		exec(plan, r3.Vector{})
	}
	c.send(ctx, cmd)

	if elapsed >= c.params.LegSwingSeconds {
		return newSwingPhase(c, 1-p.group, now)
	}
	return p
}

// orientPhase tilts the trunk to follow the operator's raw roll/pitch axes.
// It has no exit; the loop runs it until quit.
type orientPhase struct{}

func (p *orientPhase) State() State { return StateOrient }

const orientMaxTilt = 16.0 * math.Pi / 180.0

func (p *orientPhase) tick(ctx context.Context, c *Controller, now time.Time) phase {
	target := kin.RotY(c.input.RightVertRaw() * orientMaxTilt).
		Mul(kin.RotX(c.input.LeftVertRaw() * orientMaxTilt))
	c.reOrient(ctx, target)
	return p
}

// passiveOrientPhase regulates the trunk toward the balance target captured
// at standup. Each tick it takes the angle-axis of the remaining error,
// scales it by the passive gain, and folds it into the accumulated control
// rotation: a discrete integral controller on SO(3) that approaches the
// target without overshoot.
type passiveOrientPhase struct {
	control kin.Rotation
}

func (p *passiveOrientPhase) State() State { return StateBalance }

func (p *passiveOrientPhase) tick(ctx context.Context, c *Controller, now time.Time) phase {
	diff := c.body.Balance().Mul(c.body.Rotation().Transpose())
	theta, axis := diff.AngleAxis()
	step := kin.FromAngleAxis(c.params.PassiveOrientGain*theta, axis)
	p.control = p.control.Mul(step).Orthonormalized()
	c.reOrient(ctx, p.control)
	return p
}

// reOrient commands all four feet so the trunk takes on the target rotation
// at nominal height: each foot stays planted at its stance corner on the
// ground while the body frame rotates above them.
func (c *Controller) reOrient(ctx context.Context, target kin.Rotation) {
	gravity := c.body.GravityDirection().Mul(9.8)
	share := c.body.GravityDirection().Mul(-0.25 * c.body.Weight())

	corners := [NumLegs]r3.Vector{
		LegLF: {X: footBarX, Y: footBarY},
		LegRF: {X: footBarX, Y: -footBarY},
		LegLH: {X: -footBarX, Y: footBarY},
		LegRH: {X: -footBarX, Y: -footBarY},
	}

	cmd := transport.NewCommand()
	for i := 0; i < NumLegs; i++ {
		leg := c.body.Leg(i)
		// Ground-frame foot corner relative to the trunk center, rotated
		// into the tilted body frame.
		ground := corners[i].Sub(r3.Vector{Z: c.params.NominalHeight})
		bodyTarget := target.Transpose().Apply(ground)

		angles, err := leg.ComputeIK(bodyTarget)
		if err != nil {
			c.logIKFailure(i, err)
			continue
		}
		torques := leg.CompensateTorques(angles, nil, gravity, share)
		setLegCommand(&cmd, i, angles, nil, torques)
	}
	c.send(ctx, cmd)
}

// planSwing plans a three-waypoint step for one swing leg: from where the
// foot is now, up and forward by half the stride, then down at the full
// stride.
func (c *Controller) planSwing(legIdx int, stride r3.Vector) legPlan {
	leg := c.body.Leg(legIdx)
	start := leg.JointAngles()
	startPos := leg.FootPosition(start)

	midPos := startPos.Add(stride.Mul(0.5)).Add(r3.Vector{Z: c.params.StepLiftHeight})
	endPos := startPos.Add(stride)

	mid, err := leg.ComputeIK(midPos)
	if err != nil {
		c.logIKFailure(legIdx, err)
		return legPlan{leg: legIdx}
	}
	end, err := leg.ComputeIK(endPos)
	if err != nil {
		c.logIKFailure(legIdx, err)
		return legPlan{leg: legIdx}
	}

	return legPlan{
		leg:  legIdx,
		traj: newJointTrajectory(c.params.LegSwingSeconds, start, mid, end),
		ok:   true,
	}
}

// planStance plans the matching trajectory for a stance leg: drag the foot
// from where it is back toward its home stance, pressed slightly into the
// ground at the midpoint.
func (c *Controller) planStance(legIdx int) legPlan {
	leg := c.body.Leg(legIdx)
	start := leg.JointAngles()
	startPos := leg.FootPosition(start)
	home := leg.BaseFrame().Apply(baseStance)

	midPos := startPos.Add(home).Mul(0.5).Add(r3.Vector{Z: -0.01})

	mid, err := leg.ComputeIK(midPos)
	if err != nil {
		c.logIKFailure(legIdx, err)
		return legPlan{leg: legIdx}
	}
	end, err := leg.ComputeIK(home)
	if err != nil {
		c.logIKFailure(legIdx, err)
		return legPlan{leg: legIdx}
	}

	return legPlan{
		leg:  legIdx,
		traj: newJointTrajectory(c.params.LegSwingSeconds, start, mid, end),
		ok:   true,
	}
}

// setLegCommand writes one leg's setpoints into the group command. Nil
// slices leave the corresponding joints NaN (not commanded).
func setLegCommand(cmd *transport.Command, leg int, pos, vel, eff []float64) {
	off := leg * NumJoints
	for j := 0; j < NumJoints; j++ {
		if pos != nil {
			cmd.Positions[off+j] = pos[j]
		}
		if vel != nil {
			cmd.Velocities[off+j] = vel[j]
		}
		if eff != nil {
			cmd.Efforts[off+j] = eff[j]
		}
	}
}

func clamp1(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
