// Package quad implements the quadruped itself: per-leg kinematics and
// torque compensation, the body model, and the standup/gait state machine
// that drives them at a fixed control rate.
package quad

// Parameters holds the tunable control parameters. Geometry that is baked
// into the mechanics (mount angles, link lengths) lives as constants next to
// the leg model instead.
type Parameters struct {
	// StartupSeconds is the wall-clock duration of each standup phase.
	StartupSeconds float64 `json:"startup_seconds"`

	// LegSwingSeconds is the duration of one swing phase of the trot.
	LegSwingSeconds float64 `json:"leg_swing_seconds"`

	// PassiveOrientGain is the fraction of the orientation error folded
	// into the control rotation each tick while self-balancing.
	PassiveOrientGain float64 `json:"passive_orient_gain"`

	// NominalHeight is the standing height of the trunk above ground [m].
	NominalHeight float64 `json:"nominal_height"`

	// Mass is the total robot mass [kg], used for foot force distribution.
	Mass float64 `json:"mass"`

	// SpringShift is the magnitude of the constant shoulder torque offset
	// compensating the leg assist springs [N*m].
	SpringShift float64 `json:"spring_shift"`

	// StrideLength is the foot travel of a full-deflection swing step [m].
	StrideLength float64 `json:"stride_length"`

	// StepLiftHeight is how high a swing foot is raised mid-step [m].
	StepLiftHeight float64 `json:"step_lift_height"`
}

// Defaults returns the parameter set tuned for the stock robot.
func Defaults() Parameters {
	return Parameters{
		StartupSeconds:    1.9,
		LegSwingSeconds:   0.5,
		PassiveOrientGain: 0.031,
		NominalHeight:     0.3,
		Mass:              21.0,
		SpringShift:       3.75,
		StrideLength:      0.10,
		StepLiftHeight:    0.08,
	}
}
