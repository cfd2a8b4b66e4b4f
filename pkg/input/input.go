// Package input turns an operator device into normalized velocity commands
// for the controller. The controller polls Update once per cycle and reads
// the commands it needs; adapters own whatever device state they wrap.
package input

import "github.com/golang/geo/r3"

// Adapter is the operator command source read once per control cycle.
// Velocity commands are normalized to [-1, 1] per axis; the raw vertical
// axes feed the operator-driven orientation state directly.
type Adapter interface {
	// Update samples the device. Called exactly once per control cycle,
	// before any command getters.
	Update()

	TranslationVelocity() r3.Vector
	RotationVelocity() r3.Vector

	LeftVertRaw() float64
	RightVertRaw() float64

	QuitPressed() bool
}

// Neutral is an Adapter that commands nothing. It stands in when no input
// device is available, so the robot still stands up and balances.
type Neutral struct{}

func (Neutral) Update()                        {}
func (Neutral) TranslationVelocity() r3.Vector { return r3.Vector{} }
func (Neutral) RotationVelocity() r3.Vector    { return r3.Vector{} }
func (Neutral) LeftVertRaw() float64           { return 0 }
func (Neutral) RightVertRaw() float64          { return 0 }
func (Neutral) QuitPressed() bool              { return false }
