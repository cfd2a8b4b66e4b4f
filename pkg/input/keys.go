package input

import (
	"sync"

	"github.com/golang/geo/r3"
)

const (
	keyImpulse = 0.35 // command added per keypress
	keyDecay   = 0.90 // per-cycle decay toward zero
	rawStep    = 0.1  // raw axis step per arrow press
)

// Keys is an Adapter fed with key names from the terminal UI. Movement keys
// add an impulse that decays every cycle, so holding a key sustains a
// command and releasing it coasts back to zero. Arrow keys latch the raw
// vertical axes used by the operator-orient state.
//
// Push is called from the UI goroutine; everything else runs on the control
// goroutine. The pending key queue is the only shared state.
type Keys struct {
	mu      sync.Mutex
	pending []string

	trans     r3.Vector
	rot       r3.Vector
	leftVert  float64
	rightVert float64
	quit      bool
}

// NewKeys returns an idle Keys adapter.
func NewKeys() *Keys {
	return &Keys{}
}

// Push queues a key name ("w", "up", "q", ...) for the next Update.
func (k *Keys) Push(key string) {
	k.mu.Lock()
	k.pending = append(k.pending, key)
	k.mu.Unlock()
}

// Update drains queued keys into commands and decays held velocities.
func (k *Keys) Update() {
	k.mu.Lock()
	keys := k.pending
	k.pending = nil
	k.mu.Unlock()

	k.trans = k.trans.Mul(keyDecay)
	k.rot = k.rot.Mul(keyDecay)

	for _, key := range keys {
		switch key {
		case "w":
			k.trans.X += keyImpulse
		case "s":
			k.trans.X -= keyImpulse
		case "a":
			k.trans.Y += keyImpulse
		case "d":
			k.trans.Y -= keyImpulse
		case "q":
			k.rot.Z += keyImpulse
		case "e":
			k.rot.Z -= keyImpulse
		case "up":
			k.rightVert = clamp(k.rightVert+rawStep, -1, 1)
		case "down":
			k.rightVert = clamp(k.rightVert-rawStep, -1, 1)
		case "left":
			k.leftVert = clamp(k.leftVert+rawStep, -1, 1)
		case "right":
			k.leftVert = clamp(k.leftVert-rawStep, -1, 1)
		case "esc", "ctrl+c":
			k.quit = true
		}
	}

	k.trans = clampVec(k.trans)
	k.rot = clampVec(k.rot)
}

func (k *Keys) TranslationVelocity() r3.Vector { return k.trans }
func (k *Keys) RotationVelocity() r3.Vector    { return k.rot }
func (k *Keys) LeftVertRaw() float64           { return k.leftVert }
func (k *Keys) RightVertRaw() float64          { return k.rightVert }
func (k *Keys) QuitPressed() bool              { return k.quit }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: clamp(v.X, -1, 1),
		Y: clamp(v.Y, -1, 1),
		Z: clamp(v.Z, -1, 1),
	}
}
