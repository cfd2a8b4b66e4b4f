// Package quadpod drives a four-legged walking robot built from serial bus
// servos, three joints per leg.
//
// The robot stands up in three timed phases (spread, push, prepare), then
// either balances its trunk against a captured reference orientation, trots
// with diagonal leg pairs, or follows operator roll/pitch input.
//
// # Usage
//
// First, run setup to find the servo bus and write quadpod.json:
//
//	quadpod setup
//
// Then start the controller (add --sim to run without hardware):
//
//	quadpod run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/quadpod: CLI with setup and run commands
//   - pkg/quad: leg and body models, gait state machine, control loop
//   - pkg/kin: kinematic chains, Jacobians, inverse kinematics, rotations
//   - pkg/transport: joint group command/feedback over the servo bus
//   - pkg/input: operator velocity command sources
//   - pkg/telemetry: optional MQTT state publishing
package quadpod
