package transport

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "transport")

// FeetechGroup drives the robot's joints over a feetech serial servo bus.
// The bus protocol has no effort register, so effort commands are dropped
// (logged once); position feedback carries no IMU data.
type FeetechGroup struct {
	bus          *feetech.Bus
	group        *feetech.ServoGroup
	cals         []JointCalibration
	effortWarned bool
}

// NewFeetechGroup opens the bus on the given serial port and addresses the
// servos named by the calibration, in calibration order.
func NewFeetechGroup(port string, cals []JointCalibration) (*FeetechGroup, error) {
	if len(cals) != NumJoints {
		return nil, fmt.Errorf("calibration has %d joints, want %d", len(cals), NumJoints)
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ids := make([]int, len(cals))
	for i, c := range cals {
		ids[i] = c.ID
	}
	group := feetech.NewServoGroupByIDs(bus, ids...)

	return &FeetechGroup{bus: bus, group: group, cals: cals}, nil
}

// Enable enables torque on all servos.
func (g *FeetechGroup) Enable(ctx context.Context) error {
	return g.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (g *FeetechGroup) Disable(ctx context.Context) error {
	return g.group.DisableAll(ctx)
}

// SendCommand writes position setpoints using sync write. Velocity and
// effort fields are not supported by the bus and are ignored.
func (g *FeetechGroup) SendCommand(ctx context.Context, cmd Command) error {
	if cmd.Efforts != nil && !g.effortWarned {
		log.Debug("effort commands not supported by servo bus; ignoring")
		g.effortWarned = true
	}
	if cmd.Positions == nil {
		return nil
	}
	if len(cmd.Positions) != NumJoints {
		return fmt.Errorf("command has %d positions, want %d", len(cmd.Positions), NumJoints)
	}

	raw := make(feetech.PositionMap, NumJoints)
	for i, pos := range cmd.Positions {
		if math.IsNaN(pos) {
			continue
		}
		raw[g.cals[i].ID] = g.cals[i].ToCounts(pos)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := g.group.SetPositions(ctx, raw); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// NextFeedback sync-reads the current servo positions. Joints that did not
// answer are reported as NaN.
func (g *FeetechGroup) NextFeedback(ctx context.Context) (Feedback, error) {
	raw, err := g.group.Positions(ctx)
	if err != nil {
		return Feedback{}, fmt.Errorf("read positions: %w", err)
	}

	positions := make([]float64, NumJoints)
	for i, cal := range g.cals {
		counts, ok := raw[cal.ID]
		if !ok {
			positions[i] = math.NaN()
			continue
		}
		positions[i] = cal.ToRadians(counts)
	}
	return Feedback{Positions: positions}, nil
}

// Close closes the serial bus.
func (g *FeetechGroup) Close() error {
	return g.bus.Close()
}
