package quad

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gwillem/quadpod/pkg/input"
	"github.com/gwillem/quadpod/pkg/transport"
)

var log = logrus.WithField("pkg", "quad")

// Mode selects the steady-state behavior entered once standup completes.
type Mode string

const (
	// ModeBalance holds the trunk level against the captured balance target.
	ModeBalance Mode = "balance"
	// ModeTrot walks with alternating diagonal leg pairs.
	ModeTrot Mode = "trot"
	// ModeOrient tilts the trunk to follow the operator's raw axes.
	ModeOrient Mode = "orient"
)

// DefaultPeriod is the control period: 5 ms, 200 Hz.
const DefaultPeriod = 5 * time.Millisecond

// ControllerConfig holds everything the controller needs to run.
type ControllerConfig struct {
	Group  transport.JointGroup
	Input  input.Adapter
	Params Parameters
	Mode   Mode
	Period time.Duration
}

// Controller owns the body model and runs the standup/gait state machine at
// a fixed rate on a single goroutine. All model state is confined to that
// goroutine; other goroutines observe it through the snapshot channel.
type Controller struct {
	body   *Body
	group  transport.JointGroup
	input  input.Adapter
	params Parameters
	mode   Mode
	period time.Duration

	phase phase

	mu      sync.Mutex
	running bool

	stateCh chan Snapshot
	logCh   chan string
}

// NewController wires a controller from its collaborators. Nil Input falls
// back to the neutral adapter; zero Period to the 5 ms default.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Group == nil {
		return nil, fmt.Errorf("controller needs a joint group")
	}
	if cfg.Input == nil {
		cfg.Input = input.Neutral{}
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBalance
	}

	return &Controller{
		body:    NewBody(cfg.Params),
		group:   cfg.Group,
		input:   cfg.Input,
		params:  cfg.Params,
		mode:    cfg.Mode,
		period:  cfg.Period,
		stateCh: make(chan Snapshot, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// Body returns the controller's body model. Only safe to touch from the
// control goroutine; use States for cross-thread observation.
func (c *Controller) Body() *Body { return c.body }

// States returns a channel receiving a state snapshot every cycle.
func (c *Controller) States() <-chan Snapshot { return c.stateCh }

// Logs returns a channel receiving log lines for the UI.
func (c *Controller) Logs() <-chan string { return c.logCh }

// State returns the name of the active phase.
func (c *Controller) State() State {
	if c.phase == nil {
		return StateSpread
	}
	return c.phase.State()
}

// Start runs the control loop until the context is canceled or the operator
// quits. Each cycle samples input, ingests feedback, ticks the state
// machine (which sends the joint command), and publishes a snapshot. The
// loop paces itself from the previous cycle's timestamp; when a cycle runs
// over budget the sleep is skipped and the loop catches up best-effort.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if en, ok := c.group.(interface{ Enable(context.Context) error }); ok {
		if err := en.Enable(ctx); err != nil {
			return fmt.Errorf("enable torque: %w", err)
		}
		c.logf("torque enabled")
	}
	defer c.shutdown()

	c.phase = &spreadPhase{entered: time.Now()}
	c.logf("control loop started, period %s, mode %s", c.period, c.mode)

	prev := time.Now()
	for {
		if remaining := c.period - time.Since(prev); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		now := time.Now()
		prev = now
		if quit := c.step(ctx, now); quit {
			c.logf("quit requested")
			return nil
		}
	}
}

// step executes exactly one control cycle: input, feedback, state machine,
// snapshot. Exposed to tests via the package boundary; production code only
// calls it from Start.
func (c *Controller) step(ctx context.Context, now time.Time) (quit bool) {
	c.input.Update()
	if c.input.QuitPressed() {
		return true
	}

	fb, err := c.group.NextFeedback(ctx)
	if err != nil {
		// Stale or absent feedback is tolerated; the models keep their
		// previous state for this cycle.
		log.WithError(err).Debug("feedback read failed")
	} else {
		c.body.IngestFeedback(fb)
	}

	next := c.phase.tick(ctx, c, now)
	if next.State() != c.phase.State() {
		c.logf("state=%s", next.State())
	}
	c.phase = next

	snap := c.body.Snapshot()
	snap.State = string(c.phase.State())
	c.sendState(snap)
	return false
}

// send pushes one joint command to the group, logging but otherwise
// tolerating transport errors.
func (c *Controller) send(ctx context.Context, cmd transport.Command) {
	if err := c.group.SendCommand(ctx, cmd); err != nil {
		log.WithError(err).Debug("send command failed")
	}
}

func (c *Controller) logIKFailure(leg int, err error) {
	// Per-tick IK failures are expected near workspace edges; the leg
	// holds its previous target for the cycle.
	log.WithError(err).WithField("leg", leg).Debug("ik failed, holding")
}

func (c *Controller) sendState(s Snapshot) {
	select {
	case c.stateCh <- s:
	default:
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) logf(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

func (c *Controller) shutdown() {
	if dis, ok := c.group.(interface{ Disable(context.Context) error }); ok {
		if err := dis.Disable(context.Background()); err != nil {
			c.logf("warning: failed to disable torque: %v", err)
		} else {
			c.logf("torque disabled")
		}
	}
	c.logf("control loop stopped")
}
