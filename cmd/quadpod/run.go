package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/quadpod/pkg/input"
	"github.com/gwillem/quadpod/pkg/quad"
	"github.com/gwillem/quadpod/pkg/telemetry"
	"github.com/gwillem/quadpod/pkg/transport"
)

type RunCommand struct {
	Sim  bool   `long:"sim" description:"Drive a simulated servo group instead of hardware"`
	Hz   int    `long:"hz" default:"200" description:"Control loop frequency"`
	Mode string `long:"mode" default:"balance" choice:"balance" choice:"trot" choice:"orient" description:"Behavior after standup"`
	MQTT string `long:"mqtt" description:"MQTT broker URL for telemetry (e.g. tcp://localhost:1883)"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Gravity component colors for the chart.
var gravityColors = map[string]string{
	"gx": "196", // red
	"gy": "46",  // green
	"gz": "51",  // cyan
}

var gravityOrder = []string{"gx", "gy", "gz"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	stateStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

type runModel struct {
	ctrl     *quad.Controller
	keys     *input.Keys
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	state    string
	quitting bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller. Snapshots arrive via p.Send from the fan-out
// goroutine so telemetry can tap the same stream; logs are pulled directly.
type stateMsg quad.Snapshot
type logMsg string

func waitForLog(ctrl *quad.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *runModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialRunModel(ctrl *quad.Controller, keys *input.Keys) runModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-1.2, 1.2),
	)

	for _, name := range gravityOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gravityColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return runModel{
		ctrl:  ctrl,
		keys:  keys,
		chart: &chart,
		state: "spread",
	}
}

func (m runModel) Init() tea.Cmd {
	return waitForLog(m.ctrl)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		m.keys.Push(key)
		if key == "esc" || key == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case stateMsg:
		snap := quad.Snapshot(msg)
		m.state = snap.State
		m.chart.PushDataSet("gx", snap.Gravity[0])
		m.chart.PushDataSet("gy", snap.Gravity[1])
		m.chart.PushDataSet("gz", snap.Gravity[2])
		m.chart.DrawAll()
		return m, nil

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Controller stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Quadpod"))
	sb.WriteString("  state=" + stateStyle.Render(m.state))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart: body-frame gravity direction; flat ground reads (0, 0, -1)
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("wasd: walk  q/e: turn  arrows: tilt  esc: quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, name := range gravityOrder {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(gravityColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	if c.Hz <= 0 {
		c.Hz = 200
	}
	params := quad.Defaults()
	var group transport.JointGroup

	if c.Sim {
		group = transport.NewSimGroup(nil, 0)
		fmt.Println("Running against simulated servos")
	} else {
		cfg, err := quad.LoadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "No configuration found. Run 'quadpod setup' first.")
			os.Exit(1)
		}
		if cfg.Port == "" || !cfg.IsCalibrated() {
			fmt.Fprintln(os.Stderr, "Robot not calibrated. Run 'quadpod setup' first.")
			os.Exit(1)
		}
		params = cfg.Params
		fmt.Printf("Loaded configuration from %s\n", quad.DefaultConfigFile)

		fg, err := transport.NewFeetechGroup(cfg.Port, cfg.Calibration)
		if err != nil {
			log.Fatalf("Failed to open servo bus: %v", err)
		}
		group = fg
	}
	defer group.Close()

	keys := input.NewKeys()

	ctrl, err := quad.NewController(quad.ControllerConfig{
		Group:  group,
		Input:  keys,
		Params: params,
		Mode:   quad.Mode(c.Mode),
		Period: time.Second / time.Duration(c.Hz),
	})
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}

	var pub *telemetry.Publisher
	if c.MQTT != "" {
		pub, err = telemetry.NewPublisher(c.MQTT, "quadpod/state")
		if err != nil {
			log.Fatalf("Failed to connect telemetry: %v", err)
		}
		defer pub.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	model := initialRunModel(ctrl, keys)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// One fan-out goroutine owns the snapshot stream: every snapshot goes to
	// the TUI, and to the broker when telemetry is on.
	var feed chan quad.Snapshot
	if pub != nil {
		feed = make(chan quad.Snapshot, 8)
		go pub.Run(feed)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-ctrl.States():
				p.Send(stateMsg(s))
				if feed != nil {
					select {
					case feed <- s:
					default:
					}
				}
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
