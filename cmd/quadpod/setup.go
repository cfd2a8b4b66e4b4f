package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/quadpod/pkg/quad"
	"github.com/gwillem/quadpod/pkg/transport"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Quadpod Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	port := scanForRobot()

	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Recording Home Pose ━━━"))
	fmt.Println()

	cals := recordHomePose(port)

	config := &quad.Config{
		Port:        port,
		Calibration: cals,
		Params:      quad.Defaults(),
	}
	if err := config.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", quad.DefaultConfigFile)
	fmt.Println()
	fmt.Println("Stand the robot up with: " + headerStyle.Render("quadpod run"))

	return nil
}

// scanForRobot walks the serial ports looking for a bus that answers on all
// twelve servo IDs, and confirms the match by wiggling one joint.
func scanForRobot() string {
	fmt.Println("Scanning for the robot...")
	fmt.Println()

	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		os.Exit(1)
	}

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			cancel()
			continue
		}

		servos, err := bus.Scan(ctx, 1, transport.NumJoints)
		cancel()
		if err != nil || !isQuadruped(servos) {
			bus.Close()
			continue
		}

		fmt.Printf("  Found %d servos on %s\n", transport.NumJoints, port)
		if confirmWithWiggle(bus, servos, port) {
			bus.Close()
			return port
		}
		bus.Close()
	}

	fmt.Println("No robot found.")
	fmt.Println("Make sure the robot is connected and powered on.")
	os.Exit(1)
	return ""
}

func isQuadruped(servos []feetech.FoundServo) bool {
	if len(servos) != transport.NumJoints {
		return false
	}
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= transport.NumJoints; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

// confirmWithWiggle moves servo 1 gently and asks the operator whether the
// robot moved.
func confirmWithWiggle(bus *feetech.Bus, servos []feetech.FoundServo, port string) bool {
	ctx := context.Background()

	var servo *feetech.Servo
	for _, s := range servos {
		if s.ID == 1 {
			servo = feetech.NewServo(bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return false
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return false
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return false
	}

	fmt.Printf("\n  Wiggling the front-left hip on %s...\n", port)

	wiggleAmount := 30
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	servo.Disable(ctx)

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Did the robot on %s just wiggle?", port)).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return ok
}

// recordHomePose disables torque so the operator can pose the robot, shows
// the live servo counts, and captures them as the joint centers on Enter.
func recordHomePose(port string) []transport.JointCalibration {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bus: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	servos, err := bus.Scan(ctx, 1, transport.NumJoints)
	cancel()
	if err != nil || !isQuadruped(servos) {
		fmt.Fprintln(os.Stderr, "Robot no longer answering on all servos.")
		os.Exit(1)
	}

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
		servoMap[s.ID].Disable(context.Background())
	}

	fmt.Println("Pose the robot in its home position:")
	fmt.Println("all legs folded flat, feet pointing straight back.")
	fmt.Println()

	cur := make(map[int]int)
	for id, servo := range servoMap {
		pos, _ := servo.Position(context.Background())
		cur[id] = pos
	}

	model := newPoseModel(servoMap, cur)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running pose capture: %v\n", err)
		os.Exit(1)
	}
	pm := finalModel.(poseModel)

	cals := transport.DefaultCalibration()
	for i := range cals {
		cals[i].Center = pm.positions[cals[i].ID]
	}

	fmt.Println()
	fmt.Println("Home pose recorded.")
	return cals
}

// Pose capture TUI model
type poseModel struct {
	servoMap  map[int]*feetech.Servo
	positions map[int]int
	quitting  bool
}

type tickMsg time.Time

func newPoseModel(servoMap map[int]*feetech.Servo, positions map[int]int) poseModel {
	return poseModel{servoMap: servoMap, positions: positions}
}

func (m poseModel) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m poseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for id, servo := range m.servoMap {
			pos, err := servo.Position(ctx)
			if err != nil {
				continue
			}
			m.positions[id] = pos
		}
		return m, tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}

	return m, nil
}

var legNames = [transport.NumJoints]string{
	"LF hip", "LF shoulder", "LF knee",
	"RF hip", "RF shoulder", "RF knee",
	"LH hip", "LH shoulder", "LH knee",
	"RH hip", "RH shoulder", "RH knee",
}

func (m poseModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, transport.NumJoints)
	for id := 1; id <= transport.NumJoints; id++ {
		rows = append(rows, []string{
			fmt.Sprintf("%d", id),
			legNames[id-1],
			fmt.Sprintf("%d", m.positions[id]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Joint", "Counts").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 1 {
				return tableJointStyle
			}
			return tableCellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter to capture the home pose"))

	return sb.String()
}
