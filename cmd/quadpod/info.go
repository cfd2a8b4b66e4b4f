package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/quadpod/pkg/quad"
	"github.com/gwillem/quadpod/pkg/transport"
)

type InfoCommand struct{}

// Execute scans the serial ports for the robot and prints one row per servo:
// raw counts, and the calibrated joint angle when a config is on disk.
func (c *InfoCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Quadpod Info"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	var cfg *quad.Config
	if quad.ConfigExists() {
		loaded, err := quad.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		} else {
			cfg = loaded
			fmt.Printf("Config: port %s, calibrated: %v\n\n", cfg.Port, cfg.IsCalibrated())
		}
	} else {
		fmt.Println("No configuration found; showing raw counts only.")
		fmt.Println()
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
		os.Exit(1)
	}

	found := false
	for _, port := range ports {
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		if printRobotOn(port, cfg) {
			found = true
		}
	}

	if !found {
		fmt.Println("No robot found.")
		fmt.Println("Make sure the robot is connected and powered on.")
		os.Exit(1)
	}
	return nil
}

func printRobotOn(port string, cfg *quad.Config) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return false
	}
	defer bus.Close()

	servos, err := bus.Scan(ctx, 1, transport.NumJoints)
	if err != nil || len(servos) == 0 {
		return false
	}

	fmt.Printf("Found %d servo(s) on %s\n", len(servos), port)

	byID := make(map[int]feetech.FoundServo)
	for _, s := range servos {
		byID[s.ID] = s
	}

	calByID := make(map[int]transport.JointCalibration)
	if cfg != nil && cfg.IsCalibrated() {
		for _, cal := range cfg.Calibration {
			calByID[cal.ID] = cal
		}
	}

	rows := make([][]string, 0, transport.NumJoints)
	for id := 1; id <= transport.NumJoints; id++ {
		s, ok := byID[id]
		if !ok {
			rows = append(rows, []string{fmt.Sprintf("%d", id), legNames[id-1], "-", "-", "-"})
			continue
		}
		servo := feetech.NewServo(bus, s.ID, s.Model)
		pos, err := servo.Position(context.Background())
		model := fmt.Sprintf("%v", s.Model)
		if err != nil {
			rows = append(rows, []string{fmt.Sprintf("%d", id), legNames[id-1], model, "?", "?"})
			continue
		}

		angle := "-"
		if cal, ok := calByID[id]; ok {
			angle = fmt.Sprintf("%+.3f", cal.ToRadians(pos))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", id),
			legNames[id-1],
			model,
			fmt.Sprintf("%d", pos),
			angle,
		})
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Joint", "Model", "Counts", "Angle [rad]").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
			}
			return cellStyle
		})
	fmt.Println(t.Render())
	return true
}
