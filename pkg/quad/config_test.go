package quad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gwillem/quadpod/pkg/transport"
)

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quadpod.json")

	cfg := &Config{
		Port:        "/dev/ttyUSB0",
		Calibration: transport.DefaultCalibration(),
		Params:      Defaults(),
	}
	cfg.Calibration[3].Center = 1234
	cfg.Calibration[3].Invert = true
	cfg.Params.StrideLength = 0.12

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom failed: %v", err)
	}
	if got.Port != cfg.Port {
		t.Errorf("port = %s, want %s", got.Port, cfg.Port)
	}
	if got.Calibration[3].Center != 1234 || !got.Calibration[3].Invert {
		t.Errorf("calibration not preserved: %+v", got.Calibration[3])
	}
	if got.Params.StrideLength != 0.12 {
		t.Errorf("stride length = %f, want 0.12", got.Params.StrideLength)
	}
}

func TestConfig_LoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quadpod.json")

	// A config file written before a parameter existed still gets that
	// parameter's default on load.
	if err := os.WriteFile(path, []byte(`{"port":"/dev/ttyACM0","parameters":{"mass":25}}`), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom failed: %v", err)
	}
	if got.Params.Mass != 25 {
		t.Errorf("mass = %f, want 25", got.Params.Mass)
	}
	if got.Params.StartupSeconds != Defaults().StartupSeconds {
		t.Errorf("startup seconds = %f, want default %f", got.Params.StartupSeconds, Defaults().StartupSeconds)
	}
}

func TestConfig_IsCalibrated(t *testing.T) {
	cfg := &Config{}
	if cfg.IsCalibrated() {
		t.Error("empty config reports calibrated")
	}
	cfg.Calibration = transport.DefaultCalibration()
	if !cfg.IsCalibrated() {
		t.Error("full calibration not detected")
	}
}

func TestConfig_LoadMissingFile(t *testing.T) {
	if _, err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("loading a missing file should fail")
	}
}
