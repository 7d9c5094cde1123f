package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sensor:\n  source: sim\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Smoothing.Gain != 0.15 {
		t.Fatalf("gain=%v want=0.15", cfg.Smoothing.Gain)
	}
	if cfg.Smoothing.SnapEpsilonDeg != 0.05 {
		t.Fatalf("snap=%v want=0.05", cfg.Smoothing.SnapEpsilonDeg)
	}
	if cfg.Smoothing.FrameInterval != 16*time.Millisecond {
		t.Fatalf("frame_interval=%v want=16ms", cfg.Smoothing.FrameInterval)
	}
	if cfg.Smoothing.StaleAfter != 2*time.Second {
		t.Fatalf("stale_after=%v want=2s", cfg.Smoothing.StaleAfter)
	}
	if cfg.Sensor.I2CBus != 1 || cfg.Sensor.Rate != 20*time.Millisecond {
		t.Fatalf("sensor defaults wrong: %+v", cfg.Sensor)
	}
	if cfg.Web.Listen != ":8080" {
		t.Fatalf("listen=%q want=:8080", cfg.Web.Listen)
	}
	if cfg.Sim.Period != 60*time.Second {
		t.Fatalf("sim.period=%v want=60s", cfg.Sim.Period)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	body := `
sensor:
  source: imu
  policy: native-only
  i2c_bus: 3
  imu_addr: 0x28
  rate: 10ms
smoothing:
  gain: 0.25
  snap_epsilon_deg: 0.1
  frame_interval: 33ms
calibration:
  offset_deg: -12.5
  button:
    enable: true
    gpio_pin: 17
meanings:
  path: ./meanings.yaml
web:
  listen: ":9090"
udp:
  enable: true
  dest: "127.0.0.1:4000"
record:
  enable: true
  path: ./samples.log
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sensor.Policy != "native-only" || cfg.Sensor.I2CBus != 3 || cfg.Sensor.IMUAddr != 0x28 {
		t.Fatalf("sensor: %+v", cfg.Sensor)
	}
	if cfg.Smoothing.Gain != 0.25 || cfg.Smoothing.FrameInterval != 33*time.Millisecond {
		t.Fatalf("smoothing: %+v", cfg.Smoothing)
	}
	if cfg.Calibration.OffsetDeg != -12.5 || cfg.Calibration.Button.GPIOPin != 17 {
		t.Fatalf("calibration: %+v", cfg.Calibration)
	}
	if cfg.Calibration.Button.Debounce != 20*time.Millisecond {
		t.Fatalf("button debounce default: %v", cfg.Calibration.Button.Debounce)
	}
	if !cfg.UDP.Enable || cfg.UDP.Interval != 100*time.Millisecond {
		t.Fatalf("udp: %+v", cfg.UDP)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad source", "sensor:\n  source: gps\n", "sensor.source"},
		{"bad policy", "sensor:\n  policy: euler-only\n", "sensor.policy"},
		{"bad gain", "smoothing:\n  gain: 1.5\n", "smoothing.gain"},
		{"negative epsilon", "smoothing:\n  snap_epsilon_deg: -1\n", "snap_epsilon_deg"},
		{"button without pin", "calibration:\n  button:\n    enable: true\n", "gpio_pin"},
		{"udp without dest", "udp:\n  enable: true\n", "udp.dest"},
		{"record without path", "record:\n  enable: true\n", "record.path"},
		{"record while replaying", "sensor:\n  source: replay\nreplay:\n  path: ./x.log\nrecord:\n  enable: true\n  path: ./y.log\n", "record"},
		{"replay without path", "sensor:\n  source: replay\n", "replay.path"},
		{"negative replay speed", "sensor:\n  source: replay\nreplay:\n  path: ./x.log\n  speed: -2\n", "replay.speed"},
	}
	for _, c := range cases {
		_, err := Load(writeConfig(t, c.body))
		if err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: err=%q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestLoad_ReplaySpeedDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sensor:\n  source: replay\nreplay:\n  path: ./x.log\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Replay.Speed != 1 {
		t.Fatalf("speed=%v want=1", cfg.Replay.Speed)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
