package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sensor      SensorConfig      `yaml:"sensor"`
	Smoothing   SmoothingConfig   `yaml:"smoothing"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Meanings    MeaningsConfig    `yaml:"meanings"`
	Web         WebConfig         `yaml:"web"`
	UDP         UDPConfig         `yaml:"udp"`
	Record      RecordConfig      `yaml:"record"`
	Replay      ReplayConfig      `yaml:"replay"`
	Sim         SimConfig         `yaml:"sim"`
}

type SensorConfig struct {
	// Source selects the sample source: "imu", "sim" or "replay".
	Source string `yaml:"source"`
	// Policy is the estimator policy: "auto" or "native-only".
	Policy string `yaml:"policy"`

	I2CBus  int           `yaml:"i2c_bus"`
	IMUAddr uint16        `yaml:"imu_addr"`
	Rate    time.Duration `yaml:"rate"`
}

type SmoothingConfig struct {
	Gain           float64       `yaml:"gain"`
	SnapEpsilonDeg float64       `yaml:"snap_epsilon_deg"`
	FrameInterval  time.Duration `yaml:"frame_interval"`
	StaleAfter     time.Duration `yaml:"stale_after"`
}

type CalibrationConfig struct {
	OffsetDeg float64      `yaml:"offset_deg"`
	Button    ButtonConfig `yaml:"button"`
}

type ButtonConfig struct {
	Enable   bool          `yaml:"enable"`
	GPIOPin  int           `yaml:"gpio_pin"`
	Debounce time.Duration `yaml:"debounce"`
}

type MeaningsConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type SimConfig struct {
	Period time.Duration `yaml:"period"`
	Rate   time.Duration `yaml:"rate"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Sensor.Source == "" {
		cfg.Sensor.Source = "imu"
	}
	switch cfg.Sensor.Source {
	case "imu", "sim", "replay":
	default:
		return Config{}, fmt.Errorf("sensor.source must be imu, sim or replay, got %q", cfg.Sensor.Source)
	}
	switch cfg.Sensor.Policy {
	case "", "auto", "native-only":
	default:
		return Config{}, fmt.Errorf("sensor.policy must be auto or native-only, got %q", cfg.Sensor.Policy)
	}
	if cfg.Sensor.I2CBus == 0 {
		cfg.Sensor.I2CBus = 1
	}
	if cfg.Sensor.Rate <= 0 {
		cfg.Sensor.Rate = 20 * time.Millisecond // 50 Hz
	}

	if cfg.Smoothing.Gain == 0 {
		cfg.Smoothing.Gain = 0.15
	}
	if cfg.Smoothing.Gain <= 0 || cfg.Smoothing.Gain >= 1 {
		return Config{}, fmt.Errorf("smoothing.gain must be in (0,1), got %v", cfg.Smoothing.Gain)
	}
	if cfg.Smoothing.SnapEpsilonDeg == 0 {
		cfg.Smoothing.SnapEpsilonDeg = 0.05
	}
	if cfg.Smoothing.SnapEpsilonDeg < 0 {
		return Config{}, fmt.Errorf("smoothing.snap_epsilon_deg must be >= 0, got %v", cfg.Smoothing.SnapEpsilonDeg)
	}
	if cfg.Smoothing.FrameInterval <= 0 {
		cfg.Smoothing.FrameInterval = 16 * time.Millisecond
	}
	if cfg.Smoothing.StaleAfter <= 0 {
		cfg.Smoothing.StaleAfter = 2 * time.Second
	}

	if cfg.Calibration.Button.Enable && cfg.Calibration.Button.GPIOPin <= 0 {
		return Config{}, fmt.Errorf("calibration.button.gpio_pin is required when the button is enabled")
	}
	if cfg.Calibration.Button.Debounce <= 0 {
		cfg.Calibration.Button.Debounce = 20 * time.Millisecond
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.UDP.Enable {
		if cfg.UDP.Dest == "" {
			return Config{}, fmt.Errorf("udp.dest is required when udp.enable is true")
		}
		if cfg.UDP.Interval <= 0 {
			cfg.UDP.Interval = 100 * time.Millisecond
		}
	}

	if cfg.Record.Enable {
		if cfg.Record.Path == "" {
			return Config{}, fmt.Errorf("record.path is required when record.enable is true")
		}
		if cfg.Sensor.Source == "replay" {
			return Config{}, fmt.Errorf("record cannot be enabled while replaying")
		}
	}

	if cfg.Sensor.Source == "replay" {
		if cfg.Replay.Path == "" {
			return Config{}, fmt.Errorf("replay.path is required when sensor.source is replay")
		}
		if cfg.Replay.Speed == 0 {
			cfg.Replay.Speed = 1
		}
		if cfg.Replay.Speed < 0 {
			return Config{}, fmt.Errorf("replay.speed must be > 0")
		}
	}

	if cfg.Sim.Period <= 0 {
		cfg.Sim.Period = 60 * time.Second
	}
	if cfg.Sim.Rate <= 0 {
		cfg.Sim.Rate = 50 * time.Millisecond
	}

	return cfg, nil
}
