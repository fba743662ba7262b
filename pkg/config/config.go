package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the stand configuration. It is read once at boot and never
// written back.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Loop      LoopConfig      `yaml:"loop"`
	Burn      BurnConfig      `yaml:"burn"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Mock      MockConfig      `yaml:"mock"`
}

// SerialConfig contains serial port configuration for the acquisition board.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SensorConfig contains conversion parameters for the raw sensor frames.
type SensorConfig struct {
	ThrustFullScale float64       `yaml:"thrust_full_scale"` // Newtons at ADC full scale
	SeaLevelHPa     float64       `yaml:"sea_level_hpa"`     // Reference pressure for altitude
	StaleAfter      time.Duration `yaml:"stale_after"`       // Frames older than this are unavailable
	ReadyTimeout    time.Duration `yaml:"ready_timeout"`     // Max wait for the first complete frame
}

// LoopConfig contains the sampling loop parameters.
type LoopConfig struct {
	Period  time.Duration `yaml:"period"`
	Verbose bool          `yaml:"verbose"` // Print one console line per cycle
}

// BurnConfig contains burn detection parameters.
type BurnConfig struct {
	Threshold float64 `yaml:"threshold"` // Newtons
}

// TelemetryConfig contains the WebSocket telemetry server configuration.
type TelemetryConfig struct {
	Listen   string `yaml:"listen"`
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"` // "json" or "cbor"
}

// MQTTConfig contains the optional MQTT bridge configuration.
type MQTTConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Broker         string `yaml:"broker"` // host:port
	ClientID       string `yaml:"client_id"`
	TelemetryTopic string `yaml:"telemetry_topic"`
	CommandTopic   string `yaml:"command_topic"`
	QoS            byte   `yaml:"qos"`
	QueueSize      int    `yaml:"queue_size"`
}

// RecorderConfig contains flight log configuration.
type RecorderConfig struct {
	Dir           string        `yaml:"dir"`
	Prefix        string        `yaml:"prefix"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MockConfig contains simulated stand configuration.
type MockConfig struct {
	FramePeriod  time.Duration `yaml:"frame_period"`  // Time between simulated frames
	FirePeriod   time.Duration `yaml:"fire_period"`   // Time between simulated motor firings
	BurnDuration time.Duration `yaml:"burn_duration"` // Simulated burn time
	PeakThrust   float64       `yaml:"peak_thrust"`   // Newtons
	Noise        float64       `yaml:"noise"`         // Newtons, peak amplitude of thrust noise
	GroundHPa    float64       `yaml:"ground_hpa"`    // Simulated ground pressure
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Sensor: SensorConfig{
			ThrustFullScale: 50.0,
			SeaLevelHPa:     1013.25,
			StaleAfter:      500 * time.Millisecond,
			ReadyTimeout:    5 * time.Second,
		},
		Loop: LoopConfig{
			Period: 100 * time.Millisecond, // 10 Hz
		},
		Burn: BurnConfig{
			Threshold: 0.5,
		},
		Telemetry: TelemetryConfig{
			Listen:   ":81",
			Path:     "/",
			Encoding: "json",
		},
		MQTT: MQTTConfig{
			Enabled:        false,
			Broker:         "localhost:1883",
			ClientID:       "thruststand",
			TelemetryTopic: "thruststand/telemetry",
			CommandTopic:   "thruststand/command",
			QoS:            0,
			QueueSize:      32,
		},
		Recorder: RecorderConfig{
			Dir:           ".",
			Prefix:        "flight_data_",
			FlushInterval: time.Second,
		},
		Mock: MockConfig{
			FramePeriod:  20 * time.Millisecond,
			FirePeriod:   30 * time.Second,
			BurnDuration: 1500 * time.Millisecond,
			PeakThrust:   12.0,
			Noise:        0.05,
			GroundHPa:    1008.0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Telemetry.Encoding {
	case "json", "cbor":
	default:
		return fmt.Errorf("invalid telemetry encoding %q: want json or cbor", c.Telemetry.Encoding)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos %d", c.MQTT.QoS)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Sensor.ThrustFullScale == 0 {
		c.Sensor.ThrustFullScale = def.Sensor.ThrustFullScale
	}
	if c.Sensor.SeaLevelHPa == 0 {
		c.Sensor.SeaLevelHPa = def.Sensor.SeaLevelHPa
	}
	if c.Sensor.StaleAfter == 0 {
		c.Sensor.StaleAfter = def.Sensor.StaleAfter
	}
	if c.Sensor.ReadyTimeout == 0 {
		c.Sensor.ReadyTimeout = def.Sensor.ReadyTimeout
	}

	if c.Loop.Period == 0 {
		c.Loop.Period = def.Loop.Period
	}

	if c.Burn.Threshold == 0 {
		c.Burn.Threshold = def.Burn.Threshold
	}

	if c.Telemetry.Listen == "" {
		c.Telemetry.Listen = def.Telemetry.Listen
	}
	if c.Telemetry.Path == "" {
		c.Telemetry.Path = def.Telemetry.Path
	}
	if c.Telemetry.Encoding == "" {
		c.Telemetry.Encoding = def.Telemetry.Encoding
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TelemetryTopic == "" {
		c.MQTT.TelemetryTopic = def.MQTT.TelemetryTopic
	}
	if c.MQTT.CommandTopic == "" {
		c.MQTT.CommandTopic = def.MQTT.CommandTopic
	}
	if c.MQTT.QueueSize == 0 {
		c.MQTT.QueueSize = def.MQTT.QueueSize
	}

	if c.Recorder.Dir == "" {
		c.Recorder.Dir = def.Recorder.Dir
	}
	if c.Recorder.Prefix == "" {
		c.Recorder.Prefix = def.Recorder.Prefix
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = def.Recorder.FlushInterval
	}

	if c.Mock.FramePeriod == 0 {
		c.Mock.FramePeriod = def.Mock.FramePeriod
	}
	if c.Mock.FirePeriod == 0 {
		c.Mock.FirePeriod = def.Mock.FirePeriod
	}
	if c.Mock.BurnDuration == 0 {
		c.Mock.BurnDuration = def.Mock.BurnDuration
	}
	if c.Mock.PeakThrust == 0 {
		c.Mock.PeakThrust = def.Mock.PeakThrust
	}
	if c.Mock.GroundHPa == 0 {
		c.Mock.GroundHPa = def.Mock.GroundHPa
	}
}
