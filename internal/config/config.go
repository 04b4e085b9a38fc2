// Package config loads the modem simulator's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/channel"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

// Config is the top-level configuration file.
type Config struct {
	Link     LinkConfig     `yaml:"link"`
	Channel  []channel.Spec `yaml:"channel"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Tables   TablesConfig   `yaml:"tables"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// LinkConfig selects the modulation and rates for single-link commands.
type LinkConfig struct {
	Scheme           string  `yaml:"scheme"`
	BitRate          float64 `yaml:"bit_rate"`
	CarrierFrequency float64 `yaml:"carrier_frequency"`
	IQDiagnostics    bool    `yaml:"iq_diagnostics"`
}

// SweepConfig configures the BER/SNR evaluator.
type SweepConfig struct {
	Schemes          []string       `yaml:"schemes"`
	BitRate          float64        `yaml:"bit_rate"`
	CarrierFrequency float64        `yaml:"carrier_frequency"`
	SNRLow           int            `yaml:"snr_low_db"`
	SNRHigh          int            `yaml:"snr_high_db"`
	Seed             *uint64        `yaml:"seed"`
	Workers          int            `yaml:"workers"`
	Message          string         `yaml:"message"`
	Impairments      []channel.Spec `yaml:"impairments"`
}

// TablesConfig points at constellation table assets. An empty Dir uses the
// built-in generator.
type TablesConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig configures the sweep result store. An empty Path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MQTTConfig configures result publishing.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// Default returns the built-in configuration.
func Default() *Config {
	seed := uint64(sim.DefaultSeed)
	return &Config{
		Link: LinkConfig{
			Scheme:           "QPSK",
			BitRate:          1600,
			CarrierFrequency: 16000,
		},
		Sweep: SweepConfig{
			Schemes:          []string{"BPSK", "QPSK", "QAM16", "QAM64"},
			BitRate:          1600,
			CarrierFrequency: 16000,
			SNRLow:           -30,
			SNRHigh:          0,
			Seed:             &seed,
			Workers:          4,
			Message:          "Hello World!",
		},
		Server:  ServerConfig{Addr: "0.0.0.0:8080"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		MQTT:    MQTTConfig{TopicPrefix: "modemsim/ber", QoS: 0},
	}
}

// LoadConfig reads filename and overlays it on the defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return config, nil
}

// Validate checks every section that has a fixed meaning.
func (c *Config) Validate() error {
	if _, err := c.LinkParameters(); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	for i, s := range c.Channel {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("channel[%d]: %w", i, err)
		}
	}

	sweep, err := c.SweepParameters()
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if err := sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos %d out of range", c.MQTT.QoS)
	}
	return nil
}

// LinkParameters builds the link described by the link section.
func (c *Config) LinkParameters() (modem.Link, error) {
	scheme, err := modem.ParseScheme(c.Link.Scheme)
	if err != nil {
		return modem.Link{}, err
	}
	return modem.NewLink(scheme, c.Link.BitRate, c.Link.CarrierFrequency)
}

// SweepParameters converts the sweep section into an evaluator config.
func (c *Config) SweepParameters() (sim.Config, error) {
	schemes := make([]modem.Scheme, 0, len(c.Sweep.Schemes))
	for _, name := range c.Sweep.Schemes {
		s, err := modem.ParseScheme(name)
		if err != nil {
			return sim.Config{}, err
		}
		schemes = append(schemes, s)
	}

	seed := uint64(sim.DefaultSeed)
	if c.Sweep.Seed != nil {
		seed = *c.Sweep.Seed
	}
	workers := c.Sweep.Workers
	if workers <= 0 {
		workers = 1
	}
	return sim.Config{
		Schemes:          schemes,
		BitRate:          c.Sweep.BitRate,
		CarrierFrequency: c.Sweep.CarrierFrequency,
		SNRLow:           c.Sweep.SNRLow,
		SNRHigh:          c.Sweep.SNRHigh,
		Seed:             seed,
		Impairments:      c.Sweep.Impairments,
		Workers:          workers,
	}, nil
}
