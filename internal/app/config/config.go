package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Modality ModalityConfig `yaml:"modality"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Policy   ports.Policy   `yaml:"policy"`
	Output   OutputConfig   `yaml:"output"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type DeviceConfig struct {
	// Driver selects the transport adapter: "usb" or "sim".
	Driver string `yaml:"driver"`
	// Serial restricts enumeration to one unit; empty matches any.
	Serial string `yaml:"serial"`
	// Channels is the fixed frame width: one voltage plus the currents.
	Channels int `yaml:"channels"`
	// BufferCapacity sizes the device-side packet buffer.
	BufferCapacity int `yaml:"buffer_capacity"`
}

type ModalityConfig struct {
	SamplingRate string `yaml:"sampling_rate"`
	Range        string `yaml:"range"`
	Bandwidth    string `yaml:"bandwidth"`
}

type ProtocolConfig struct {
	Trial    int     `yaml:"trial"`
	VholdMv  float64 `yaml:"vhold_mv"`
	VampMv   float64 `yaml:"vamp_mv"`
	PeriodMs float64 `yaml:"period_ms"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Device.Driver == "" {
		c.Device.Driver = "usb"
	}
	if c.Device.Channels == 0 {
		c.Device.Channels = 5
	}
	if c.Device.BufferCapacity == 0 {
		c.Device.BufferCapacity = 4096
	}
	if c.Modality.SamplingRate == "" {
		c.Modality.SamplingRate = "5khz"
	}
	if c.Modality.Range == "" {
		c.Modality.Range = "200pa"
	}
	if c.Modality.Bandwidth == "" {
		c.Modality.Bandwidth = "sr2"
	}
	if c.Protocol.Trial == 0 {
		c.Protocol.Trial = 1
	}
	if c.Protocol.VampMv == 0 {
		c.Protocol.VampMv = 50
	}
	if c.Protocol.PeriodMs == 0 {
		c.Protocol.PeriodMs = 100
	}
	if c.Policy.MinPacketsToRead == 0 {
		c.Policy.MinPacketsToRead = 10
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = time.Millisecond
	}
	if c.Policy.ReadIterations == 0 {
		c.Policy.ReadIterations = 1000
	}
	if c.Policy.WarmupDelay == 0 {
		c.Policy.WarmupDelay = 500 * time.Millisecond
	}
	if c.Policy.SettleDuration == 0 {
		c.Policy.SettleDuration = 5 * time.Second
	}
	if c.Policy.DisconnectRetries == 0 {
		c.Policy.DisconnectRetries = 1000
	}
	if c.Policy.DisconnectBackoff == 0 {
		c.Policy.DisconnectBackoff = time.Millisecond
	}
	if c.Output.Path == "" {
		c.Output.Path = "./data.dat"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) Validate() error {
	switch c.Device.Driver {
	case "usb", "sim":
	default:
		return fmt.Errorf("device.driver must be usb or sim, got %q", c.Device.Driver)
	}
	if c.Device.Channels < 2 {
		return fmt.Errorf("device.channels must cover voltage plus at least one current, got %d", c.Device.Channels)
	}
	if c.Protocol.Trial < 0 {
		return fmt.Errorf("protocol.trial must be non-negative, got %d", c.Protocol.Trial)
	}
	if c.Protocol.PeriodMs <= 0 {
		return fmt.Errorf("protocol.period_ms must be positive, got %f", c.Protocol.PeriodMs)
	}
	if _, err := c.Modality.Radios(); err != nil {
		return fmt.Errorf("modality: %w", err)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}
	return nil
}

// ModalityRadios is the resolved enumerated selection for the three
// working-modality commands, listed in their staging order.
type ModalityRadios struct {
	SamplingRate domain.RadioID
	Range        domain.RadioID
	Bandwidth    domain.RadioID
}

func (m ModalityConfig) Radios() (ModalityRadios, error) {
	sr, err := parseSamplingRate(m.SamplingRate)
	if err != nil {
		return ModalityRadios{}, err
	}
	rng, err := parseRange(m.Range)
	if err != nil {
		return ModalityRadios{}, err
	}
	bw, err := parseBandwidth(m.Bandwidth)
	if err != nil {
		return ModalityRadios{}, err
	}
	return ModalityRadios{SamplingRate: sr, Range: rng, Bandwidth: bw}, nil
}

func parseSamplingRate(s string) (domain.RadioID, error) {
	switch normalize(s) {
	case "1.25khz", "1250hz":
		return domain.RadioSamplingRate1_25kHz, nil
	case "5khz":
		return domain.RadioSamplingRate5kHz, nil
	case "10khz":
		return domain.RadioSamplingRate10kHz, nil
	case "20khz":
		return domain.RadioSamplingRate20kHz, nil
	default:
		return 0, fmt.Errorf("unknown sampling rate %q", s)
	}
}

func parseRange(s string) (domain.RadioID, error) {
	switch normalize(s) {
	case "200pa":
		return domain.RadioRange200pA, nil
	case "2na":
		return domain.RadioRange2nA, nil
	case "20na":
		return domain.RadioRange20nA, nil
	case "200na":
		return domain.RadioRange200nA, nil
	default:
		return 0, fmt.Errorf("unknown current range %q", s)
	}
}

func parseBandwidth(s string) (domain.RadioID, error) {
	switch normalize(s) {
	case "sr2", "sr/2":
		return domain.RadioFinalBandwidthSR2, nil
	case "sr8", "sr/8":
		return domain.RadioFinalBandwidthSR8, nil
	case "1khz":
		return domain.RadioFinalBandwidth1kHz, nil
	default:
		return 0, fmt.Errorf("unknown final bandwidth %q", s)
	}
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}
