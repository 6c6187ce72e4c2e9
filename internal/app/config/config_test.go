package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edemonpore/caller/internal/domain"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
device:
  driver: sim
output:
  path: /tmp/run.dat
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Device.Channels != 5 {
		t.Fatalf("expected default channel count 5, got %d", cfg.Device.Channels)
	}
	if cfg.Policy.MinPacketsToRead != 10 {
		t.Fatalf("expected min packets default 10, got %d", cfg.Policy.MinPacketsToRead)
	}
	if cfg.Policy.IdleSleep != time.Millisecond {
		t.Fatalf("expected idle sleep default 1ms, got %s", cfg.Policy.IdleSleep)
	}
	if cfg.Policy.ReadIterations != 1000 {
		t.Fatalf("expected read iterations default 1000, got %d", cfg.Policy.ReadIterations)
	}
	if cfg.Policy.SettleDuration != 5*time.Second {
		t.Fatalf("expected settle default 5s, got %s", cfg.Policy.SettleDuration)
	}
	if cfg.Policy.DisconnectRetries != 1000 {
		t.Fatalf("expected disconnect retries default 1000, got %d", cfg.Policy.DisconnectRetries)
	}
	if cfg.Protocol.Trial != 1 || cfg.Protocol.VampMv != 50 || cfg.Protocol.PeriodMs != 100 {
		t.Fatalf("unexpected protocol defaults: %+v", cfg.Protocol)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
}

func TestLoadParsesModalityRadios(t *testing.T) {
	path := writeConfig(t, `
device:
  driver: sim
modality:
  sampling_rate: 20khz
  range: 2nA
  bandwidth: SR/8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	radios, err := cfg.Modality.Radios()
	if err != nil {
		t.Fatalf("radios: %v", err)
	}
	if radios.SamplingRate != domain.RadioSamplingRate20kHz {
		t.Fatalf("unexpected sampling rate radio %d", radios.SamplingRate)
	}
	if radios.Range != domain.RadioRange2nA {
		t.Fatalf("unexpected range radio %d", radios.Range)
	}
	if radios.Bandwidth != domain.RadioFinalBandwidthSR8 {
		t.Fatalf("unexpected bandwidth radio %d", radios.Bandwidth)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
device:
  driver: gpib
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadRejectsUnknownModality(t *testing.T) {
	path := writeConfig(t, `
modality:
  range: 5amps
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown current range")
	}
}
