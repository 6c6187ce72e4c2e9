package acquire

import (
	"github.com/edemonpore/caller/internal/app/config"
	"github.com/edemonpore/caller/internal/app/session"
	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

// Config re-exports the root configuration struct so callers can construct
// or modify it programmatically.
type Config = config.Config

type (
	// DeviceConfig selects driver, unit and frame geometry.
	DeviceConfig = config.DeviceConfig
	// ModalityConfig holds the enumerated working-modality selection.
	ModalityConfig = config.ModalityConfig
	// ProtocolConfig holds the stimulation protocol parameters.
	ProtocolConfig = config.ProtocolConfig
	// OutputConfig points at the flat binary dump.
	OutputConfig = config.OutputConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// Policy bundles the acquisition and teardown tunables.
	Policy = ports.Policy
)

// Transport is the device boundary: enumerate, connect, stage commands,
// poll, purge, drain, disconnect. Hardware, simulator or fixture.
type Transport = ports.Transport

// FrameSink consumes ordered batches of acquired frames.
type FrameSink = ports.FrameSink

// Observability emits logs and metrics about the run.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Clock abstracts sleeps and monotonic reads for reproducible runs.
type Clock = ports.Clock

// Frame is one time-sample across all channels.
type Frame = domain.Frame

// DeviceStatus is a snapshot of the device health counters.
type DeviceStatus = domain.DeviceStatus

// Session sentinels, re-exported so embedders can classify failures.
var (
	ErrDiscovery        = session.ErrDiscovery
	ErrConnect          = session.ErrConnect
	ErrConfigure        = session.ErrConfigure
	ErrPurge            = session.ErrPurge
	ErrStatus           = session.ErrStatus
	ErrReadDisconnected = session.ErrReadDisconnected
	ErrDisconnect       = session.ErrDisconnect
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
