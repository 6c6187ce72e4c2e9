package caller

import (
	base "github.com/edemonpore/caller/pkg/acquire"
)

// Re-exported errors so consumers can classify session failures without
// importing the nested package.
var (
	ErrDiscovery         = base.ErrDiscovery
	ErrConnect           = base.ErrConnect
	ErrConfigure         = base.ErrConfigure
	ErrPurge             = base.ErrPurge
	ErrStatus            = base.ErrStatus
	ErrReadDisconnected  = base.ErrReadDisconnected
	ErrDisconnect        = base.ErrDisconnect
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/edemonpore/caller directly.
type (
	Config         = base.Config
	DeviceConfig   = base.DeviceConfig
	ModalityConfig = base.ModalityConfig
	ProtocolConfig = base.ProtocolConfig
	OutputConfig   = base.OutputConfig
	MetricsConfig  = base.MetricsConfig
	Policy         = base.Policy
	Runtime        = base.Runtime
	RuntimeOption  = base.RuntimeOption
	Transport      = base.Transport
	FrameSink      = base.FrameSink
	FrameBatchSink = base.FrameBatchSink
	Observability  = base.Observability
	Field          = base.Field
	Clock          = base.Clock
	Frame          = base.Frame
	DeviceStatus   = base.DeviceStatus
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime constructors and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithTransport(tr Transport) RuntimeOption {
	return base.WithTransport(tr)
}

func WithSink(s FrameSink) RuntimeOption {
	return base.WithSink(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithClock(c Clock) RuntimeOption {
	return base.WithClock(c)
}

// Sink adapters.
func NewCallbackSink(name string, fn FrameBatchSink) FrameSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (FrameSink, <-chan []Frame) {
	return base.NewChannelSink(name, buffer)
}
