package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edemonpore/caller/internal/adapters/devicebuf"
	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

// Config shapes the simulated amplifier.
type Config struct {
	Serial         string        `yaml:"serial"`
	Channels       int           `yaml:"channels"`
	BufferCapacity int           `yaml:"buffer_capacity"`
	FillInterval   time.Duration `yaml:"fill_interval"`
	FramesPerFill  int           `yaml:"frames_per_fill"`
}

func (c *Config) ApplyDefaults() {
	if c.Serial == "" {
		c.Serial = "SIM-0001"
	}
	if c.Channels == 0 {
		c.Channels = 5
	}
	if c.BufferCapacity == 0 {
		c.BufferCapacity = 4096
	}
	if c.FillInterval <= 0 {
		c.FillInterval = time.Millisecond
	}
	if c.FramesPerFill <= 0 {
		c.FramesPerFill = 5
	}
}

func (c *Config) Validate() error {
	if c.Channels < 2 {
		return errors.New("channels must cover voltage plus at least one current")
	}
	return nil
}

// Device is a deterministic software rendition of the amplifier: it honors
// the stage/apply contract, runs a background goroutine that fills a bounded
// packet buffer, and produces a triangular (or constant) voltage protocol
// with derived current channels.
type Device struct {
	cfg Config

	mu        sync.Mutex
	connected bool
	staged    []stagedCommand
	protocol  protocolState
	lostData  bool
	phase     float64

	buf  *devicebuf.PacketBuffer
	stop chan struct{}
	wg   sync.WaitGroup
}

type stagedCommand struct {
	id      domain.CommandID
	payload domain.CommandPayload
}

type protocolState struct {
	trial       float64
	vholdMv     float64
	vampMv      float64
	periodMs    float64
	compensated bool
}

func NewDevice(cfg Config) (*Device, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Device{
		cfg: cfg,
		buf: devicebuf.NewPacketBuffer(cfg.BufferCapacity),
		protocol: protocolState{
			periodMs: 100,
		},
	}, nil
}

func (d *Device) Enumerate() ([]string, error) {
	return []string{d.cfg.Serial}, nil
}

func (d *Device) Connect(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return fmt.Errorf("sim device %s already connected", d.cfg.Serial)
	}
	if id != d.cfg.Serial {
		return fmt.Errorf("unknown device %q", id)
	}
	d.connected = true
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go d.fill(d.stop)
	return nil
}

func (d *Device) Disconnect() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}
	d.connected = false
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()

	close(stop)
	d.wg.Wait()
	return nil
}

func (d *Device) Stage(id domain.CommandID, payload domain.CommandPayload, apply bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return ports.ErrNotConnected
	}

	d.staged = append(d.staged, stagedCommand{id: id, payload: payload})
	if !apply {
		return nil
	}

	for _, cmd := range d.staged {
		d.applyLocked(cmd)
	}
	d.staged = d.staged[:0]

	// Real hardware drops samples around a command flush.
	d.lostData = true
	return nil
}

func (d *Device) applyLocked(cmd stagedCommand) {
	switch cmd.id {
	case domain.CommandMainTrial:
		d.protocol.trial = cmd.payload.Value
	case domain.CommandVhold:
		d.protocol.vholdMv = cmd.payload.Value
	case domain.CommandVamp:
		d.protocol.vampMv = cmd.payload.Value
	case domain.CommandTPeriod:
		if cmd.payload.Value > 0 {
			d.protocol.periodMs = cmd.payload.Value
		}
	case domain.CommandCompensateAll:
		d.protocol.compensated = cmd.payload.Pressed
	}
}

func (d *Device) Status() (domain.DeviceStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return domain.DeviceStatus{}, ports.ErrNotConnected
	}
	lost := d.lostData
	d.lostData = false
	return domain.DeviceStatus{
		AvailablePackets: uint32(d.buf.Len()),
		BufferOverflow:   d.buf.TakeOverflow(),
		LostData:         lost,
	}, nil
}

func (d *Device) Purge() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return ports.ErrNotConnected
	}
	d.buf.Purge()
	return nil
}

func (d *Device) Drain(requested uint32) (uint32, []float32, error) {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return 0, nil, ports.ErrNotConnected
	}
	d.mu.Unlock()

	frames := d.buf.Drain(int(requested))
	flat := domain.FlattenFrames(frames)
	if uint32(len(frames)) < requested {
		return uint32(len(frames)), flat, ports.ErrInsufficientData
	}
	return uint32(len(frames)), flat, nil
}

func (d *Device) Channels() int { return d.cfg.Channels }

func (d *Device) fill(stop <-chan struct{}) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.FillInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for i := 0; i < d.cfg.FramesPerFill; i++ {
				d.buf.Push(d.nextFrame())
			}
		}
	}
}

// nextFrame advances the waveform one sample and renders all channels.
// Trial 0 is the constant protocol; anything else sweeps a triangle between
// vhold-vamp and vhold+vamp over one period.
func (d *Device) nextFrame() domain.Frame {
	d.mu.Lock()
	p := d.protocol
	phase := d.phase
	d.phase += 1.0 / 64
	if d.phase >= 1 {
		d.phase -= 1
	}
	d.mu.Unlock()

	voltage := p.vholdMv
	if p.trial != 0 {
		voltage = p.vholdMv + p.vampMv*triangle(phase)
	}

	frame := make(domain.Frame, d.cfg.Channels)
	frame[0] = float32(voltage)
	for ch := 1; ch < d.cfg.Channels; ch++ {
		// Ohmic response per channel, weaker with the channel index.
		frame[ch] = float32(voltage / float64(10*ch))
	}
	return frame
}

// triangle maps phase in [0,1) onto [-1,1] with vertices at 0.25 and 0.75.
func triangle(phase float64) float64 {
	switch {
	case phase < 0.25:
		return 4 * phase
	case phase < 0.75:
		return 2 - 4*phase
	default:
		return 4*phase - 4
	}
}

var _ ports.Transport = (*Device)(nil)
