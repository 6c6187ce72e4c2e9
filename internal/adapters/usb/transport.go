package usb

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/gousb"

	"github.com/edemonpore/caller/internal/adapters/devicebuf"
	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

const framesPerPacket = 16

// Transport drives the real amplifier. Connect claims the bulk interface and
// starts a reader goroutine that continuously moves stream packets from the
// in-endpoint into a bounded packet buffer; that goroutine is the producer
// the session throttles against.
type Transport struct {
	cfg Config
	ctx *gousb.Context

	mu        sync.Mutex
	dev       *gousb.Device
	closeIntf func()
	out       *gousb.OutEndpoint
	stream    *gousb.ReadStream
	connected bool
	lostData  bool
	lastSeq   uint32
	haveSeq   bool

	buf  *devicebuf.PacketBuffer
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewTransport(cfg Config) (*Transport, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transport{
		cfg: cfg,
		ctx: gousb.NewContext(),
		buf: devicebuf.NewPacketBuffer(cfg.BufferCapacity),
	}, nil
}

// Enumerate lists the serial numbers of every matching unit on the bus.
func (t *Transport) Enumerate() ([]string, error) {
	devices, err := t.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == t.cfg.vid() && desc.Product == t.cfg.pid()
	})
	for _, dev := range devices {
		defer dev.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("usb scan: %w", err)
	}

	var ids []string
	for _, dev := range devices {
		serial, err := dev.SerialNumber()
		if err != nil {
			continue
		}
		if t.cfg.Serial != "" && serial != t.cfg.Serial {
			continue
		}
		ids = append(ids, serial)
	}
	return ids, nil
}

func (t *Transport) Connect(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return fmt.Errorf("transport already connected")
	}

	devices, err := t.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == t.cfg.vid() && desc.Product == t.cfg.pid()
	})
	if err != nil {
		for _, dev := range devices {
			dev.Close()
		}
		return fmt.Errorf("usb open: %w", err)
	}

	var target *gousb.Device
	for _, dev := range devices {
		serial, serr := dev.SerialNumber()
		if serr == nil && serial == id && target == nil {
			target = dev
			continue
		}
		dev.Close()
	}
	if target == nil {
		return fmt.Errorf("device %q not found", id)
	}

	if err := target.SetAutoDetach(true); err != nil {
		target.Close()
		return fmt.Errorf("auto detach: %w", err)
	}

	intf, done, err := target.DefaultInterface()
	if err != nil {
		target.Close()
		return fmt.Errorf("claim interface: %w", err)
	}

	out, err := intf.OutEndpoint(pipeOutEP)
	if err != nil {
		done()
		target.Close()
		return fmt.Errorf("out endpoint: %w", err)
	}
	in, err := intf.InEndpoint(pipeInEP)
	if err != nil {
		done()
		target.Close()
		return fmt.Errorf("in endpoint: %w", err)
	}

	stream, err := in.NewStream(packetSize(t.cfg.Channels, framesPerPacket), 8)
	if err != nil {
		done()
		target.Close()
		return fmt.Errorf("open stream: %w", err)
	}

	t.dev = target
	t.closeIntf = done
	t.out = out
	t.stream = stream
	t.connected = true
	t.haveSeq = false
	t.stop = make(chan struct{})
	t.wg.Add(1)
	go t.readLoop(stream, t.stop)
	return nil
}

// readLoop is the background producer: it blocks on the USB stream and
// pushes decoded frames into the packet buffer until the stream dies or the
// transport disconnects.
func (t *Transport) readLoop(stream *gousb.ReadStream, stop <-chan struct{}) {
	defer t.wg.Done()

	raw := make([]byte, packetSize(t.cfg.Channels, framesPerPacket))
	for {
		select {
		case <-stop:
			return
		default:
		}

		if _, err := io.ReadFull(stream, raw); err != nil {
			select {
			case <-stop:
			default:
				t.markGone()
			}
			return
		}

		pkt, err := decodePacket(raw, t.cfg.Channels)
		if err != nil {
			// A corrupt transfer means samples are gone at the wire level.
			t.flagLoss()
			continue
		}

		t.trackSequence(pkt)
		for _, frame := range pkt.frames {
			t.buf.Push(frame)
		}
	}
}

func (t *Transport) trackSequence(pkt streamPacket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pkt.lostData {
		t.lostData = true
	}
	if t.haveSeq && pkt.seq != t.lastSeq+1 {
		t.lostData = true
	}
	t.lastSeq = pkt.seq
	t.haveSeq = true
}

func (t *Transport) flagLoss() {
	t.mu.Lock()
	t.lostData = true
	t.mu.Unlock()
}

func (t *Transport) markGone() {
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
}

func (t *Transport) Stage(id domain.CommandID, payload domain.CommandPayload, apply bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ports.ErrNotConnected
	}
	frame := encodeCommand(id, payload, apply)
	if _, err := t.out.Write(frame); err != nil {
		return fmt.Errorf("send command %s: %w", id, err)
	}
	return nil
}

func (t *Transport) Status() (domain.DeviceStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return domain.DeviceStatus{}, ports.ErrNotConnected
	}
	lost := t.lostData
	t.lostData = false
	return domain.DeviceStatus{
		AvailablePackets: uint32(t.buf.Len()),
		BufferOverflow:   t.buf.TakeOverflow(),
		LostData:         lost,
	}, nil
}

func (t *Transport) Purge() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ports.ErrNotConnected
	}
	t.buf.Purge()
	return nil
}

func (t *Transport) Drain(requested uint32) (uint32, []float32, error) {
	t.mu.Lock()
	connected := t.connected
	t.mu.Unlock()
	if !connected {
		return 0, nil, ports.ErrNotConnected
	}

	frames := t.buf.Drain(int(requested))
	flat := domain.FlattenFrames(frames)
	if uint32(len(frames)) < requested {
		return uint32(len(frames)), flat, ports.ErrInsufficientData
	}
	return uint32(len(frames)), flat, nil
}

func (t *Transport) Disconnect() error {
	t.mu.Lock()
	if t.dev == nil {
		t.mu.Unlock()
		return nil
	}
	stop := t.stop
	stream := t.stream
	closeIntf := t.closeIntf
	dev := t.dev
	t.stop = nil
	t.stream = nil
	t.closeIntf = nil
	t.dev = nil
	t.connected = false
	t.mu.Unlock()

	if stop != nil {
		close(stop)
	}

	var errs []error
	if stream != nil {
		if err := stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.wg.Wait()
	if closeIntf != nil {
		closeIntf()
	}
	if err := dev.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (t *Transport) Channels() int { return t.cfg.Channels }

// Close releases the USB context once the transport is no longer needed.
func (t *Transport) Close() error {
	return t.ctx.Close()
}

var _ ports.Transport = (*Transport)(nil)
