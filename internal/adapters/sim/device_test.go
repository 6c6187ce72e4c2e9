package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

func newConnectedDevice(t *testing.T) *Device {
	t.Helper()
	d, err := NewDevice(Config{Channels: 3, FillInterval: 100 * time.Microsecond, FramesPerFill: 10})
	if err != nil {
		t.Fatalf("new device: %v", err)
	}
	ids, err := d.Enumerate()
	if err != nil || len(ids) != 1 {
		t.Fatalf("enumerate: %v %v", ids, err)
	}
	if err := d.Connect(ids[0]); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = d.Disconnect() })
	return d
}

func waitForPackets(t *testing.T, d *Device, min uint32) domain.DeviceStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := d.Status()
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if status.AvailablePackets >= min {
			return status
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("device never buffered %d packets", min)
	return domain.DeviceStatus{}
}

func TestDeviceBuffersAndDrains(t *testing.T) {
	d := newConnectedDevice(t)

	status := waitForPackets(t, d, 10)
	n, flat, err := d.Drain(status.AvailablePackets)
	if err != nil && !errors.Is(err, ports.ErrInsufficientData) {
		t.Fatalf("drain: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected some frames")
	}
	if len(flat) != int(n)*d.Channels() {
		t.Fatalf("expected %d floats, got %d", int(n)*d.Channels(), len(flat))
	}
}

func TestDeviceDrainPastAvailableIsPartial(t *testing.T) {
	d := newConnectedDevice(t)
	waitForPackets(t, d, 1)

	n, flat, err := d.Drain(1 << 20)
	if !errors.Is(err, ports.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if n == 0 || len(flat) != int(n)*d.Channels() {
		t.Fatalf("partial drain should still return the available frames, got n=%d len=%d", n, len(flat))
	}
}

func TestDevicePurgeEmptiesBuffer(t *testing.T) {
	d := newConnectedDevice(t)
	waitForPackets(t, d, 5)

	if err := d.Purge(); err != nil {
		t.Fatalf("purge: %v", err)
	}
	// The filler keeps running, so only assert the purge dropped the backlog.
	status, err := d.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.AvailablePackets > 5 {
		t.Fatalf("purge left %d packets behind", status.AvailablePackets)
	}
}

func TestDeviceCommandFlushFlagsDataLoss(t *testing.T) {
	d := newConnectedDevice(t)

	if err := d.Stage(domain.CommandVhold, domain.ValuePayload(10), false); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := d.Stage(domain.CommandApplyProtocol, domain.CommandPayload{}, true); err != nil {
		t.Fatalf("apply: %v", err)
	}

	status, err := d.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.LostData {
		t.Fatalf("expected the command flush to flag instrument data loss")
	}

	status, err = d.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.LostData {
		t.Fatalf("loss flag should clear once reported")
	}
}

func TestDeviceRejectsCallsWhenDisconnected(t *testing.T) {
	d, err := NewDevice(Config{})
	if err != nil {
		t.Fatalf("new device: %v", err)
	}

	if _, err := d.Status(); !errors.Is(err, ports.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected from status, got %v", err)
	}
	if err := d.Purge(); !errors.Is(err, ports.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected from purge, got %v", err)
	}
	if _, _, err := d.Drain(1); !errors.Is(err, ports.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected from drain, got %v", err)
	}
	if err := d.Stage(domain.CommandVhold, domain.ValuePayload(0), true); !errors.Is(err, ports.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected from stage, got %v", err)
	}
}

func TestDeviceDisconnectIsIdempotent(t *testing.T) {
	d := newConnectedDevice(t)
	if err := d.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if err := d.Disconnect(); err != nil {
		t.Fatalf("second disconnect should be a no-op, got %v", err)
	}
}
