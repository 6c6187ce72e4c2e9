package devicebuf

import (
	"testing"

	"github.com/edemonpore/caller/internal/domain"
)

func TestPacketBufferPushDrainOrder(t *testing.T) {
	b := NewPacketBuffer(4)

	f1 := domain.Frame{1, 10}
	f2 := domain.Frame{2, 20}

	if !b.Push(f1) || !b.Push(f2) {
		t.Fatalf("expected successful push")
	}

	batch := b.Drain(1)
	if len(batch) != 1 || batch[0][0] != 1 {
		t.Fatalf("unexpected first batch: %+v", batch)
	}

	remaining := b.Drain(10)
	if len(remaining) != 1 || remaining[0][0] != 2 {
		t.Fatalf("unexpected second batch: %+v", remaining)
	}

	if b.Len() != 0 {
		t.Fatalf("buffer should be empty, got %d", b.Len())
	}
}

func TestPacketBufferOverflowLatches(t *testing.T) {
	b := NewPacketBuffer(2)

	frame := domain.Frame{0}

	if !b.Push(frame) || !b.Push(frame) {
		t.Fatalf("expected push within capacity")
	}
	if b.Push(frame) {
		t.Fatalf("push should fail when capacity exceeded")
	}

	if !b.TakeOverflow() {
		t.Fatalf("overflow flag should be set after a dropped frame")
	}
	if b.TakeOverflow() {
		t.Fatalf("overflow flag should clear once read")
	}

	b.Drain(1)
	if !b.Push(frame) {
		t.Fatalf("expected push to succeed after drain")
	}
}

func TestPacketBufferPurge(t *testing.T) {
	b := NewPacketBuffer(1)
	b.Push(domain.Frame{1})
	b.Push(domain.Frame{2}) // dropped, latches overflow

	b.Purge()
	if b.Len() != 0 {
		t.Fatalf("purge should empty the buffer")
	}
	if b.TakeOverflow() {
		t.Fatalf("purge should clear the overflow flag")
	}
}
