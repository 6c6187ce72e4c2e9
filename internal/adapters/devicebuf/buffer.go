package devicebuf

import (
	"sync"

	"github.com/edemonpore/caller/internal/domain"
)

// PacketBuffer is the bounded device-side frame buffer shared by the
// transport adapters. The background acquisition goroutine pushes into it
// while the session drains it; once full, new frames are dropped and the
// overflow flag latches until the next status snapshot reads it.
type PacketBuffer struct {
	mu       sync.Mutex
	data     []domain.Frame
	cap      int
	overflow bool
}

func NewPacketBuffer(capacity int) *PacketBuffer {
	return &PacketBuffer{
		data: make([]domain.Frame, 0, capacity),
		cap:  capacity,
	}
}

// Push appends a frame, dropping it and latching the overflow flag when the
// buffer is full.
func (b *PacketBuffer) Push(f domain.Frame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) >= b.cap {
		b.overflow = true
		return false
	}
	b.data = append(b.data, f)
	return true
}

// Drain removes up to max frames in FIFO order.
func (b *PacketBuffer) Drain(max int) []domain.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(b.data) {
		max = len(b.data)
	}
	out := make([]domain.Frame, max)
	copy(out, b.data[:max])
	b.data = append(b.data[:0], b.data[max:]...)
	return out
}

// Purge discards everything buffered so far and clears the overflow flag.
func (b *PacketBuffer) Purge() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
	b.overflow = false
}

func (b *PacketBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// TakeOverflow reports and clears the latched overflow flag.
func (b *PacketBuffer) TakeOverflow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.overflow
	b.overflow = false
	return o
}
