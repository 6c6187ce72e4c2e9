package acquire

import (
	"errors"
	"fmt"
	"sync"

	"github.com/edemonpore/caller/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after
// being closed.
var ErrChannelSinkClosed = errors.New("acquire: channel sink closed")

// FrameBatchSink is invoked with ordered batches drained from the device.
type FrameBatchSink func([]Frame) error

// NewCallbackSink adapts a FrameBatchSink into a full FrameSink so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn FrameBatchSink) FrameSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes drained batches via a channel. Closing the sink
// (which the session does at the end of the run) closes the channel.
func NewChannelSink(name string, buffer int) (FrameSink, <-chan []Frame) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []Frame, buffer)
	return &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}, ch
}

type callbackSink struct {
	name string
	fn   FrameBatchSink
}

func (s *callbackSink) WriteFrames(frames []domain.Frame) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(frames) == 0 {
		return nil
	}
	return s.fn(copyBatch(frames))
}

func (s *callbackSink) Close() error { return nil }
func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []Frame
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) WriteFrames(frames []domain.Frame) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(frames) == 0 {
		return nil
	}

	batch := copyBatch(frames)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Close() error {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
	return nil
}

func (s *channelSink) Name() string { return s.name }

func copyBatch(frames []domain.Frame) []Frame {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		dup := make(Frame, len(f))
		copy(dup, f)
		out[i] = dup
	}
	return out
}
