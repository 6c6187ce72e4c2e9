package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

// Reader runs the polling acquisition loop: purge the stale configuration
// data, then alternate status polls and drains until the iteration budget
// (and the optional wall-clock budget) runs out.
type Reader struct {
	transport ports.Transport
	sink      ports.FrameSink
	policy    ports.Policy
	clock     ports.Clock
	obs       ports.Observability
}

func NewReader(tr ports.Transport, sink ports.FrameSink, pol ports.Policy, clock ports.Clock, obs ports.Observability) *Reader {
	return &Reader{transport: tr, sink: sink, policy: pol, clock: clock, obs: obs}
}

// Run streams frames into the sink. On a not-connected drain it closes the
// sink and aborts; everything already written stays on disk. Partial drains
// are logged and kept.
func (r *Reader) Run() error {
	if err := r.transport.Purge(); err != nil {
		return fmt.Errorf("%w: %w", ErrPurge, err)
	}

	var deadline time.Time
	if r.policy.MaxDuration > 0 {
		deadline = r.clock.Now().Add(r.policy.MaxDuration)
	}

	channels := r.transport.Channels()
	r.obs.LogInfo("collecting data",
		ports.Field{Key: "iterations", Value: r.policy.ReadIterations},
		ports.Field{Key: "min_packets", Value: r.policy.MinPacketsToRead})

	for i := 0; i < r.policy.ReadIterations; i++ {
		if !deadline.IsZero() && !r.clock.Now().Before(deadline) {
			r.obs.LogInfo("acquisition time budget exhausted",
				ports.Field{Key: "iterations_run", Value: i})
			break
		}

		status, err := r.transport.Status()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStatus, err)
		}

		r.obs.SetGauge("acquire_available_packets", float64(status.AvailablePackets))
		if status.BufferOverflow {
			r.obs.RecordDataLoss("buffer_overflow", status)
		}
		if status.LostData {
			r.obs.RecordDataLoss("instrument", status)
		}

		if status.AvailablePackets < r.policy.MinPacketsToRead {
			r.obs.IncCounter("acquire_idle_polls_total", 1)
			r.clock.Sleep(r.policy.IdleSleep)
			continue
		}

		if err := r.drainOnce(status.AvailablePackets, channels); err != nil {
			return err
		}
	}

	r.obs.LogInfo("collection done")
	return nil
}

func (r *Reader) drainOnce(requested uint32, channels int) error {
	start := r.clock.Now()
	returned, flat, err := r.transport.Drain(requested)
	r.obs.IncCounter("acquire_drains_total", 1)

	switch {
	case errors.Is(err, ports.ErrNotConnected):
		closeErr := r.sink.Close()
		return errors.Join(fmt.Errorf("%w: %w", ErrReadDisconnected, err), closeErr)
	case errors.Is(err, ports.ErrInsufficientData):
		// Expected race: packets were consumed between the status snapshot
		// and the drain. Keep whatever came back.
		r.obs.IncCounter("acquire_partial_drains_total", 1)
		r.obs.LogError("drain returned partial batch", err,
			ports.Field{Key: "requested", Value: requested},
			ports.Field{Key: "returned", Value: returned})
	case err != nil:
		return fmt.Errorf("drain: %w", err)
	}

	r.obs.ObserveLatency("acquire_drain_latency_seconds", r.clock.Now().Sub(start).Seconds())

	if int(returned)*channels < len(flat) {
		flat = flat[:int(returned)*channels]
	}
	frames := domain.SplitFrames(flat, channels)
	if len(frames) == 0 {
		return nil
	}

	if err := r.sink.WriteFrames(frames); err != nil {
		return fmt.Errorf("write %s: %w", r.sink.Name(), err)
	}
	r.obs.IncCounter("acquire_frames_written_total", float64(len(frames)))
	return nil
}
