package ports

import (
	"errors"

	"github.com/edemonpore/caller/internal/domain"
)

// ErrNotConnected is returned by transport calls once the device has gone
// away. During a drain it is terminal for the whole session.
var ErrNotConnected = errors.New("device not connected")

// ErrInsufficientData is returned by Drain when fewer packets were available
// than requested. The returned frames are still valid; the caller proceeds
// with the partial batch.
var ErrInsufficientData = errors.New("not enough available data")

// Transport is the only boundary between the session core and the device. A
// concrete implementation owns the firmware encoding, the USB plumbing, and
// the background thread that fills the device-side packet buffer. Real
// hardware, a simulator, or a recorded fixture can all satisfy it.
type Transport interface {
	// Enumerate lists the identifiers of the plugged-in devices.
	Enumerate() ([]string, error)

	// Connect opens the device and starts its internal acquisition thread.
	Connect(id string) error

	// Disconnect tears the connection down. Hardware teardown is not
	// instantaneous; callers retry this until it reports success.
	Disconnect() error

	// Stage queues a configuration command on the device. With apply set,
	// every previously staged command plus this one is flushed as one
	// atomic batch, in staging order.
	Stage(id domain.CommandID, payload domain.CommandPayload, apply bool) error

	// Status snapshots the available packet count and the loss flags.
	Status() (domain.DeviceStatus, error)

	// Purge discards every packet buffered so far.
	Purge() error

	// Drain pulls up to requested packets into a flat channel-interleaved
	// buffer and reports how many full packets it returned. It may return
	// ErrInsufficientData together with a valid partial buffer.
	Drain(requested uint32) (uint32, []float32, error)

	// Channels reports the fixed number of values per frame.
	Channels() int
}
