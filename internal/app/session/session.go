package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/edemonpore/caller/internal/ports"
)

// Session owns the device handle and the output sink for the duration of one
// acquisition run: connect, configure, compensate, run the protocol, stream,
// disconnect. It is single-threaded; every transport call blocks until the
// device answers.
type Session struct {
	transport ports.Transport
	sink      ports.FrameSink
	policy    ports.Policy
	clock     ports.Clock
	obs       ports.Observability
	modality  Modality
	protocol  Protocol
}

// Params collects the session dependencies. Transport, Sink and
// Observability are required; Clock defaults to the system clock.
type Params struct {
	Transport     ports.Transport
	Sink          ports.FrameSink
	Policy        ports.Policy
	Clock         ports.Clock
	Observability ports.Observability
	Modality      Modality
	Protocol      Protocol
}

func New(p Params) (*Session, error) {
	if p.Transport == nil {
		return nil, fmt.Errorf("session: transport is required")
	}
	if p.Sink == nil {
		return nil, fmt.Errorf("session: sink is required")
	}
	if p.Observability == nil {
		return nil, fmt.Errorf("session: observability is required")
	}
	if p.Clock == nil {
		p.Clock = ports.SystemClock{}
	}
	if p.Policy.DisconnectRetries < 1 {
		p.Policy.DisconnectRetries = 1
	}
	return &Session{
		transport: p.Transport,
		sink:      p.Sink,
		policy:    p.Policy,
		clock:     p.Clock,
		obs:       p.Observability,
		modality:  p.Modality,
		protocol:  p.Protocol,
	}, nil
}

// Run drives the whole lifecycle. A connect failure is terminal with no
// teardown; once connected, the disconnect retry loop runs even when an
// earlier phase failed, and its outcome is joined onto the run error. Data
// already written to the sink is never rolled back.
func (s *Session) Run(ctx context.Context) error {
	devices, err := s.transport.Enumerate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("%w: no devices found", ErrDiscovery)
	}

	// No ranking: the first enumerated device wins.
	id := devices[0]
	s.obs.LogInfo("device found", ports.Field{Key: "id", Value: id})

	if err := s.transport.Connect(id); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnect, id, err)
	}
	s.obs.LogInfo("connected", ports.Field{Key: "id", Value: id})

	runErr := s.acquire(ctx)
	if closeErr := s.sink.Close(); closeErr != nil {
		runErr = errors.Join(runErr, closeErr)
	}

	return errors.Join(runErr, s.disconnectWithRetry())
}

func (s *Session) acquire(ctx context.Context) error {
	stager := NewStager(s.transport, s.clock, s.obs)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stager.ConfigureModality(s.modality); err != nil {
		return err
	}
	if err := stager.CompensateOffset(s.policy.SettleDuration); err != nil {
		return err
	}
	if err := stager.ActivateProtocol(s.protocol); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Let the command-induced transients land in the buffer before the
	// purge throws them away.
	s.clock.Sleep(s.policy.WarmupDelay)

	reader := NewReader(s.transport, s.sink, s.policy, s.clock, s.obs)
	return reader.Run()
}

// disconnectWithRetry keeps calling Disconnect with a short backoff because
// hardware teardown is not instantaneous and success of the call itself is
// the only signal. After the retry ceiling it reports an explicit
// DisconnectFailure rather than the last raw device code.
func (s *Session) disconnectWithRetry() error {
	var lastErr error
	for attempt := 1; attempt <= s.policy.DisconnectRetries; attempt++ {
		s.obs.IncCounter("acquire_disconnect_attempts_total", 1)
		lastErr = s.transport.Disconnect()
		if lastErr == nil {
			s.obs.LogInfo("disconnected", ports.Field{Key: "attempts", Value: attempt})
			return nil
		}
		s.clock.Sleep(s.policy.DisconnectBackoff)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrDisconnect, s.policy.DisconnectRetries, lastErr)
}
