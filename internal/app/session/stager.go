package session

import (
	"fmt"
	"time"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

// Modality is the enumerated working-modality selection. The three commands
// form one logical configuration group: range has to be staged before the
// bandwidth that derives from it, so the order of the fields is the staging
// order.
type Modality struct {
	SamplingRate domain.RadioID
	Range        domain.RadioID
	Bandwidth    domain.RadioID
}

// Protocol holds the stimulation protocol parameters. The parameters are
// independent of each other; only the final apply matters.
type Protocol struct {
	Trial    int
	VholdMv  float64
	VampMv   float64
	PeriodMs float64
}

// Stager drives the device's stage/apply command contract. Commands staged
// with apply unset accumulate on the device side; the next apply flushes the
// whole batch atomically in staging order.
type Stager struct {
	transport ports.Transport
	clock     ports.Clock
	obs       ports.Observability
}

func NewStager(tr ports.Transport, clock ports.Clock, obs ports.Observability) *Stager {
	return &Stager{transport: tr, clock: clock, obs: obs}
}

// ConfigureModality stages sampling rate and current range, then applies all
// three together with the final bandwidth.
func (s *Stager) ConfigureModality(m Modality) error {
	s.obs.LogInfo("configuring working modality")

	if err := s.stage(domain.CommandSamplingRate, domain.RadioPayload(m.SamplingRate), false); err != nil {
		return err
	}
	if err := s.stage(domain.CommandRange, domain.RadioPayload(m.Range), false); err != nil {
		return err
	}
	return s.stage(domain.CommandFinalBandwidth, domain.RadioPayload(m.Bandwidth), true)
}

// CompensateOffset runs the digital offset compensation: hold the constant
// protocol at 0 mV, start the compensation loop, give it a fixed settle
// window, then stop it. The device has no completion signal; the settle
// duration is policy, not feedback.
func (s *Stager) CompensateOffset(settle time.Duration) error {
	s.obs.LogInfo("performing digital offset compensation")

	if err := s.stage(domain.CommandMainTrial, domain.ValuePayload(0), false); err != nil {
		return err
	}
	if err := s.stage(domain.CommandVhold, domain.ValuePayload(0), false); err != nil {
		return err
	}
	if err := s.stage(domain.CommandApplyProtocol, domain.CommandPayload{}, true); err != nil {
		return err
	}

	if err := s.stage(domain.CommandCompensateAll, domain.ButtonPayload(true), true); err != nil {
		return err
	}

	s.clock.Sleep(settle)

	return s.stage(domain.CommandCompensateAll, domain.ButtonPayload(false), true)
}

// ActivateProtocol stages trial index, holding voltage, amplitude and period,
// then applies them as one batch.
func (s *Stager) ActivateProtocol(p Protocol) error {
	s.obs.LogInfo("applying stimulation protocol", ports.Field{Key: "trial", Value: p.Trial})

	if err := s.stage(domain.CommandMainTrial, domain.ValuePayload(float64(p.Trial)), false); err != nil {
		return err
	}
	if err := s.stage(domain.CommandVhold, domain.ValuePayload(p.VholdMv), false); err != nil {
		return err
	}
	if err := s.stage(domain.CommandVamp, domain.ValuePayload(p.VampMv), false); err != nil {
		return err
	}
	if err := s.stage(domain.CommandTPeriod, domain.ValuePayload(p.PeriodMs), false); err != nil {
		return err
	}
	return s.stage(domain.CommandApplyProtocol, domain.CommandPayload{}, true)
}

func (s *Stager) stage(id domain.CommandID, payload domain.CommandPayload, apply bool) error {
	if err := s.transport.Stage(id, payload, apply); err != nil {
		return fmt.Errorf("%w: %s (apply=%t): %w", ErrConfigure, id, apply, err)
	}
	return nil
}
