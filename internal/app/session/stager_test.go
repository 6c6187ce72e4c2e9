package session

import (
	"errors"
	"testing"
	"time"

	"github.com/edemonpore/caller/internal/domain"
)

var testModality = Modality{
	SamplingRate: domain.RadioSamplingRate5kHz,
	Range:        domain.RadioRange200pA,
	Bandwidth:    domain.RadioFinalBandwidthSR2,
}

func TestConfigureModalitySingleFlushInOrder(t *testing.T) {
	tr := &mockTransport{}
	s := NewStager(tr, &fakeClock{}, newMockObs())

	if err := s.ConfigureModality(testModality); err != nil {
		t.Fatalf("configure modality: %v", err)
	}

	if len(tr.flushes) != 1 {
		t.Fatalf("expected exactly one flush, got %d", len(tr.flushes))
	}
	if len(tr.staged) != 0 {
		t.Fatalf("expected no commands left staged, got %d", len(tr.staged))
	}

	batch := tr.flushes[0]
	want := []domain.CommandID{domain.CommandSamplingRate, domain.CommandRange, domain.CommandFinalBandwidth}
	if len(batch) != len(want) {
		t.Fatalf("expected %d commands in batch, got %d", len(want), len(batch))
	}
	for i, id := range want {
		if batch[i].id != id {
			t.Fatalf("command %d: expected %s, got %s", i, id, batch[i].id)
		}
	}
	if batch[0].payload.Radio != domain.RadioSamplingRate5kHz {
		t.Fatalf("unexpected sampling rate radio %d", batch[0].payload.Radio)
	}
}

func TestCompensateOffsetSequence(t *testing.T) {
	tr := &mockTransport{}
	clock := &fakeClock{}
	s := NewStager(tr, clock, newMockObs())

	settle := 5 * time.Second
	if err := s.CompensateOffset(settle); err != nil {
		t.Fatalf("compensate: %v", err)
	}

	if len(tr.flushes) != 3 {
		t.Fatalf("expected three flushes (protocol, start, stop), got %d", len(tr.flushes))
	}

	protocol := tr.flushes[0]
	if len(protocol) != 3 || protocol[0].id != domain.CommandMainTrial || protocol[1].id != domain.CommandVhold {
		t.Fatalf("unexpected protocol batch: %+v", protocol)
	}
	if protocol[0].payload.Value != 0 || protocol[1].payload.Value != 0 {
		t.Fatalf("constant protocol must hold 0 mV: %+v", protocol)
	}

	start := tr.flushes[1]
	if len(start) != 1 || start[0].id != domain.CommandCompensateAll || !start[0].payload.Pressed {
		t.Fatalf("unexpected compensation start batch: %+v", start)
	}

	stop := tr.flushes[2]
	if len(stop) != 1 || stop[0].id != domain.CommandCompensateAll || stop[0].payload.Pressed {
		t.Fatalf("unexpected compensation stop batch: %+v", stop)
	}

	if len(clock.sleeps) != 1 || clock.sleeps[0] != settle {
		t.Fatalf("expected one settle sleep of %s, got %v", settle, clock.sleeps)
	}
}

func TestActivateProtocolSingleBatch(t *testing.T) {
	tr := &mockTransport{}
	s := NewStager(tr, &fakeClock{}, newMockObs())

	p := Protocol{Trial: 1, VholdMv: 0, VampMv: 50, PeriodMs: 100}
	if err := s.ActivateProtocol(p); err != nil {
		t.Fatalf("activate protocol: %v", err)
	}

	if len(tr.flushes) != 1 {
		t.Fatalf("expected one flush, got %d", len(tr.flushes))
	}
	batch := tr.flushes[0]
	want := []domain.CommandID{
		domain.CommandMainTrial, domain.CommandVhold,
		domain.CommandVamp, domain.CommandTPeriod, domain.CommandApplyProtocol,
	}
	if len(batch) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(batch))
	}
	for i, id := range want {
		if batch[i].id != id {
			t.Fatalf("command %d: expected %s, got %s", i, id, batch[i].id)
		}
	}
	if batch[0].payload.Value != 1 || batch[2].payload.Value != 50 || batch[3].payload.Value != 100 {
		t.Fatalf("unexpected protocol values: %+v", batch)
	}
}

func TestStageFailureReportsConfiguration(t *testing.T) {
	tr := &mockTransport{stageErr: errors.New("firmware rejected command")}
	s := NewStager(tr, &fakeClock{}, newMockObs())

	err := s.ConfigureModality(testModality)
	if !errors.Is(err, ErrConfigure) {
		t.Fatalf("expected ErrConfigure, got %v", err)
	}
}
