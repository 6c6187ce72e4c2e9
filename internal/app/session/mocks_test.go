package session

import (
	"time"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

type stageCall struct {
	id      domain.CommandID
	payload domain.CommandPayload
}

type drainResult struct {
	returned uint32
	flat     []float32
	err      error
}

// mockTransport scripts the collaborator. Staged commands accumulate until
// an apply, which records the whole batch as one flush.
type mockTransport struct {
	devices    []string
	enumErr    error
	connectErr error
	connected  string

	staged   []stageCall
	flushes  [][]stageCall
	stageErr error

	statuses  []domain.DeviceStatus
	statusErr error
	statusAt  int

	purged   bool
	purgeErr error

	drains     []drainResult
	drainCalls []uint32
	drainAt    int

	channels int

	disconnectFailures int
	disconnectCalls    int
}

func (m *mockTransport) Enumerate() ([]string, error) {
	return m.devices, m.enumErr
}

func (m *mockTransport) Connect(id string) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = id
	return nil
}

func (m *mockTransport) Disconnect() error {
	m.disconnectCalls++
	if m.disconnectCalls <= m.disconnectFailures {
		return ports.ErrNotConnected
	}
	return nil
}

func (m *mockTransport) Stage(id domain.CommandID, payload domain.CommandPayload, apply bool) error {
	if m.stageErr != nil {
		return m.stageErr
	}
	m.staged = append(m.staged, stageCall{id: id, payload: payload})
	if apply {
		batch := make([]stageCall, len(m.staged))
		copy(batch, m.staged)
		m.flushes = append(m.flushes, batch)
		m.staged = m.staged[:0]
	}
	return nil
}

func (m *mockTransport) Status() (domain.DeviceStatus, error) {
	if m.statusErr != nil {
		return domain.DeviceStatus{}, m.statusErr
	}
	if len(m.statuses) == 0 {
		return domain.DeviceStatus{}, nil
	}
	idx := m.statusAt
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	m.statusAt++
	return m.statuses[idx], nil
}

func (m *mockTransport) Purge() error {
	if m.purgeErr != nil {
		return m.purgeErr
	}
	m.purged = true
	return nil
}

func (m *mockTransport) Drain(requested uint32) (uint32, []float32, error) {
	m.drainCalls = append(m.drainCalls, requested)
	if m.drainAt >= len(m.drains) {
		return 0, nil, nil
	}
	res := m.drains[m.drainAt]
	m.drainAt++
	return res.returned, res.flat, res.err
}

func (m *mockTransport) Channels() int {
	if m.channels == 0 {
		return 2
	}
	return m.channels
}

var _ ports.Transport = (*mockTransport)(nil)

type mockSink struct {
	frames   []domain.Frame
	writeErr error
	closed   int
}

func (m *mockSink) WriteFrames(frames []domain.Frame) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.frames = append(m.frames, frames...)
	return nil
}

func (m *mockSink) Close() error { m.closed++; return nil }
func (m *mockSink) Name() string { return "mock" }

var _ ports.FrameSink = (*mockSink)(nil)

type mockObs struct {
	errors   []error
	infos    []string
	counters map[string]float64
	losses   []string
}

func newMockObs() *mockObs {
	return &mockObs{counters: map[string]float64{}}
}

func (m *mockObs) LogInfo(msg string, _ ...ports.Field) { m.infos = append(m.infos, msg) }
func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.errors = append(m.errors, err)
}
func (m *mockObs) LogCritical(_ string, err error, _ ...ports.Field) {
	m.errors = append(m.errors, err)
}
func (m *mockObs) IncCounter(name string, v float64) { m.counters[name] += v }
func (m *mockObs) ObserveLatency(string, float64)    {}
func (m *mockObs) SetGauge(string, float64)          {}
func (m *mockObs) RecordDataLoss(kind string, _ domain.DeviceStatus) {
	m.losses = append(m.losses, kind)
}

var _ ports.Observability = (*mockObs)(nil)

// fakeClock advances only when something sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

var _ ports.Clock = (*fakeClock)(nil)
