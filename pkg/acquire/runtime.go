package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/edemonpore/caller/internal/adapters/observability"
	"github.com/edemonpore/caller/internal/adapters/sim"
	"github.com/edemonpore/caller/internal/adapters/sink"
	"github.com/edemonpore/caller/internal/adapters/usb"
	"github.com/edemonpore/caller/internal/app/session"
	"github.com/edemonpore/caller/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	transport     ports.Transport
	sink          ports.FrameSink
	observability ports.Observability
	clock         ports.Clock
}

// WithTransport injects a custom transport (recorded fixture, third-party
// hardware, test double).
func WithTransport(tr Transport) RuntimeOption {
	return func(o *runtimeOverrides) { o.transport = tr }
}

// WithSink replaces the default file sink.
func WithSink(s FrameSink) RuntimeOption {
	return func(o *runtimeOverrides) { o.sink = s }
}

// WithObservability replaces the default Prometheus-backed observability.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.observability = obs }
}

// WithClock replaces the system clock, making settle/idle/backoff waits
// reproducible.
func WithClock(c Clock) RuntimeOption {
	return func(o *runtimeOverrides) { o.clock = c }
}

// Runtime wires transport, sink and observability into one acquisition
// session and hosts the metrics endpoint next to it.
type Runtime struct {
	cfg       *Config
	transport ports.Transport
	sink      ports.FrameSink
	obs       ports.Observability
	clock     ports.Clock

	// ownedTransport is closed after the run when the runtime built the
	// transport itself.
	ownedTransport io.Closer
}

// NewRuntime bootstraps the default adapters for the configured driver.
// RuntimeOption values override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	clock := overrides.clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	var owned io.Closer
	tr := overrides.transport
	if tr == nil {
		var err error
		tr, owned, err = buildTransport(cfg)
		if err != nil {
			return nil, err
		}
	}

	snk := overrides.sink
	if snk == nil {
		var err error
		snk, err = sink.NewFileSink(cfg.Output.Path)
		if err != nil {
			return nil, err
		}
	}

	return &Runtime{
		cfg:            cfg,
		transport:      tr,
		sink:           snk,
		obs:            obs,
		clock:          clock,
		ownedTransport: owned,
	}, nil
}

func buildTransport(cfg *Config) (ports.Transport, io.Closer, error) {
	switch cfg.Device.Driver {
	case "sim":
		dev, err := sim.NewDevice(sim.Config{
			Serial:         cfg.Device.Serial,
			Channels:       cfg.Device.Channels,
			BufferCapacity: cfg.Device.BufferCapacity,
		})
		return dev, nil, err
	case "usb":
		tr, err := usb.NewTransport(usb.Config{
			Serial:         cfg.Device.Serial,
			Channels:       cfg.Device.Channels,
			BufferCapacity: cfg.Device.BufferCapacity,
		})
		if err != nil {
			return nil, nil, err
		}
		return tr, tr, nil
	default:
		return nil, nil, fmt.Errorf("unknown device driver %q", cfg.Device.Driver)
	}
}

// Run executes one full acquisition session and serves metrics while it is
// in flight. It returns once the session has finished and the device has
// been torn down.
func (r *Runtime) Run(ctx context.Context) error {
	radios, err := r.cfg.Modality.Radios()
	if err != nil {
		return fmt.Errorf("modality: %w", err)
	}

	sess, err := session.New(session.Params{
		Transport:     r.transport,
		Sink:          r.sink,
		Policy:        r.cfg.Policy,
		Clock:         r.clock,
		Observability: r.obs,
		Modality: session.Modality{
			SamplingRate: radios.SamplingRate,
			Range:        radios.Range,
			Bandwidth:    radios.Bandwidth,
		},
		Protocol: session.Protocol{
			Trial:    r.cfg.Protocol.Trial,
			VholdMv:  r.cfg.Protocol.VholdMv,
			VampMv:   r.cfg.Protocol.VampMv,
			PeriodMs: r.cfg.Protocol.PeriodMs,
		},
	})
	if err != nil {
		return err
	}

	srv := r.metricsServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return sess.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	runErr := g.Wait()
	if r.ownedTransport != nil {
		if err := r.ownedTransport.Close(); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

func (r *Runtime) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}
}
