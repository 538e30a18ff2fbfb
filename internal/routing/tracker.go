package routing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Prober checks one model's backing endpoint. Implementations must honor
// ctx cancellation; the tracker times each call.
type Prober interface {
	Probe(ctx context.Context, cfg ModelConfig) error
}

// HTTPProber probes a model by requesting its endpoint.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates a prober with its own client; per-probe deadlines
// come from the caller's context.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{client: &http.Client{}}
}

func (p *HTTPProber) Probe(ctx context.Context, cfg ModelConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", cfg.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probing %s: endpoint returned %d", cfg.ID, resp.StatusCode)
	}
	return nil
}

// TrackerConfig holds health-tracking settings.
type TrackerConfig struct {
	Interval     time.Duration // periodic CheckAll cadence
	ProbeTimeout time.Duration // per-probe deadline
	Concurrency  int           // CheckAll fan-out cap

	// Observe, when set, is called once per resolved probe with the model
	// ID, "success" or "failure", and the probe duration.
	Observe func(model, outcome string, d time.Duration)
}

// Tracker drives probes against the registry. It is the only writer of
// health state: one probe per model, each isolated from its siblings.
type Tracker struct {
	registry *Registry
	prober   Prober
	cfg      TrackerConfig
}

// NewTracker creates a tracker. Zero config fields get defaults.
func NewTracker(registry *Registry, prober Prober, cfg TrackerConfig) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	return &Tracker{registry: registry, prober: prober, cfg: cfg}
}

// CheckAll probes every registered model concurrently and returns once all
// probes have resolved. A failing probe degrades only its own model; it
// never aborts or cancels sibling probes, so the group context is not used
// for cancellation here.
func (t *Tracker) CheckAll(ctx context.Context) {
	var g errgroup.Group
	g.SetLimit(t.cfg.Concurrency)

	for _, id := range t.registry.IDs() {
		g.Go(func() error {
			t.CheckOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

// CheckOne probes a single model with a bounded timeout and records the
// outcome. UNAVAILABLE models keep being probed each cycle — a single
// success restores them to HEALTHY. MAINTENANCE models are skipped.
func (t *Tracker) CheckOne(ctx context.Context, id string) {
	cfg, err := t.registry.Config(id)
	if err != nil {
		slog.Warn("health check for unknown model", "model", id)
		return
	}
	health, err := t.registry.Health(id)
	if err == nil && health.Status == StatusMaintenance {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, t.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	probeErr := t.prober.Probe(probeCtx, cfg)
	latency := time.Since(start)

	if probeErr != nil {
		slog.Warn("model probe failed", "model", id, "error", probeErr)
	}
	if t.cfg.Observe != nil {
		outcome := "success"
		if probeErr != nil {
			outcome = "failure"
		}
		t.cfg.Observe(id, outcome, latency)
	}
	if err := t.registry.RecordProbe(id, latency, probeErr == nil); err != nil {
		slog.Error("recording probe outcome failed", "model", id, "error", err)
	}
}

// Run performs periodic bulk health checks until the context is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.CheckAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.CheckAll(ctx)
		}
	}
}
