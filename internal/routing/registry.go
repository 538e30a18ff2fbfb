package routing

import (
	"fmt"
	"sync"
	"time"
)

// maxConsecutiveFailures is the strike count after which a model is marked
// UNAVAILABLE.
const maxConsecutiveFailures = 3

// successRateAlpha is the EWMA weight for the newest probe outcome.
const successRateAlpha = 0.1

// candidate pairs a model's config with a consistent health snapshot.
type candidate struct {
	Config ModelConfig
	Health HealthCheck
}

// Registry is the shared model table. Health for model X is mutated only via
// RecordProbe/SetStatus on behalf of X's probe; readers always get value
// copies taken under the lock, never a torn write.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*registryEntry
	order  []string // registration order, used for stable ranking ties

	now func() time.Time
}

type registryEntry struct {
	config ModelConfig
	health HealthCheck
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*registryEntry),
		now:    time.Now,
	}
}

// Register adds a model. Registration is additive and idempotent by ID:
// re-registering updates the config but preserves accumulated health state.
func (r *Registry) Register(cfg ModelConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.models[cfg.ID]; ok {
		entry.config = cfg
		return
	}

	r.models[cfg.ID] = &registryEntry{
		config: cfg,
		health: HealthCheck{
			ModelID:     cfg.ID,
			Status:      StatusHealthy,
			SuccessRate: 1.0,
			LastCheck:   r.now().UTC(),
		},
	}
	r.order = append(r.order, cfg.ID)
}

// Config returns a model's config.
func (r *Registry) Config(id string) (ModelConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.models[id]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return entry.config, nil
}

// Health returns a model's health snapshot.
func (r *Registry) Health(id string) (HealthCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.models[id]
	if !ok {
		return HealthCheck{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return entry.health, nil
}

// IDs returns all model IDs in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Candidates returns config+health snapshots in registration order.
func (r *Registry) Candidates() []candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]candidate, 0, len(r.order))
	for _, id := range r.order {
		entry := r.models[id]
		out = append(out, candidate{Config: entry.config, Health: entry.health})
	}
	return out
}

// HealthSnapshots returns every model's health in registration order.
func (r *Registry) HealthSnapshots() []HealthCheck {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]HealthCheck, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.models[id].health)
	}
	return out
}

// SetStatus forces a model's status, e.g. into or out of MAINTENANCE.
func (r *Registry) SetStatus(id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.models[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	entry.health.Status = status
	entry.health.LastCheck = r.now().UTC()
	return nil
}

// RecordProbe applies one probe outcome to a model's health state:
//
//	success: -> HEALTHY, consecutive failures reset
//	failure: consecutive failures + 1; DEGRADED until the third strike,
//	         then UNAVAILABLE
//
// Models in MAINTENANCE are exempt from probe-driven transitions.
func (r *Registry) RecordProbe(id string, latency time.Duration, ok bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.models[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	if entry.health.Status == StatusMaintenance {
		return nil
	}

	h := &entry.health
	h.LastCheck = r.now().UTC()

	outcome := 0.0
	if ok {
		outcome = 1.0
	}
	h.SuccessRate = (1-successRateAlpha)*h.SuccessRate + successRateAlpha*outcome

	if ok {
		h.Status = StatusHealthy
		h.ConsecutiveFailures = 0
		h.LatencyMS = int(latency.Milliseconds())
		return nil
	}

	h.ConsecutiveFailures++
	if h.ConsecutiveFailures >= maxConsecutiveFailures {
		h.Status = StatusUnavailable
	} else {
		h.Status = StatusDegraded
	}
	return nil
}
