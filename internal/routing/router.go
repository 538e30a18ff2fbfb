package routing

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCostReference is the per-1K-token cost treated as the ceiling for
// full cost-efficiency score.
const DefaultCostReference = 0.02

// maxFailovers bounds the failover list.
const maxFailovers = 3

// RouteRequest describes one routing call.
type RouteRequest struct {
	Capability Capability
	Preference string  // exact model ID or provider; ignored if nothing matches
	MaxCost    float64 // per 1K tokens; 0 = no cost cap
	LowLatency bool    // weight latency at 40 instead of 20
}

// Router selects a backend model for a capability using a weighted score
// over priority, health, latency, and cost. Stateless; all state lives in
// the registry.
type Router struct {
	registry      *Registry
	costReference float64
}

// NewRouter creates a router over the registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry, costReference: DefaultCostReference}
}

// WithCostReference overrides the cost-efficiency ceiling.
func (r *Router) WithCostReference(ceiling float64) *Router {
	if ceiling > 0 {
		r.costReference = ceiling
	}
	return r
}

// Route picks the best eligible model and an ordered failover list.
//
// Eligible means: declares the capability, enabled, and HEALTHY or
// DEGRADED. An empty set after capability or cost filtering is an error —
// never a silent fallback. A preference narrows the set only when at least
// one candidate matches it exactly.
func (r *Router) Route(req RouteRequest) (RoutingDecision, error) {
	if _, err := ParseCapability(string(req.Capability)); err != nil {
		return RoutingDecision{}, err
	}

	var eligible []candidate
	for _, c := range r.registry.Candidates() {
		if !c.Config.HasCapability(req.Capability) || !c.Config.Enabled {
			continue
		}
		if c.Health.Status != StatusHealthy && c.Health.Status != StatusDegraded {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return RoutingDecision{}, fmt.Errorf("%w for capability %q", ErrNoModelAvailable, req.Capability)
	}

	if req.MaxCost > 0 {
		var affordable []candidate
		for _, c := range eligible {
			if c.Config.CostPer1KTokens <= req.MaxCost {
				affordable = append(affordable, c)
			}
		}
		if len(affordable) == 0 {
			return RoutingDecision{}, fmt.Errorf("%w for capability %q under cost ceiling %.5f",
				ErrNoModelAvailable, req.Capability, req.MaxCost)
		}
		eligible = affordable
	}

	preferenceMatched := false
	if req.Preference != "" {
		var preferred []candidate
		for _, c := range eligible {
			if c.Config.ID == req.Preference || string(c.Config.Provider) == req.Preference {
				preferred = append(preferred, c)
			}
		}
		if len(preferred) > 0 {
			eligible = preferred
			preferenceMatched = true
		}
	}

	// Stable sort keeps registration order for equal scores.
	scores := make([]float64, len(eligible))
	for i, c := range eligible {
		scores[i] = r.score(c, req.LowLatency)
	}
	idx := make([]int, len(eligible))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	selected := eligible[idx[0]]
	failover := make([]string, 0, maxFailovers)
	for _, i := range idx[1:] {
		if len(failover) == maxFailovers {
			break
		}
		failover = append(failover, eligible[i].Config.ID)
	}

	estimatedLatency := selected.Health.LatencyMS
	if estimatedLatency <= 0 {
		estimatedLatency = 1000
	}

	return RoutingDecision{
		SelectedModel:      selected.Config.ID,
		Provider:           selected.Config.Provider,
		Reason:             routeReason(selected, req, preferenceMatched),
		FailoverModels:     failover,
		EstimatedLatencyMS: estimatedLatency,
		EstimatedCost:      selected.Config.CostPer1KTokens,
	}, nil
}

// score weights priority at 30, health at 40 (+10 success rate), latency at
// 20 (40 when low latency is requested), and cost efficiency at 10.
func (r *Router) score(c candidate, lowLatency bool) float64 {
	score := float64(c.Config.Priority) / 100 * 30

	switch c.Health.Status {
	case StatusHealthy:
		score += 40
	case StatusDegraded:
		score += 20
	}
	score += c.Health.SuccessRate * 10

	latencyWeight := 20.0
	if lowLatency {
		latencyWeight = 40.0
	}
	if c.Health.LatencyMS > 0 && c.Config.LatencyThresholdMS > 0 {
		headroom := 1 - float64(c.Health.LatencyMS)/float64(c.Config.LatencyThresholdMS)
		if headroom > 0 {
			score += headroom * latencyWeight
		}
	}

	if c.Config.CostPer1KTokens > 0 {
		efficiency := 1 - c.Config.CostPer1KTokens/r.costReference
		if efficiency > 0 {
			score += efficiency * 10
		}
	}
	return score
}

// routeReason lists the dominant factors, most significant first.
func routeReason(c candidate, req RouteRequest, preferenceMatched bool) string {
	var reasons []string

	if preferenceMatched {
		reasons = append(reasons, "preference match: "+req.Preference)
	}
	if c.Health.Status == StatusHealthy {
		reasons = append(reasons, "healthy status")
	}
	if req.LowLatency && c.Health.LatencyMS > 0 && c.Health.LatencyMS < c.Config.LatencyThresholdMS {
		reasons = append(reasons, fmt.Sprintf("low latency (%dms)", c.Health.LatencyMS))
	}
	if c.Config.Priority >= 90 {
		reasons = append(reasons, "high priority model")
	}
	if c.Config.CostPer1KTokens < 0.005 {
		reasons = append(reasons, "cost-efficient")
	}

	if len(reasons) == 0 {
		return "best available match"
	}
	return strings.Join(reasons, "; ")
}
