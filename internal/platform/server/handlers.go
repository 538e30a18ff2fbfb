package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vigil-ai/vigil/internal/decision"
	"github.com/vigil-ai/vigil/internal/routing"
)

type promptAnalysisRequest struct {
	Prompt    string `json:"prompt"`
	UserEmail string `json:"user_email"`
	ModelID   string `json:"model_id"`
}

type responseAnalysisRequest struct {
	Response string `json:"response"`
}

type modelRouteRequest struct {
	Capability string  `json:"capability"`
	Preference string  `json:"preference"`
	MaxCost    float64 `json:"max_cost"`
	LowLatency bool    `json:"low_latency"`
}

func (s *Server) handleAnalyzePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	key := decision.Fingerprint(req.UserEmail, "analyze_prompt", req.Prompt)
	if s.deps.Cache != nil {
		if cached, ok := s.deps.Cache.Get(key); ok {
			s.countCacheHit(true)
			writeJSON(w, http.StatusOK, cached)
			return
		}
		s.countCacheHit(false)
	}

	d := s.deps.Gate.AnalyzePrompt(decision.PromptInput{
		Content: req.Prompt,
		Subject: req.UserEmail,
		ModelID: req.ModelID,
	})
	s.countDecision("prompt", d)

	if s.deps.Cache != nil {
		s.deps.Cache.Set(key, d)
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAnalyzeResponse(w http.ResponseWriter, r *http.Request) {
	var req responseAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Response == "" {
		writeError(w, http.StatusBadRequest, "response is required")
		return
	}

	d := s.deps.Gate.AnalyzeResponse(req.Response)
	s.countDecision("response", d)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRouteModel(w http.ResponseWriter, r *http.Request) {
	var req modelRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.deps.Router.Route(routing.RouteRequest{
		Capability: routing.Capability(req.Capability),
		Preference: req.Preference,
		MaxCost:    req.MaxCost,
		LowLatency: req.LowLatency,
	})
	if err != nil {
		var invalid *routing.InvalidValueError
		switch {
		case errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, invalid.Error())
		case errors.Is(err, routing.ErrNoModelAvailable):
			if s.deps.Metrics != nil {
				s.deps.Metrics.RoutingFailures.Inc()
			}
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "routing failed")
		}
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RoutingSelections.WithLabelValues(result.SelectedModel).Inc()
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleModelHealth(w http.ResponseWriter, r *http.Request) {
	snapshots := s.deps.Registry.HealthSnapshots()
	writeJSON(w, http.StatusOK, map[string]any{
		"models": snapshots,
		"total":  len(snapshots),
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.deps.Tracker.CheckAll(r.Context())
	snapshots := s.deps.Registry.HealthSnapshots()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "completed",
		"models": snapshots,
	})
}

func (s *Server) handleThreatReport(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be RFC 3339")
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be RFC 3339")
			return
		}
		end = t
	}

	writeJSON(w, http.StatusOK, s.deps.Threats.Report(start, end))
}

func (s *Server) handleAttackVectors(w http.ResponseWriter, r *http.Request) {
	stats := s.deps.Threats.VectorStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"vectors": stats,
		"total":   len(stats),
	})
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	incidents := s.deps.Threats.RecentIncidents(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"incidents": incidents,
		"total":     len(incidents),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	summary := map[string]any{"timestamp": now}

	if s.deps.Threats != nil {
		report := s.deps.Threats.Report(now.Add(-24*time.Hour), now)
		summary["threats"] = map[string]any{
			"last_24h":    report.TotalThreats,
			"blocked":     report.BlockedAttacks,
			"by_category": report.ByCategory,
			"by_level":    report.ByLevel,
		}
		summary["recommendations"] = report.Recommendations
	}

	if s.deps.Registry != nil {
		snapshots := s.deps.Registry.HealthSnapshots()
		counts := map[routing.Status]int{}
		for _, h := range snapshots {
			counts[h.Status]++
		}
		summary["models"] = map[string]any{
			"total":       len(snapshots),
			"healthy":     counts[routing.StatusHealthy],
			"degraded":    counts[routing.StatusDegraded],
			"unavailable": counts[routing.StatusUnavailable],
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) countDecision(direction string, d decision.Decision) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.DecisionsTotal.WithLabelValues(direction, string(d.Verdict)).Inc()
	for _, f := range d.Risk.Factors {
		s.deps.Metrics.FindingsTotal.WithLabelValues(string(f.Category)).Inc()
	}
	for _, t := range d.Threats {
		s.deps.Metrics.ThreatsTotal.WithLabelValues(string(t.Category)).Inc()
	}
}

func (s *Server) countCacheHit(hit bool) {
	if s.deps.Metrics == nil {
		return
	}
	if hit {
		s.deps.Metrics.CacheHits.Inc()
	} else {
		s.deps.Metrics.CacheMisses.Inc()
	}
}
