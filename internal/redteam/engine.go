package redteam

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const threatSource = "red_team_detection"

// Engine holds the attack-vector registry and the append-mostly intelligence
// and incident logs. All methods are safe for concurrent use; appends are
// never lost but cross-caller ordering beyond timestamps is not guaranteed.
type Engine struct {
	mu        sync.RWMutex
	vectors   map[string]*AttackVector
	order     []string // registration order, for stable listings
	intel     []ThreatIntelligence
	incidents []SecurityIncident

	now func() time.Time
}

// NewEngine builds an engine seeded with DefaultVectors.
func NewEngine() *Engine {
	e := &Engine{
		vectors: make(map[string]*AttackVector),
		now:     time.Now,
	}
	for _, v := range DefaultVectors() {
		// Built-in signatures are fixed at compile time, so a failure here is
		// a programming error.
		if err := e.Register(v); err != nil {
			panic(fmt.Sprintf("registering built-in vector %s: %v", v.ID, err))
		}
	}
	return e
}

// Register adds or replaces an attack vector, compiling its signatures.
// Invalid signatures are rejected wholesale so a registered vector is always
// fully matchable.
func (e *Engine) Register(v AttackVector) error {
	compiled := make([]*regexp.Regexp, 0, len(v.Signatures))
	for _, sig := range v.Signatures {
		re, err := regexp.Compile(sig)
		if err != nil {
			return fmt.Errorf("compiling signature %q for vector %s: %w", sig, v.ID, err)
		}
		compiled = append(compiled, re)
	}
	v.compiled = compiled

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.vectors[v.ID]; !exists {
		e.order = append(e.order, v.ID)
	}
	e.vectors[v.ID] = &v
	return nil
}

// Analyze scans content against every registered vector. Each matched vector
// yields exactly one ThreatIntelligence regardless of how many of its
// signatures hit, and bumps the vector's LastSeen.
func (e *Engine) Analyze(content string) []ThreatIntelligence {
	now := e.now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	var detected []ThreatIntelligence
	for _, id := range e.order {
		v := e.vectors[id]

		var indicators []string
		for i, re := range v.compiled {
			if re.MatchString(content) {
				indicators = append(indicators, v.Signatures[i])
			}
		}
		if len(indicators) == 0 {
			continue
		}

		seen := now
		v.LastSeen = &seen

		threat := ThreatIntelligence{
			ThreatID:           threatID(content, v.ID, now),
			Timestamp:          now,
			Source:             threatSource,
			Level:              v.Severity,
			Category:           v.Category,
			Indicators:         indicators,
			AttackPattern:      v.Name,
			RecommendedActions: v.Mitigations,
		}
		detected = append(detected, threat)
		e.intel = append(e.intel, threat)
	}
	return detected
}

// IncidentParams carries the caller's decision context for CreateIncident.
type IncidentParams struct {
	Subject      string
	Category     Category
	Level        Level
	AttackVector string
	Payload      string
	DetectedBy   []string
	Blocked      bool
}

// CreateIncident records a security incident. Whether a detected threat
// warrants one is the caller's decision, not the engine's.
func (e *Engine) CreateIncident(p IncidentParams) SecurityIncident {
	payload := p.Payload
	if len(payload) > maxPayloadExcerpt {
		// Back off to a rune boundary so the excerpt stays valid UTF-8.
		cut := maxPayloadExcerpt
		for cut > 0 && !utf8.RuneStart(payload[cut]) {
			cut--
		}
		payload = payload[:cut]
	}

	incident := SecurityIncident{
		IncidentID:          "INC-" + strings.ToUpper(uuid.NewString()[:12]),
		Timestamp:           e.now().UTC(),
		Subject:             p.Subject,
		Category:            p.Category,
		Level:               p.Level,
		AttackVector:        p.AttackVector,
		Payload:             payload,
		DetectedBy:          p.DetectedBy,
		Blocked:             p.Blocked,
		InvestigationStatus: IncidentStatusNew,
	}

	e.mu.Lock()
	e.incidents = append(e.incidents, incident)
	e.mu.Unlock()
	return incident
}

// Report aggregates incidents in [start, end] by category and level, ranks
// the ten most frequent vectors, and counts blocked vs unblocked attacks.
func (e *Engine) Report(start, end time.Time) Report {
	e.mu.RLock()
	var period []SecurityIncident
	for _, inc := range e.incidents {
		if !inc.Timestamp.Before(start) && !inc.Timestamp.After(end) {
			period = append(period, inc)
		}
	}
	e.mu.RUnlock()

	byCategory := make(map[Category]int)
	byLevel := make(map[Level]int)
	vectorCounts := make(map[string]int)
	blocked := 0

	for _, inc := range period {
		byCategory[inc.Category]++
		byLevel[inc.Level]++
		vectorCounts[inc.AttackVector]++
		if inc.Blocked {
			blocked++
		}
	}

	return Report{
		ReportID:         "RPT-" + e.now().UTC().Format("20060102150405"),
		Timestamp:        e.now().UTC(),
		TotalThreats:     len(period),
		ByCategory:       byCategory,
		ByLevel:          byLevel,
		TopAttackVectors: topVectors(vectorCounts, 10),
		BlockedAttacks:   blocked,
		UnblockedAttacks: len(period) - blocked,
		Recommendations:  reportRecommendations(period, byLevel, byCategory),
	}
}

// VectorStats lists every registered vector with its incident count, most
// frequent first.
func (e *Engine) VectorStats() []VectorStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, inc := range e.incidents {
		counts[inc.AttackVector]++
	}

	stats := make([]VectorStats, 0, len(e.order))
	for _, id := range e.order {
		v := e.vectors[id]
		stats = append(stats, VectorStats{
			VectorID:   v.ID,
			Name:       v.Name,
			Category:   v.Category,
			Severity:   v.Severity,
			Prevalence: v.PrevalenceScore,
			Incidents:  counts[v.Name],
			LastSeen:   v.LastSeen,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Incidents > stats[j].Incidents })
	return stats
}

// RecentIncidents returns up to limit incidents, newest first.
func (e *Engine) RecentIncidents(limit int) []SecurityIncident {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]SecurityIncident, len(e.incidents))
	copy(out, e.incidents)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// VectorCount returns the number of registered vectors.
func (e *Engine) VectorCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.vectors)
}

func threatID(content, vectorID string, at time.Time) string {
	if len(content) > 100 {
		content = content[:100]
	}
	sum := sha256.Sum256([]byte(content + "_" + vectorID + "_" + at.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:16]
}

func topVectors(counts map[string]int, n int) []string {
	type kv struct {
		name  string
		count int
	}
	ranked := make([]kv, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, kv{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.name
	}
	return names
}

func reportRecommendations(period []SecurityIncident, byLevel map[Level]int, byCategory map[Category]int) []string {
	var recs []string

	if critical := byLevel[LevelCritical]; critical > 0 {
		recs = append(recs, fmt.Sprintf("urgent: %d critical threats detected, immediate review required", critical))
	}
	unblocked := 0
	for _, inc := range period {
		if !inc.Blocked {
			unblocked++
		}
	}
	if unblocked > 0 {
		recs = append(recs, fmt.Sprintf("strengthen defenses: %d attacks were not blocked", unblocked))
	}

	if byCategory[CategoryJailbreak] > 0 {
		recs = append(recs, "enable advanced jailbreak detection and filtering")
	}
	if byCategory[CategoryPromptInjection] > 0 {
		recs = append(recs, "implement strict prompt template isolation")
	}
	if byCategory[CategoryDataExfiltration] > 0 {
		recs = append(recs, "review and enhance data protection policies")
	}

	if len(recs) == 0 {
		recs = append(recs, "no significant threats detected, continue monitoring")
	}
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}
