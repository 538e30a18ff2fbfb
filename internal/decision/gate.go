// Package decision combines risk, moderation, and threat verdicts into a
// single ALLOW / REVIEW / BLOCK outcome per evaluation.
package decision

import (
	"fmt"
	"strings"

	"github.com/vigil-ai/vigil/internal/moderation"
	"github.com/vigil-ai/vigil/internal/redteam"
	"github.com/vigil-ai/vigil/internal/risk"
)

// Verdict is the final gate outcome. Wire-stable.
type Verdict string

const (
	VerdictAllow  Verdict = "ALLOW"
	VerdictReview Verdict = "REVIEW"
	VerdictBlock  Verdict = "BLOCK"
)

// Decision is the combined outcome for one evaluated input.
type Decision struct {
	Allowed        bool                         `json:"allowed"`
	Verdict        Verdict                      `json:"decision"`
	Risk           risk.Assessment              `json:"risk_assessment"`
	Moderation     moderation.Result            `json:"content_moderation"`
	Threats        []redteam.ThreatIntelligence `json:"threats_detected"`
	Recommendation string                       `json:"recommendation"`
	Metadata       map[string]any               `json:"metadata"`
}

// PromptInput is one inbound prompt to evaluate. Subject, when present,
// enables incident recording for detected threats.
type PromptInput struct {
	Content string
	Subject string
	ModelID string
}

// Gate runs the decision pipeline. Evaluation is pure and stateless aside
// from the threat engine's append-only intelligence and incident logs, so a
// single Gate serves concurrent requests.
type Gate struct {
	assessor  *risk.Assessor
	moderator *moderation.Moderator
	threats   *redteam.Engine
}

// NewGate wires the three verdict sources together.
func NewGate(assessor *risk.Assessor, moderator *moderation.Moderator, threats *redteam.Engine) *Gate {
	return &Gate{assessor: assessor, moderator: moderator, threats: threats}
}

// AnalyzePrompt evaluates a prompt before it reaches a model: risk
// assessment, content moderation, and threat detection. When the subject is
// known, each detected threat is recorded as an incident; anonymous traffic
// produces intelligence but no incident records.
func (g *Gate) AnalyzePrompt(in PromptInput) Decision {
	riskResult := g.assessor.AssessPrompt(in.Content)
	modResult := g.moderator.Moderate(in.Content)
	threats := g.threats.Analyze(in.Content)

	blocked := riskResult.ShouldBlock || modResult.ShouldBlock || anySevere(threats)
	review := !blocked && (riskResult.ShouldReview || (modResult.IsToxic && !modResult.ShouldBlock))

	if in.Subject != "" {
		for _, threat := range threats {
			g.threats.CreateIncident(redteam.IncidentParams{
				Subject:      in.Subject,
				Category:     threat.Category,
				Level:        threat.Level,
				AttackVector: threat.AttackPattern,
				Payload:      in.Content,
				DetectedBy:   []string{"risk_assessor", "content_moderator", "red_team"},
				Blocked:      blocked,
			})
		}
	}

	return Decision{
		Allowed:        !blocked,
		Verdict:        verdictFor(blocked, review),
		Risk:           riskResult,
		Moderation:     modResult,
		Threats:        threats,
		Recommendation: promptRecommendation(blocked, review, riskResult, modResult, threats),
		Metadata: map[string]any{
			"overall_risk_score": riskResult.OverallScore,
			"toxicity_score":     modResult.ToxicityScore,
			"threat_count":       len(threats),
		},
	}
}

// AnalyzeResponse evaluates a model response before delivery. Threat
// detection does not apply to outbound content; instead the decision carries
// whether a redacted rendition is available.
func (g *Gate) AnalyzeResponse(content string) Decision {
	riskResult := g.assessor.AssessResponse(content)
	modResult := g.moderator.Moderate(content)

	blocked := riskResult.ShouldBlock || modResult.ShouldBlock
	review := !blocked && riskResult.ShouldReview

	return Decision{
		Allowed:        !blocked,
		Verdict:        verdictFor(blocked, review),
		Risk:           riskResult,
		Moderation:     modResult,
		Threats:        nil,
		Recommendation: responseRecommendation(blocked, review, modResult),
		Metadata: map[string]any{
			"overall_risk_score": riskResult.OverallScore,
			"toxicity_score":     modResult.ToxicityScore,
			"redacted_available": modResult.RedactedContent != "",
		},
	}
}

func verdictFor(blocked, review bool) Verdict {
	switch {
	case blocked:
		return VerdictBlock
	case review:
		return VerdictReview
	default:
		return VerdictAllow
	}
}

// anySevere reports whether any threat carries a level that blocks outright.
func anySevere(threats []redteam.ThreatIntelligence) bool {
	for _, t := range threats {
		if t.Level == redteam.LevelCritical || t.Level == redteam.LevelHigh {
			return true
		}
	}
	return false
}

func promptRecommendation(blocked, review bool, r risk.Assessment, m moderation.Result, threats []redteam.ThreatIntelligence) string {
	if blocked {
		var b strings.Builder
		b.WriteString("Request blocked due to security risks.")
		if r.ShouldBlock {
			fmt.Fprintf(&b, " Risk: %s.", r.Level)
		}
		if m.ShouldBlock {
			fmt.Fprintf(&b, " Content: %s.", m.Level)
		}
		if len(threats) > 0 {
			patterns := make([]string, 0, len(threats))
			for _, t := range threats {
				patterns = append(patterns, t.AttackPattern)
			}
			fmt.Fprintf(&b, " Threats: %s.", strings.Join(patterns, ", "))
		}
		return b.String()
	}
	if review {
		return "Manual review recommended before processing."
	}
	return "Prompt passes all security checks."
}

func responseRecommendation(blocked, review bool, m moderation.Result) string {
	if blocked {
		if m.RedactedContent != "" {
			return "Response blocked. Consider using redacted version."
		}
		return "Response blocked due to security violations."
	}
	if review {
		return "Response requires review before delivery."
	}
	return "Response passes all security checks."
}
