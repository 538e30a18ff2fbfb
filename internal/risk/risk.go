// Package risk fuses detector findings into a single assessment for one
// piece of content.
package risk

import (
	"math"

	"github.com/vigil-ai/vigil/internal/detect"
)

// Level thresholds for the fused score.
const (
	thresholdCritical = 85
	thresholdHigh     = 70
	thresholdMedium   = 50
	thresholdLow      = 30
)

const maxRecommendations = 5

// Assessment is the immutable result of one evaluation. Every field is
// derived from Factors at construction time.
type Assessment struct {
	OverallScore    int                  `json:"overall_risk_score"` // 0-100
	Level           detect.Severity      `json:"risk_level"`
	Factors         []detect.RiskFinding `json:"risk_factors"`
	Recommendations []string             `json:"recommendations"`
	ShouldBlock     bool                 `json:"should_block"`
	ShouldReview    bool                 `json:"should_review"`
}

// Assessor runs a fixed detector set over prompts and responses. It holds no
// mutable state and is safe for concurrent use.
type Assessor struct {
	prompt   []detect.RiskDetector
	response []detect.RiskDetector
}

// NewAssessor builds an assessor with the built-in detector sets. Prompts are
// checked for adversarial input; responses for leakage and biased output.
func NewAssessor() *Assessor {
	pii := detect.NewPIIDetector()
	harmful := detect.NewHarmfulContentDetector()
	confidential := detect.NewConfidentialityDetector()

	return &Assessor{
		prompt: []detect.RiskDetector{
			pii,
			detect.NewJailbreakDetector(),
			detect.NewInjectionDetector(),
			harmful,
			confidential,
		},
		response: []detect.RiskDetector{
			pii,
			harmful,
			detect.NewBiasDetector(),
			confidential,
		},
	}
}

// AssessPrompt evaluates a user prompt before it reaches a model.
func (a *Assessor) AssessPrompt(content string) Assessment {
	return fuse(run(a.prompt, content))
}

// AssessResponse evaluates a model response before it reaches the user.
func (a *Assessor) AssessResponse(content string) Assessment {
	return fuse(run(a.response, content))
}

func run(detectors []detect.RiskDetector, content string) []detect.RiskFinding {
	var factors []detect.RiskFinding
	for _, d := range detectors {
		if f, ok := d.Detect(content); ok {
			factors = append(factors, f)
		}
	}
	return factors
}

// fuse computes the confidence-weighted mean of the factor scores and derives
// level, block/review flags, and recommendations.
func fuse(factors []detect.RiskFinding) Assessment {
	if len(factors) == 0 {
		return Assessment{
			Level:           detect.SeverityMinimal,
			Factors:         []detect.RiskFinding{},
			Recommendations: []string{"no significant risks detected"},
		}
	}

	var weighted, weight float64
	for _, f := range factors {
		weighted += float64(f.Score) * f.Confidence
		weight += f.Confidence
	}
	score := int(math.Round(weighted / weight))

	level := levelFor(score)
	return Assessment{
		OverallScore:    score,
		Level:           level,
		Factors:         factors,
		Recommendations: recommend(factors, level),
		ShouldBlock:     level == detect.SeverityCritical || level == detect.SeverityHigh,
		ShouldReview:    level == detect.SeverityHigh || level == detect.SeverityMedium,
	}
}

func levelFor(score int) detect.Severity {
	switch {
	case score >= thresholdCritical:
		return detect.SeverityCritical
	case score >= thresholdHigh:
		return detect.SeverityHigh
	case score >= thresholdMedium:
		return detect.SeverityMedium
	case score >= thresholdLow:
		return detect.SeverityLow
	default:
		return detect.SeverityMinimal
	}
}

// recommend emits per-category advice, most urgent first, deduplicated by
// category and capped at maxRecommendations.
func recommend(factors []detect.RiskFinding, level detect.Severity) []string {
	categories := map[detect.RiskCategory]bool{}
	for _, f := range factors {
		categories[f.Category] = true
	}

	var recs []string

	switch level {
	case detect.SeverityCritical:
		recs = append(recs, "immediate action required: block request and alert security team")
	case detect.SeverityHigh:
		recs = append(recs, "require manual review before proceeding")
	case detect.SeverityMedium:
		recs = append(recs, "log for audit and consider additional monitoring")
	}

	if categories[detect.CategoryHarmfulOutput] {
		recs = append(recs, "enable content moderation filters and human review for flagged content")
	}
	if categories[detect.CategoryDataLeakage] {
		recs = append(recs, "enable DLP scanning and PII redaction")
	}
	if categories[detect.CategoryJailbreakAttempt] || categories[detect.CategoryPromptInjection] {
		recs = append(recs, "apply input sanitization and prompt template isolation")
	}
	if categories[detect.CategoryComplianceViolation] {
		recs = append(recs, "review data classification and handling requirements")
	}
	if categories[detect.CategoryBiasDiscrimination] {
		recs = append(recs, "review output for bias before delivery")
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
