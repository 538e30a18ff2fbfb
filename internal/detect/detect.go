// Package detect contains the stateless signal detectors that feed the risk
// and moderation aggregators. Every detector compiles its pattern table once
// at construction and is safe for concurrent use.
package detect

// Severity grades a finding. The string values are wire-stable.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityMinimal  Severity = "MINIMAL"
)

// RiskCategory classifies a risk finding.
type RiskCategory string

const (
	CategoryDataLeakage         RiskCategory = "DATA_LEAKAGE"
	CategoryHarmfulOutput       RiskCategory = "HARMFUL_OUTPUT"
	CategoryAdversarialAttack   RiskCategory = "ADVERSARIAL_ATTACK"
	CategoryComplianceViolation RiskCategory = "COMPLIANCE_VIOLATION"
	CategoryBiasDiscrimination  RiskCategory = "BIAS_DISCRIMINATION"
	CategoryMisinformation      RiskCategory = "MISINFORMATION"
	CategoryPromptInjection     RiskCategory = "PROMPT_INJECTION"
	CategoryJailbreakAttempt    RiskCategory = "JAILBREAK_ATTEMPT"
)

// ToxicityCategory classifies a moderation finding.
type ToxicityCategory string

const (
	ToxicityProfanity      ToxicityCategory = "PROFANITY"
	ToxicityHateSpeech     ToxicityCategory = "HATE_SPEECH"
	ToxicitySexualContent  ToxicityCategory = "SEXUAL_CONTENT"
	ToxicityViolence       ToxicityCategory = "VIOLENCE"
	ToxicityHarassment     ToxicityCategory = "HARASSMENT"
	ToxicityThreat         ToxicityCategory = "THREAT"
	ToxicityIdentityAttack ToxicityCategory = "IDENTITY_ATTACK"
	ToxicityInsult         ToxicityCategory = "INSULT"
)

// maxEvidence bounds the evidence list attached to a risk finding.
const maxEvidence = 3

// RiskFinding is a single detector hit on one piece of content.
type RiskFinding struct {
	Category   RiskCategory `json:"category"`
	Severity   Severity     `json:"severity"`
	Score      int          `json:"score"`      // 0-100
	Confidence float64      `json:"confidence"` // 0.0-1.0
	Evidence   []string     `json:"evidence"`
	Mitigation string       `json:"mitigation,omitempty"`
}

// RiskDetector maps content to zero or one risk finding.
// Implementations must be deterministic and free of I/O.
type RiskDetector interface {
	Category() RiskCategory
	Detect(content string) (RiskFinding, bool)
}

// ToxicityFinding is a single toxicity-category hit. Flagged carries the
// matched substrings verbatim so the moderator can redact them.
type ToxicityFinding struct {
	Category ToxicityCategory `json:"category"`
	Score    float64          `json:"score"` // 0.0-1.0
	Flagged  []string         `json:"flagged"`
}

// ToxicityDetector maps content to zero or one toxicity finding.
type ToxicityDetector interface {
	Category() ToxicityCategory
	Detect(content string) (ToxicityFinding, bool)
}

func capEvidence(evidence []string) []string {
	if len(evidence) > maxEvidence {
		return evidence[:maxEvidence]
	}
	return evidence
}
