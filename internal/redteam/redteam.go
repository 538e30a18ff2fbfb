// Package redteam matches content against a registry of named attack
// vectors and keeps the resulting intelligence and incident logs.
package redteam

import (
	"regexp"
	"time"
)

// Level grades a threat. The string values are wire-stable.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"
	LevelInfo     Level = "INFO"
)

// Category classifies an attack vector.
type Category string

const (
	CategoryPromptInjection    Category = "PROMPT_INJECTION"
	CategoryJailbreak          Category = "JAILBREAK"
	CategoryDataExfiltration   Category = "DATA_EXFILTRATION"
	CategoryModelManipulation  Category = "MODEL_MANIPULATION"
	CategoryAdversarialInput   Category = "ADVERSARIAL_INPUT"
	CategorySocialEngineering  Category = "SOCIAL_ENGINEERING"
	CategoryAPIAbuse           Category = "API_ABUSE"
	CategoryUnauthorizedAccess Category = "UNAUTHORIZED_ACCESS"
	CategoryPoisoningAttack    Category = "POISONING_ATTACK"
)

// Categories returns every known category, for report iteration.
func Categories() []Category {
	return []Category{
		CategoryPromptInjection, CategoryJailbreak, CategoryDataExfiltration,
		CategoryModelManipulation, CategoryAdversarialInput, CategorySocialEngineering,
		CategoryAPIAbuse, CategoryUnauthorizedAccess, CategoryPoisoningAttack,
	}
}

// Levels returns every level, most severe first.
func Levels() []Level {
	return []Level{LevelCritical, LevelHigh, LevelMedium, LevelLow, LevelInfo}
}

// AttackVector is a named, signature-backed adversarial pattern. LastSeen is
// the only field mutated after registration; the engine owns that update.
type AttackVector struct {
	ID              string     `json:"vector_id"`
	Name            string     `json:"name"`
	Category        Category   `json:"category"`
	Description     string     `json:"description"`
	Severity        Level      `json:"severity"`
	Signatures      []string   `json:"detection_signatures"`
	Mitigations     []string   `json:"mitigation_strategies"`
	PrevalenceScore float64    `json:"prevalence_score"` // 0.0-1.0
	LastSeen        *time.Time `json:"last_seen,omitempty"`

	compiled []*regexp.Regexp
}

// ThreatIntelligence records one vector match on one piece of content.
// Immutable once created.
type ThreatIntelligence struct {
	ThreatID           string    `json:"threat_id"`
	Timestamp          time.Time `json:"timestamp"`
	Source             string    `json:"source"`
	Level              Level     `json:"threat_level"`
	Category           Category  `json:"category"`
	Indicators         []string  `json:"indicators"`
	AttackPattern      string    `json:"attack_pattern"`
	RecommendedActions []string  `json:"recommended_actions"`
}

// IncidentStatusNew is the investigation status every incident starts in.
// Later lifecycle transitions belong to an external case-management process.
const IncidentStatusNew = "NEW"

// maxPayloadExcerpt bounds the payload stored on an incident.
const maxPayloadExcerpt = 500

// SecurityIncident is created by explicit caller decision when a detected
// threat warrants a persisted record, typically when the subject is known.
type SecurityIncident struct {
	IncidentID          string    `json:"incident_id"`
	Timestamp           time.Time `json:"timestamp"`
	Subject             string    `json:"subject"`
	Category            Category  `json:"threat_category"`
	Level               Level     `json:"threat_level"`
	AttackVector        string    `json:"attack_vector"`
	Payload             string    `json:"payload"`
	DetectedBy          []string  `json:"detected_by"`
	Blocked             bool      `json:"blocked"`
	InvestigationStatus string    `json:"investigation_status"`
}

// VectorStats summarizes one registered vector for reporting.
type VectorStats struct {
	VectorID   string     `json:"vector_id"`
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	Severity   Level      `json:"severity"`
	Prevalence float64    `json:"prevalence"`
	Incidents  int        `json:"total_incidents"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
}

// Report is a batch rollup of incidents over a time range.
type Report struct {
	ReportID         string           `json:"report_id"`
	Timestamp        time.Time        `json:"timestamp"`
	TotalThreats     int              `json:"total_threats_detected"`
	ByCategory       map[Category]int `json:"threats_by_category"`
	ByLevel          map[Level]int    `json:"threats_by_level"`
	TopAttackVectors []string         `json:"top_attack_vectors"`
	BlockedAttacks   int              `json:"blocked_attacks"`
	UnblockedAttacks int              `json:"successful_attacks"`
	Recommendations  []string         `json:"recommendations"`
}

// DefaultVectors returns the built-in attack-vector registry seed.
func DefaultVectors() []AttackVector {
	return []AttackVector{
		{
			ID:          "PRMPT-INJ-001",
			Name:        "Direct Instruction Override",
			Category:    CategoryPromptInjection,
			Description: "Attacker directly instructs the model to ignore previous instructions",
			Severity:    LevelHigh,
			Signatures: []string{
				`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts|rules|guidelines)`,
				`(?i)disregard (your|the) (programming|training|instructions)`,
				`(?i)forget (everything|all) (you were told|previous instructions)`,
			},
			Mitigations: []string{
				"implement strict prompt templates",
				"use instruction delimiters",
				"apply input validation and sanitization",
			},
			PrevalenceScore: 0.85,
		},
		{
			ID:          "PRMPT-INJ-002",
			Name:        "Indirect Prompt Injection",
			Category:    CategoryPromptInjection,
			Description: "Hidden instructions in retrieved content or documents",
			Severity:    LevelHigh,
			Signatures: []string{
				`<!--.*?SYSTEM.*?-->`,
				`\[SYSTEM\].*?\[/SYSTEM\]`,
				`<\|.*?system.*?\|>`,
			},
			Mitigations: []string{
				"sanitize retrieved content",
				"separate user input from system instructions",
			},
			PrevalenceScore: 0.65,
		},
		{
			ID:          "JAILBREAK-001",
			Name:        "DAN (Do Anything Now)",
			Category:    CategoryJailbreak,
			Description: "Roleplay attack where the model pretends to have no restrictions",
			Severity:    LevelCritical,
			Signatures: []string{
				`(?i)you are (now|going to be) (in )?DAN mode`,
				`(?i)do anything now`,
				`(?i)pretend you (have no|don't have any) (restrictions|limitations)`,
			},
			Mitigations: []string{
				"refuse roleplay scenarios that bypass safety",
				"detect and block jailbreak personas",
			},
			PrevalenceScore: 0.90,
		},
		{
			ID:          "JAILBREAK-002",
			Name:        "Hypothetical Scenario",
			Category:    CategoryJailbreak,
			Description: "Frames harmful requests as hypothetical or fictional scenarios",
			Severity:    LevelHigh,
			Signatures: []string{
				`(?i)(imagine|suppose|hypothetically|let's say).{0,50}(you could|you had to|you were)`,
				`(?i)in (a|an) (fictional|hypothetical) (world|scenario|universe)`,
				`(?i)for (educational|research|academic) purposes only`,
			},
			Mitigations: []string{
				"apply safety filters to hypothetical scenarios",
				"refuse harmful content regardless of framing",
			},
			PrevalenceScore: 0.75,
		},
		{
			ID:          "DATA-EXFIL-001",
			Name:        "System Prompt Extraction",
			Category:    CategoryDataExfiltration,
			Description: "Attempts to reveal system prompts or internal instructions",
			Severity:    LevelHigh,
			Signatures: []string{
				`(?i)(show|reveal|tell me|what is) (your|the) (system prompt|instructions)`,
				`(?i)repeat (everything|all|the) (above|before this)`,
				`(?i)(output|print) (your|the) (initial|original) (prompt|instructions)`,
			},
			Mitigations: []string{
				"never reveal system prompts",
				"use prompt isolation techniques",
			},
			PrevalenceScore: 0.70,
		},
		{
			ID:          "MODEL-MANIP-001",
			Name:        "Token Manipulation",
			Category:    CategoryModelManipulation,
			Description: "Exploits tokenization to hide malicious content",
			Severity:    LevelMedium,
			Signatures: []string{
				`\b[a-z]\s[a-z]\s[a-z]\s[a-z]\b`,
				"[\u200B-\u200D\uFEFF]",
			},
			Mitigations: []string{
				"normalize input before processing",
				"remove zero-width characters",
			},
			PrevalenceScore: 0.40,
		},
		{
			ID:          "API-ABUSE-001",
			Name:        "Rate Limit Evasion",
			Category:    CategoryAPIAbuse,
			Description: "Bypassing rate limits through IP or token rotation; behavioral detection only",
			Severity:    LevelMedium,
			Signatures:  nil,
			Mitigations: []string{
				"implement distributed rate limiting",
				"track requests across identities and IPs",
			},
			PrevalenceScore: 0.60,
		},
	}
}
