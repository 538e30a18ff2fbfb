package detect

import (
	"fmt"
	"regexp"
)

// namedPattern is one precompiled signature in a detector's table.
type namedPattern struct {
	name string
	re   *regexp.Regexp
}

func compilePatterns(raw []struct{ name, pattern string }) []namedPattern {
	patterns := make([]namedPattern, 0, len(raw))
	for _, r := range raw {
		patterns = append(patterns, namedPattern{name: r.name, re: regexp.MustCompile(r.pattern)})
	}
	return patterns
}

// PIIDetector finds personal or secret data in content. The most sensitive
// matched type (SSN, credit card, API key) drives the finding's severity.
type PIIDetector struct {
	patterns []namedPattern
	critical map[string]bool
}

// NewPIIDetector builds the detector with its built-in pattern table.
func NewPIIDetector() *PIIDetector {
	return &PIIDetector{
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"ssn", `\b\d{3}-\d{2}-\d{4}\b`},
			{"credit_card", `\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`},
			{"email", `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`},
			{"phone", `\b(\+\d{1,2}\s?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`},
			{"ip_address", `\b(?:\d{1,3}\.){3}\d{1,3}\b`},
			{"api_key", `(?i)(api[_-]?key|apikey|access[_-]?token|secret[_-]?key)[\s:=]+['"]?[a-zA-Z0-9_\-]{20,}['"]?`},
		}),
		critical: map[string]bool{"ssn": true, "credit_card": true, "api_key": true},
	}
}

func (d *PIIDetector) Category() RiskCategory { return CategoryDataLeakage }

// Detect reports one DATA_LEAKAGE finding covering every matched PII type.
func (d *PIIDetector) Detect(content string) (RiskFinding, bool) {
	var evidence []string
	anyCritical := false

	for _, p := range d.patterns {
		matches := p.re.FindAllString(content, -1)
		if len(matches) == 0 {
			continue
		}
		if d.critical[p.name] {
			anyCritical = true
		}
		evidence = append(evidence, fmt.Sprintf("detected %s: %d occurrence(s)", p.name, len(matches)))
	}

	if len(evidence) == 0 {
		return RiskFinding{}, false
	}

	severity, score := SeverityHigh, 70
	if anyCritical {
		severity, score = SeverityCritical, 90
	}

	return RiskFinding{
		Category:   CategoryDataLeakage,
		Severity:   severity,
		Score:      score,
		Confidence: 0.95,
		Evidence:   capEvidence(evidence),
		Mitigation: "remove or redact sensitive data before processing",
	}, true
}

// JailbreakDetector fires on known model-manipulation phrasings. Any single
// match saturates the finding; additional matches add no weight.
type JailbreakDetector struct {
	patterns []namedPattern
}

func NewJailbreakDetector() *JailbreakDetector {
	return &JailbreakDetector{
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"ignore_instructions", `(?i)ignore\s+(all\s+)?(previous|prior|above|your)\s+(instructions|prompts|rules|guidelines|directives)`},
			{"dan_mode", `(?i)you (are|must) now (in|a) (DAN|developer|jailbreak|unrestricted) mode`},
			{"no_restrictions", `(?i)(pretend|act|behave) (as if|like) you (have no|don't have) (restrictions|limitations|rules)`},
			{"disregard_training", `(?i)disregard (your|all) (programming|training|guidelines|safety)`},
			{"respond_only", `(?i)from now on.*respond (only|directly) (to|with)`},
			{"forget_constraints", `(?i)you will now (forget|ignore) (your|all) (constraints|limitations)`},
		}),
	}
}

func (d *JailbreakDetector) Category() RiskCategory { return CategoryJailbreakAttempt }

func (d *JailbreakDetector) Detect(content string) (RiskFinding, bool) {
	for _, p := range d.patterns {
		if p.re.MatchString(content) {
			return RiskFinding{
				Category:   CategoryJailbreakAttempt,
				Severity:   SeverityHigh,
				Score:      85,
				Confidence: 0.90,
				Evidence:   []string{"jailbreak pattern matched: " + p.name},
				Mitigation: "block request and log for security review",
			}, true
		}
	}
	return RiskFinding{}, false
}

// InjectionDetector fires on structural prompt-injection markers such as
// forged role delimiters or template tokens.
type InjectionDetector struct {
	patterns []namedPattern
}

func NewInjectionDetector() *InjectionDetector {
	return &InjectionDetector{
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"role_prefix", `(?i)(system|assistant|user):\s*\n`},
			{"instruction_header", `(?i)###?\s*(instruction|system|prompt)s?\s*:`},
			{"template_token", `(?i)<\|?(system|im_start|endoftext|user)\|?>`},
			{"ignore_and_instead", `(?i)ignore the (above|previous) and (instead|now)`},
		}),
	}
}

func (d *InjectionDetector) Category() RiskCategory { return CategoryPromptInjection }

func (d *InjectionDetector) Detect(content string) (RiskFinding, bool) {
	for _, p := range d.patterns {
		if p.re.MatchString(content) {
			return RiskFinding{
				Category:   CategoryPromptInjection,
				Severity:   SeverityHigh,
				Score:      80,
				Confidence: 0.85,
				Evidence:   []string{"prompt injection pattern matched: " + p.name},
				Mitigation: "sanitize input and apply strict prompt template",
			}, true
		}
	}
	return RiskFinding{}, false
}

// HarmfulContentDetector fires on requests for or descriptions of dangerous
// acts.
type HarmfulContentDetector struct {
	patterns []namedPattern
}

func NewHarmfulContentDetector() *HarmfulContentDetector {
	return &HarmfulContentDetector{
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"violence_instructions", `(?i)(how to|ways to|methods to).{0,50}(harm|hurt|kill|assassinate|murder)`},
			{"weapons", `(?i)(build|make|create|manufacture).{0,30}(bomb|explosive|weapon)`},
			{"intrusion", `(?i)(hack|exploit|breach|compromise).{0,30}(system|network|database|account)`},
			{"csam", `(?i)(child|minor|underage).{0,30}(sexual|explicit|abuse)`},
			{"self_harm", `(?i)(suicide|self-harm).{0,30}(method|way|how to)`},
		}),
	}
}

func (d *HarmfulContentDetector) Category() RiskCategory { return CategoryHarmfulOutput }

func (d *HarmfulContentDetector) Detect(content string) (RiskFinding, bool) {
	for _, p := range d.patterns {
		if p.re.MatchString(content) {
			return RiskFinding{
				Category:   CategoryHarmfulOutput,
				Severity:   SeverityCritical,
				Score:      95,
				Confidence: 0.88,
				Evidence:   []string{"harmful content pattern matched: " + p.name},
				Mitigation: "block immediately and alert security team",
			}, true
		}
	}
	return RiskFinding{}, false
}

// BiasDetector fires on broad discriminatory generalizations. Used on the
// response side only.
type BiasDetector struct {
	patterns []namedPattern
}

func NewBiasDetector() *BiasDetector {
	return &BiasDetector{
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"group_generalization", `(?i)(all|every|most).{0,20}(women|men|blacks|whites|asians|muslims|jews|gays).{0,30}(are|should be|deserve)`},
			{"supremacy", `(?i)(inferior|superior).{0,20}(race|ethnicity|gender|religion)`},
		}),
	}
}

func (d *BiasDetector) Category() RiskCategory { return CategoryBiasDiscrimination }

func (d *BiasDetector) Detect(content string) (RiskFinding, bool) {
	for _, p := range d.patterns {
		if p.re.MatchString(content) {
			return RiskFinding{
				Category:   CategoryBiasDiscrimination,
				Severity:   SeverityHigh,
				Score:      75,
				Confidence: 0.75,
				Evidence:   []string{"bias pattern matched: " + p.name},
				Mitigation: "review for bias before delivery",
			}, true
		}
	}
	return RiskFinding{}, false
}

// ConfidentialityDetector fires on document-classification markers that
// indicate proprietary material.
type ConfidentialityDetector struct {
	patterns []namedPattern
}

func NewConfidentialityDetector() *ConfidentialityDetector {
	return &ConfidentialityDetector{
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"proprietary_tag", `(?i)@proprietary`},
			{"confidential", `(?i)CONFIDENTIAL`},
			{"internal_only", `(?i)INTERNAL\s+ONLY`},
			{"trade_secret", `(?i)TRADE\s+SECRET`},
			{"do_not_share", `(?i)DO\s+NOT\s+SHARE`},
			{"restricted", `(?i)RESTRICTED\s+ACCESS`},
		}),
	}
}

func (d *ConfidentialityDetector) Category() RiskCategory { return CategoryComplianceViolation }

func (d *ConfidentialityDetector) Detect(content string) (RiskFinding, bool) {
	matched := 0
	for _, p := range d.patterns {
		if p.re.MatchString(content) {
			matched++
		}
	}
	if matched == 0 {
		return RiskFinding{}, false
	}
	return RiskFinding{
		Category:   CategoryComplianceViolation,
		Severity:   SeverityCritical,
		Score:      90,
		Confidence: 0.98,
		Evidence:   []string{fmt.Sprintf("confidentiality markers detected: %d", matched)},
		Mitigation: "block and require manual review",
	}, true
}
