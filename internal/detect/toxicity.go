package detect

import (
	"regexp"
	"strings"
)

// fixedScoreDetector is the common shape for toxicity categories where any
// signature hit fixes the score: one severe match dominates, repeats add
// nothing.
type fixedScoreDetector struct {
	category ToxicityCategory
	score    float64
	patterns []namedPattern
}

func (d *fixedScoreDetector) Category() ToxicityCategory { return d.category }

func (d *fixedScoreDetector) Detect(content string) (ToxicityFinding, bool) {
	var flagged []string
	for _, p := range d.patterns {
		flagged = append(flagged, p.re.FindAllString(content, -1)...)
	}
	if len(flagged) == 0 {
		return ToxicityFinding{}, false
	}
	return ToxicityFinding{Category: d.category, Score: d.score, Flagged: flagged}, true
}

// NewHateSpeechDetector returns the hate-speech detector. A single match is
// always maximum severity.
func NewHateSpeechDetector() ToxicityDetector {
	return &fixedScoreDetector{
		category: ToxicityHateSpeech,
		score:    1.0,
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"slur", `(?i)\b(n[i1]gg[ae]r|n[i1]gg[ae]|k[i1]ke|ch[i1]nk|sp[i1]c|wetback)\b`},
			{"eliminationist", `(?i)(death to|kill all|exterminate|genocide).{0,20}(jews|muslims|christians|blacks|whites|gays)`},
			{"dehumanizing", `(?i)(sub-human|inferior race|master race)`},
		}),
	}
}

// NewSexualContentDetector returns the sexual-content detector.
func NewSexualContentDetector() ToxicityDetector {
	return &fixedScoreDetector{
		category: ToxicitySexualContent,
		score:    0.6,
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"explicit_term", `(?i)\b(porn|pornography|xxx|nude|erotic)\b`},
			{"explicit_depiction", `(?i)(sexual|sexually).{0,20}(explicit|graphic|aroused|stimulated)`},
		}),
	}
}

// NewViolenceDetector returns the violent-content detector.
func NewViolenceDetector() ToxicityDetector {
	return &fixedScoreDetector{
		category: ToxicityViolence,
		score:    0.8,
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"targeted_killing", `(?i)(kill|murder|assassinate|execute|slaughter|massacre).{0,30}(him|her|them|people)`},
			{"mutilation", `(?i)(torture|mutilate|dismember|maim|disfigure)`},
			{"graphic_assault", `(?i)(blood|gore|brutal|savage|violent).{0,20}(attack|assault|beating)`},
		}),
	}
}

// NewHarassmentDetector returns the harassment detector.
func NewHarassmentDetector() ToxicityDetector {
	return &fixedScoreDetector{
		category: ToxicityHarassment,
		score:    0.75,
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"incitement_to_self_harm", `(?i)you (are|should).{0,30}(die|kill yourself|end your life)`},
			{"demeaning", `(?i)(stupid|idiot|moron|dumb).{0,20}(person|people|user)`},
			{"degrading", `(?i)(fat|ugly|disgusting|worthless|pathetic).{0,20}(person|piece of)`},
		}),
	}
}

// NewThreatDetector returns the threat detector.
func NewThreatDetector() ToxicityDetector {
	return &fixedScoreDetector{
		category: ToxicityThreat,
		score:    0.95,
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"direct_threat", `(?i)(i will|i'll|gonna|going to).{0,30}(kill|hurt|harm|destroy|attack|bomb|shoot)`},
			{"menacing", `(?i)(watch your back|you're dead|you better watch out)`},
			{"threat_of_violence", `(?i)(threat|threaten|threatening).{0,20}(you|your|violence)`},
		}),
	}
}

// NewIdentityAttackDetector returns the identity-attack detector.
func NewIdentityAttackDetector() ToxicityDetector {
	return &fixedScoreDetector{
		category: ToxicityIdentityAttack,
		score:    0.8,
		patterns: compilePatterns([]struct{ name, pattern string }{
			{"group_attack", `(?i)all (women|men|blacks|whites|asians|hispanics|jews|muslims|christians|gays|trans).{0,30}(are|should)`},
			{"stereotyping", `(?i)(typical|stereotypical).{0,20}(woman|man|black|white|asian|jew|muslim|gay)`},
		}),
	}
}

// ProfanityDetector scores by occurrence frequency rather than saturating on
// first hit: score = min(1, 0.3 + 0.1 * count).
type ProfanityDetector struct {
	words map[string]bool
	token *regexp.Regexp
}

func NewProfanityDetector() *ProfanityDetector {
	words := []string{
		"fuck", "shit", "ass", "bitch", "damn", "bastard", "crap",
		"piss", "dick", "pussy", "cock", "whore", "slut",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return &ProfanityDetector{words: set, token: regexp.MustCompile(`\b\w+\b`)}
}

func (d *ProfanityDetector) Category() ToxicityCategory { return ToxicityProfanity }

func (d *ProfanityDetector) Detect(content string) (ToxicityFinding, bool) {
	count := 0
	seen := map[string]bool{}
	var flagged []string

	for _, tok := range d.token.FindAllString(strings.ToLower(content), -1) {
		if !d.words[tok] {
			continue
		}
		count++
		if !seen[tok] {
			seen[tok] = true
			flagged = append(flagged, tok)
		}
	}
	if count == 0 {
		return ToxicityFinding{}, false
	}

	score := 0.3 + float64(count)*0.1
	if score > 1.0 {
		score = 1.0
	}
	return ToxicityFinding{Category: ToxicityProfanity, Score: score, Flagged: flagged}, true
}
