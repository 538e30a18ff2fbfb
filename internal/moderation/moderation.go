// Package moderation scores content against the toxicity detectors and
// produces a moderation verdict, optionally with a redacted rendering.
package moderation

import (
	"github.com/vigil-ai/vigil/internal/detect"
)

// Level grades overall toxicity. The string values are wire-stable.
type Level string

const (
	LevelSevere   Level = "SEVERE"
	LevelHigh     Level = "HIGH"
	LevelModerate Level = "MODERATE"
	LevelLow      Level = "LOW"
	LevelClean    Level = "CLEAN"
)

// DefaultThreshold is the is-toxic cutoff outside strict mode.
const (
	DefaultThreshold = 0.7
	StrictThreshold  = 0.5
)

// Result is the outcome of moderating one piece of content.
type Result struct {
	IsToxic        bool                      `json:"is_toxic"`
	ToxicityScore  float64                   `json:"toxicity_score"` // 0.0-1.0
	Level          Level                     `json:"toxicity_level"`
	Categories     []detect.ToxicityCategory `json:"categories"`
	FlaggedContent []string                  `json:"flagged_content"`
	ShouldBlock    bool                      `json:"should_block"`
	RedactedContent string                   `json:"redacted_content,omitempty"`
}

// Moderator fuses toxicity-category findings. The overall score is the max
// over categories so one severe category is never diluted by averaging.
type Moderator struct {
	detectors []detect.ToxicityDetector
	threshold float64
}

// Option configures a Moderator.
type Option func(*Moderator)

// WithThreshold overrides the is-toxic cutoff.
func WithThreshold(threshold float64) Option {
	return func(m *Moderator) { m.threshold = threshold }
}

// Strict applies the strict-mode cutoff.
func Strict() Option {
	return WithThreshold(StrictThreshold)
}

// NewModerator builds a moderator with the built-in toxicity detectors.
func NewModerator(opts ...Option) *Moderator {
	m := &Moderator{
		detectors: []detect.ToxicityDetector{
			detect.NewProfanityDetector(),
			detect.NewHateSpeechDetector(),
			detect.NewSexualContentDetector(),
			detect.NewViolenceDetector(),
			detect.NewHarassmentDetector(),
			detect.NewThreatDetector(),
			detect.NewIdentityAttackDetector(),
		},
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Moderate evaluates one piece of content.
func (m *Moderator) Moderate(content string) Result {
	var (
		overall    float64
		categories []detect.ToxicityCategory
		flagged    []string
	)

	for _, d := range m.detectors {
		f, ok := d.Detect(content)
		if !ok {
			continue
		}
		if f.Score > overall {
			overall = f.Score
		}
		categories = append(categories, f.Category)
		flagged = append(flagged, f.Flagged...)
	}

	level := levelFor(overall)
	isToxic := overall >= m.threshold
	shouldBlock := isToxic && (level == LevelSevere || level == LevelHigh)

	result := Result{
		IsToxic:        isToxic,
		ToxicityScore:  overall,
		Level:          level,
		Categories:     categories,
		FlaggedContent: flagged,
		ShouldBlock:    shouldBlock,
	}
	if shouldBlock {
		result.RedactedContent = Redact(content, flagged)
	}
	return result
}

func levelFor(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelSevere
	case score >= 0.7:
		return LevelHigh
	case score >= 0.5:
		return LevelModerate
	case score >= 0.3:
		return LevelLow
	default:
		return LevelClean
	}
}
