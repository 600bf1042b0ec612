package rules

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultThreshold is the adoption threshold applied when the rule document
// has no decision section.
const DefaultThreshold = 8

// Pattern is a compiled regular expression together with the source text it
// was compiled from. The source is kept for explanation output: a hit in the
// digest reports the pattern exactly as written in the rule document.
type Pattern struct {
	// Source — pattern text as it appears in the rule document.
	Source string
	re     *regexp.Regexp
}

// MatchString reports whether the pattern matches anywhere in s.
// Matching is unanchored and case-sensitive (RE2 defaults).
func (p Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// WeightedPattern couples a pattern with the signed score contribution it
// carries when it matches. Weights may be negative.
type WeightedPattern struct {
	Pattern
	Weight float64
}

// GuideMapping links a security-guide tag to keyword and path conditions.
// The mapping fires when any keyword pattern matches the combined text OR
// any path pattern matches any touched file. A mapping with no patterns at
// all never fires.
type GuideMapping struct {
	// Tag — security-guide tag appended to the decision when the mapping fires.
	Tag string
	// Bonus — score contribution added once per firing mapping. May be zero,
	// in which case the tag is still recorded but no hit is produced.
	Bonus float64
	// Keywords — patterns tested against the combined title+body text.
	Keywords []Pattern
	// Paths — patterns tested against every touched file path.
	Paths []Pattern
}

// Window defines the lookback horizon for the scan.
type Window struct {
	// Unit — "minutes", "hours" or "days". Anything else falls back to hours.
	Unit string
	// Value — positive number of units.
	Value int
}

// Duration converts the window to a time.Duration.
func (w Window) Duration() time.Duration {
	switch w.Unit {
	case "minutes":
		return time.Duration(w.Value) * time.Minute
	case "days":
		return time.Duration(w.Value) * 24 * time.Hour
	default:
		return time.Duration(w.Value) * time.Hour
	}
}

// RuleSet is the normalized, immutable form of a rule document.
// It is constructed once per run by Load; every section is present and
// well-typed even when absent from the source document, so the scoring
// engine never branches on missing configuration. All patterns are compiled
// exactly once, at load time.
type RuleSet struct {
	// Window — lookback horizon. Defaults to 24 hours.
	Window Window
	// Threshold — minimum score for adoption absent a strong signal.
	Threshold float64
	// StrongSignals — ordered patterns; the first one matching the combined
	// text guarantees adoption regardless of score.
	StrongSignals []Pattern
	// LabelWeights — score contribution per label name.
	LabelWeights map[string]float64
	// KeywordWeights — ordered patterns tested once against the combined
	// text, in rule-document order.
	KeywordWeights []WeightedPattern
	// PathWeights — ordered patterns tested against every touched file
	// path independently, in rule-document order.
	PathWeights []WeightedPattern
	// GuideMappings — ordered security-guide mappings.
	GuideMappings []GuideMapping
}

func compilePattern(source string) (Pattern, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", source, err)
	}
	return Pattern{Source: source, re: re}, nil
}

func compilePatterns(sources []string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(sources))
	for _, source := range sources {
		p, err := compilePattern(source)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}
