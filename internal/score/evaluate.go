package score

import (
	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/rules"
)

// HitKind identifies the rule section a scoring contribution came from.
type HitKind string

const (
	HitLabel HitKind = "label"
	HitText  HitKind = "text"
	HitPath  HitKind = "path"
	HitGuide HitKind = "guide"
)

// Hit is one recorded scoring contribution: the rule section it came from,
// the label name or pattern that matched, and the signed weight applied.
// Negative-weight hits are recorded like any other — a hit does not imply a
// positive contribution.
type Hit struct {
	Kind   HitKind `json:"kind"`
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
	// File — the specific file that matched, set for path hits only.
	File string `json:"file,omitempty"`
}

// Decision is the outcome of evaluating one pull request against a rule
// set. Score is always the exact sum of Hits weights, so the explanation
// trail reproduces the headline number.
type Decision struct {
	// Adopt — whether the pull request is included in the digest.
	Adopt bool `json:"adopt"`
	// Score — accumulated weight, may be negative.
	Score float64 `json:"score"`
	// StrongSignal — the first strong-signal pattern that matched the
	// combined text, empty when none did.
	StrongSignal string `json:"strong_signal,omitempty"`
	// MatchedTags — security-guide tags whose mapping fired, in rule order.
	MatchedTags []string `json:"matched_tags,omitempty"`
	// Hits — contributions in discovery order: labels, text keywords,
	// paths, guide mappings.
	Hits []Hit `json:"hits,omitempty"`
}

// Evaluate scores one pull request against the rule set. It is a pure
// function: no I/O, no shared state, deterministic for a given input, and
// therefore safe to run concurrently across pull requests.
//
// The contribution rules differ on purpose between sections: a text
// keyword contributes at most once no matter how often it occurs in the
// text, while a path pattern contributes once per matching file, so a
// sweeping change can outscore a one-file change under the same pattern.
func Evaluate(pr pull.PullRequest, rs *rules.RuleSet) Decision {
	var d Decision
	text := pr.Title + "\n\n" + pr.Body

	// First matching strong signal wins, the rest are not evaluated.
	for _, signal := range rs.StrongSignals {
		if signal.MatchString(text) {
			d.StrongSignal = signal.Source
			break
		}
	}

	for _, label := range pr.Labels {
		if weight := rs.LabelWeights[label]; weight != 0 {
			d.Score += weight
			d.Hits = append(d.Hits, Hit{Kind: HitLabel, Key: label, Weight: weight})
		}
	}

	for _, keyword := range rs.KeywordWeights {
		if keyword.MatchString(text) {
			d.Score += keyword.Weight
			d.Hits = append(d.Hits, Hit{Kind: HitText, Key: keyword.Source, Weight: keyword.Weight})
		}
	}

	for _, path := range rs.PathWeights {
		for _, file := range pr.Files {
			if path.MatchString(file) {
				d.Score += path.Weight
				d.Hits = append(d.Hits, Hit{Kind: HitPath, Key: path.Source, Weight: path.Weight, File: file})
			}
		}
	}

	for _, mapping := range rs.GuideMappings {
		if !guideFires(mapping, text, pr.Files) {
			continue
		}
		d.MatchedTags = append(d.MatchedTags, mapping.Tag)
		if mapping.Bonus != 0 {
			d.Score += mapping.Bonus
			d.Hits = append(d.Hits, Hit{Kind: HitGuide, Key: mapping.Tag, Weight: mapping.Bonus})
		}
	}

	d.Adopt = d.StrongSignal != "" || d.Score >= rs.Threshold
	return d
}

func guideFires(mapping rules.GuideMapping, text string, files []string) bool {
	for _, keyword := range mapping.Keywords {
		if keyword.MatchString(text) {
			return true
		}
	}
	for _, path := range mapping.Paths {
		for _, file := range files {
			if path.MatchString(file) {
				return true
			}
		}
	}
	return false
}
