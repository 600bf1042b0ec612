package rules

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawDocument mirrors the rule-document schema: exactly five top-level
// sections, every one of them optional.
type rawDocument struct {
	Window        *rawWindow      `yaml:"window"`
	Decision      *rawDecision    `yaml:"decision"`
	StrongSignals []string        `yaml:"strongSignals"`
	Scoring       *rawScoring     `yaml:"scoring"`
	GuideMapping  []rawGuideEntry `yaml:"securityGuideMapping"`
}

type rawWindow struct {
	Unit  string `yaml:"unit"`
	Value int    `yaml:"value"`
}

type rawDecision struct {
	Threshold *float64 `yaml:"threshold"`
}

// rawScoring keeps the weight maps as yaml.Node values so that the document
// order of the keys survives decoding. Go map iteration order is random,
// and the explanation trail must be reproducible between runs.
type rawScoring struct {
	Labels   yaml.Node `yaml:"labels"`
	Keywords yaml.Node `yaml:"keywords"`
	Paths    yaml.Node `yaml:"paths"`
}

type rawGuideEntry struct {
	Tag      string    `yaml:"tag"`
	Bonus    yaml.Node `yaml:"bonus"`
	Keywords []string  `yaml:"keywords"`
	Paths    []string  `yaml:"paths"`
}

// Load parses a YAML rule document and normalizes it into a RuleSet.
//
// Every missing section is defaulted to an empty, well-typed value: absent
// weight maps become empty, absent pattern lists become empty, the window
// defaults to 24 hours and the decision threshold to DefaultThreshold.
// Weight values that fail to parse as numbers are coerced to 0.
//
// All pattern text is compiled here, once. A pattern that does not compile
// is a configuration error and aborts the load — a broken rule file must
// not silently under- or over-match.
func Load(raw []byte) (*RuleSet, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rule document: %w", err)
	}

	rs := RuleSet{
		Window:         Window{Unit: "hours", Value: 24},
		Threshold:      DefaultThreshold,
		LabelWeights:   make(map[string]float64),
		KeywordWeights: []WeightedPattern{},
		PathWeights:    []WeightedPattern{},
		GuideMappings:  []GuideMapping{},
	}

	if doc.Window != nil {
		if doc.Window.Unit != "" {
			rs.Window.Unit = doc.Window.Unit
		}
		if doc.Window.Value > 0 {
			rs.Window.Value = doc.Window.Value
		}
	}
	if doc.Decision != nil && doc.Decision.Threshold != nil {
		rs.Threshold = *doc.Decision.Threshold
	}

	var err error
	if rs.StrongSignals, err = compilePatterns(doc.StrongSignals); err != nil {
		return nil, fmt.Errorf("strongSignals: %w", err)
	}

	if doc.Scoring != nil {
		for _, entry := range orderedEntries(&doc.Scoring.Labels) {
			rs.LabelWeights[entry.key] = coerceWeight(entry.value)
		}
		if rs.KeywordWeights, err = weightedPatterns(&doc.Scoring.Keywords); err != nil {
			return nil, fmt.Errorf("scoring.keywords: %w", err)
		}
		if rs.PathWeights, err = weightedPatterns(&doc.Scoring.Paths); err != nil {
			return nil, fmt.Errorf("scoring.paths: %w", err)
		}
	}

	for _, entry := range doc.GuideMapping {
		mapping := GuideMapping{
			Tag:   entry.Tag,
			Bonus: coerceWeight(&entry.Bonus),
		}
		if mapping.Keywords, err = compilePatterns(entry.Keywords); err != nil {
			return nil, fmt.Errorf("securityGuideMapping %q: %w", entry.Tag, err)
		}
		if mapping.Paths, err = compilePatterns(entry.Paths); err != nil {
			return nil, fmt.Errorf("securityGuideMapping %q: %w", entry.Tag, err)
		}
		rs.GuideMappings = append(rs.GuideMappings, mapping)
	}

	return &rs, nil
}

type mapEntry struct {
	key   string
	value *yaml.Node
}

// orderedEntries returns the key/value pairs of a YAML mapping node in
// document order. A zero or non-mapping node yields no entries, which is
// how absent sections default to empty.
func orderedEntries(node *yaml.Node) []mapEntry {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	entries := make([]mapEntry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		entries = append(entries, mapEntry{key: node.Content[i].Value, value: node.Content[i+1]})
	}
	return entries
}

func weightedPatterns(node *yaml.Node) ([]WeightedPattern, error) {
	patterns := []WeightedPattern{}
	for _, entry := range orderedEntries(node) {
		p, err := compilePattern(entry.key)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, WeightedPattern{Pattern: p, Weight: coerceWeight(entry.value)})
	}
	return patterns, nil
}

// coerceWeight extracts a numeric weight from a YAML scalar.
// Anything that does not parse as a number — including an absent node —
// coerces to 0 rather than failing the load.
func coerceWeight(node *yaml.Node) float64 {
	if node == nil || node.Kind == 0 {
		return 0
	}
	var weight float64
	if err := node.Decode(&weight); err == nil {
		return weight
	}
	if weight, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64); err == nil {
		return weight
	}
	return 0
}
