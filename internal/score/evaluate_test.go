package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/rules"
)

func mustLoad(t *testing.T, doc string) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Load([]byte(doc))
	require.NoError(t, err)
	return rs
}

// End-to-end example: label and keyword contributions reach the threshold.
func TestEvaluate_AdoptsAboveThreshold(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  labels:
    security: 5
  keywords:
    CVE: 6
`)
	pr := pull.PullRequest{
		Title:  "Fix header handling",
		Body:   "Addresses CVE-2024-1111 in the request parser.",
		Labels: []string{"security"},
		Files:  []string{"lib/a.rb"},
	}

	d := Evaluate(pr, rs)

	assert.True(t, d.Adopt)
	assert.Equal(t, 11.0, d.Score)
	assert.Empty(t, d.StrongSignal)
	require.Len(t, d.Hits, 2)
	assert.Equal(t, Hit{Kind: HitLabel, Key: "security", Weight: 5}, d.Hits[0])
	assert.Equal(t, Hit{Kind: HitText, Key: "CVE", Weight: 6}, d.Hits[1])
}

// Same item under a higher threshold is not adopted.
func TestEvaluate_RejectsBelowThreshold(t *testing.T) {
	rs := mustLoad(t, `
decision:
  threshold: 12
scoring:
  labels:
    security: 5
  keywords:
    CVE: 6
`)
	pr := pull.PullRequest{
		Title:  "Fix header handling",
		Body:   "Addresses CVE-2024-1111 in the request parser.",
		Labels: []string{"security"},
	}

	d := Evaluate(pr, rs)

	assert.False(t, d.Adopt)
	assert.Equal(t, 11.0, d.Score)
}

// A strong-signal match adopts regardless of score, even a negative one.
func TestEvaluate_StrongSignalOverridesScore(t *testing.T) {
	rs := mustLoad(t, `
strongSignals:
  - "GHSA-"
scoring:
  labels:
    docs: -10
`)
	pr := pull.PullRequest{
		Title:  "Backport GHSA-xxxx-yyyy fix",
		Labels: []string{"docs"},
	}

	d := Evaluate(pr, rs)

	assert.True(t, d.Adopt, "strong signal must adopt even with a negative score")
	assert.Equal(t, "GHSA-", d.StrongSignal)
	assert.Equal(t, -10.0, d.Score)
	require.Len(t, d.Hits, 1)
	assert.Equal(t, -10.0, d.Hits[0].Weight, "negative hits are still recorded")
}

// Empty item, strong signal in the body, nothing else fires.
func TestEvaluate_StrongSignalOnEmptyItem(t *testing.T) {
	rs := mustLoad(t, `
strongSignals:
  - "(?i)security advisory"
`)
	pr := pull.PullRequest{Body: "See the security advisory for details."}

	d := Evaluate(pr, rs)

	assert.True(t, d.Adopt)
	assert.Equal(t, "(?i)security advisory", d.StrongSignal)
	assert.Equal(t, 0.0, d.Score)
	assert.Empty(t, d.Hits)
}

// The first matching strong signal wins; later patterns are not reported.
func TestEvaluate_StrongSignalFirstMatchWins(t *testing.T) {
	rs := mustLoad(t, `
strongSignals:
  - "nothing-here"
  - "CVE-"
  - "CVE-2024"
`)
	pr := pull.PullRequest{Title: "CVE-2024-1111"}

	d := Evaluate(pr, rs)
	assert.Equal(t, "CVE-", d.StrongSignal)
}

func TestEvaluate_UnlistedAndZeroWeightLabels(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  labels:
    security: 5
    noise: 0
`)
	pr := pull.PullRequest{Labels: []string{"noise", "unlisted", "security"}}

	d := Evaluate(pr, rs)

	require.Len(t, d.Hits, 1, "zero-weight and unlisted labels must not be recorded")
	assert.Equal(t, "security", d.Hits[0].Key)
	assert.Equal(t, 5.0, d.Score)
}

// A keyword matching many times still contributes exactly once.
func TestEvaluate_KeywordSingleShot(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  keywords:
    CVE: 6
`)
	pr := pull.PullRequest{
		Title: "CVE-2024-1111 and CVE-2024-2222",
		Body:  "Also mentions CVE-2023-3333.",
	}

	d := Evaluate(pr, rs)

	assert.Equal(t, 6.0, d.Score)
	require.Len(t, d.Hits, 1)
}

// A path pattern contributes once per matching file, duplicates included.
func TestEvaluate_PathPerFile(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  paths:
    "^actionpack/": 2
`)
	pr := pull.PullRequest{
		Files: []string{
			"actionpack/lib/action_controller.rb",
			"activerecord/lib/base.rb",
			"actionpack/test/controller_test.rb",
			"actionpack/lib/action_controller.rb", // duplicate, counted again
		},
	}

	d := Evaluate(pr, rs)

	assert.Equal(t, 6.0, d.Score)
	require.Len(t, d.Hits, 3)
	for _, hit := range d.Hits {
		assert.Equal(t, HitPath, hit.Kind)
		assert.Equal(t, "^actionpack/", hit.Key)
	}
	assert.Equal(t, "actionpack/lib/action_controller.rb", d.Hits[0].File)
	assert.Equal(t, "actionpack/test/controller_test.rb", d.Hits[1].File)
	assert.Equal(t, "actionpack/lib/action_controller.rb", d.Hits[2].File)
}

func TestEvaluate_GuideMappings(t *testing.T) {
	rs := mustLoad(t, `
securityGuideMapping:
  - tag: sql-injection
    bonus: 3
    keywords: ["(?i)sql injection"]
  - tag: sanitization
    paths: ["sanitization"]
  - tag: never-fires
    bonus: 9
`)
	pr := pull.PullRequest{
		Title: "Prevent SQL injection in finder",
		Files: []string{"activerecord/lib/sanitization.rb"},
	}

	d := Evaluate(pr, rs)

	assert.Equal(t, []string{"sql-injection", "sanitization"}, d.MatchedTags)
	assert.Equal(t, 3.0, d.Score, "zero-bonus mapping records its tag but no hit")
	require.Len(t, d.Hits, 1)
	assert.Equal(t, Hit{Kind: HitGuide, Key: "sql-injection", Weight: 3}, d.Hits[0])
}

// Hits appear in discovery order and their weights sum to the score.
func TestEvaluate_HitOrderAndScoreRoundTrip(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  labels:
    security: 5
  keywords:
    "(?i)xss": 4
  paths:
    "actionview/": 2
securityGuideMapping:
  - tag: xss
    bonus: 3
    keywords: ["(?i)xss"]
`)
	pr := pull.PullRequest{
		Title:  "Escape XSS vector in tag helper",
		Labels: []string{"security"},
		Files:  []string{"actionview/lib/helpers/tag_helper.rb"},
	}

	d := Evaluate(pr, rs)

	kinds := make([]HitKind, 0, len(d.Hits))
	sum := 0.0
	for _, hit := range d.Hits {
		kinds = append(kinds, hit.Kind)
		sum += hit.Weight
	}
	assert.Equal(t, []HitKind{HitLabel, HitText, HitPath, HitGuide}, kinds)
	assert.Equal(t, d.Score, sum, "summing the trail must reproduce the headline score")
	assert.Equal(t, 14.0, d.Score)
}

// A default rule set adopts nothing: empty strong signals, score 0 < 8.
func TestEvaluate_EmptyRuleSet(t *testing.T) {
	rs := mustLoad(t, "")
	pr := pull.PullRequest{
		Title:  "Fix typo",
		Body:   "CVE mention without any rules",
		Labels: []string{"security"},
		Files:  []string{"README.md"},
	}

	d := Evaluate(pr, rs)

	assert.False(t, d.Adopt)
	assert.Equal(t, 0.0, d.Score)
	assert.Empty(t, d.Hits)
}

func TestEvaluate_EmptyFilesAndAbsentBody(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  paths:
    ".": 5
securityGuideMapping:
  - tag: any-file
    bonus: 2
    paths: ["."]
`)
	d := Evaluate(pull.PullRequest{Title: "No files touched"}, rs)

	assert.Equal(t, 0.0, d.Score, "empty file list yields no path or guide contributions")
	assert.Empty(t, d.MatchedTags)
	assert.False(t, d.Adopt)
}

// Score ties break deterministically: evaluating twice gives identical output.
func TestEvaluate_Deterministic(t *testing.T) {
	rs := mustLoad(t, `
scoring:
  keywords:
    alpha: 1
    beta: 2
    gamma: 3
`)
	pr := pull.PullRequest{Title: "alpha beta gamma"}

	first := Evaluate(pr, rs)
	second := Evaluate(pr, rs)
	assert.Equal(t, first, second)
	assert.Equal(t, "alpha", first.Hits[0].Key)
	assert.Equal(t, "beta", first.Hits[1].Key)
	assert.Equal(t, "gamma", first.Hits[2].Key)
}
