package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/score"
)

func TestJsonJournal_Append(t *testing.T) {
	file := filepath.Join(t.TempDir(), "decisions.jsonl")
	jrnl := NewJsonJournal(file, 1, 1)
	defer jrnl.Close()

	jrnl.Append("rails/rails", pull.PullRequest{
		Number:   51234,
		Title:    "Fix auth bypass",
		MergedAt: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC),
	}, score.Decision{
		Adopt: true,
		Score: 11,
		Hits: []score.Hit{
			{Kind: score.HitLabel, Key: "security", Weight: 5},
			{Kind: score.HitText, Key: "CVE", Weight: 6},
		},
	})
	jrnl.Append("rails/rails", pull.PullRequest{Number: 51235, Title: "Update changelog"}, score.Decision{})

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		lines = append(lines, record)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2, "one JSON line per decision")

	assert.Equal(t, "rails/rails", lines[0]["repo"])
	assert.Equal(t, float64(51234), lines[0]["number"])
	assert.Equal(t, true, lines[0]["adopt"])
	assert.Equal(t, float64(11), lines[0]["score"])
	assert.Len(t, lines[0]["hits"], 2)
	assert.NotEmpty(t, lines[0]["time"])

	assert.Equal(t, false, lines[1]["adopt"], "non-adopted decisions are journaled too")
}
