package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/rules"
	"github.com/toxin-don/rails-security-pr-digest/internal/score"
)

// Entry pairs an adopted pull request with its decision for rendering.
type Entry struct {
	PR       pull.PullRequest
	Decision score.Decision
}

// Meta carries the digest header fields.
type Meta struct {
	// Repo — "owner/name" of the scanned repository.
	Repo string
	// Window — lookback horizon the scan covered.
	Window rules.Window
	// GeneratedAt — digest generation time.
	GeneratedAt time.Time
	// Evaluated — total number of pull requests evaluated.
	Evaluated int
}

// Sort orders entries for rendering: score descending, pull request number
// ascending as the tie-breaker.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Decision.Score != entries[j].Decision.Score {
			return entries[i].Decision.Score > entries[j].Decision.Score
		}
		return entries[i].PR.Number < entries[j].PR.Number
	})
}

// Render produces the markdown digest document. Every point of every score
// is explained: each entry lists its hits trail alongside the labels,
// files and matched security-guide tags.
func Render(entries []Entry, meta Meta) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Security digest — %s\n\n", meta.Repo)
	fmt.Fprintf(&b, "_Generated %s · window: last %d %s · %d of %d merged pull requests adopted_\n",
		meta.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"),
		meta.Window.Value, meta.Window.Unit,
		len(entries), meta.Evaluated)

	if len(entries) == 0 {
		b.WriteString("\nNo security-relevant pull requests in this window.\n")
		return b.String()
	}

	for _, entry := range entries {
		pr, d := entry.PR, entry.Decision

		fmt.Fprintf(&b, "\n## [#%d](%s) %s\n\n", pr.Number, pr.URL, pr.Title)
		fmt.Fprintf(&b, "- **Merged:** %s", pr.MergedAt.UTC().Format("2006-01-02 15:04 UTC"))
		if pr.Author != "" {
			fmt.Fprintf(&b, " by @%s", pr.Author)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "- **Score:** %s\n", formatWeight(d.Score))
		if d.StrongSignal != "" {
			fmt.Fprintf(&b, "- **Strong signal:** `%s`\n", d.StrongSignal)
		}
		if len(pr.Labels) != 0 {
			fmt.Fprintf(&b, "- **Labels:** %s\n", strings.Join(codeSpans(pr.Labels), ", "))
		}
		if len(d.MatchedTags) != 0 {
			fmt.Fprintf(&b, "- **Guide tags:** %s\n", strings.Join(codeSpans(d.MatchedTags), ", "))
		}
		if len(pr.Files) != 0 {
			fmt.Fprintf(&b, "- **Files (%d):**\n", len(pr.Files))
			for _, file := range pr.Files {
				fmt.Fprintf(&b, "  - `%s`\n", file)
			}
		}
		if len(d.Hits) != 0 {
			b.WriteString("- **Score breakdown:**\n")
			for _, hit := range d.Hits {
				b.WriteString("  - " + formatHit(hit) + "\n")
			}
		}
	}

	return b.String()
}

// WriteFile writes the rendered digest as digest-YYYY-MM-DD.md in dir,
// creating the directory if needed. Returns the written path.
func WriteFile(dir string, generatedAt time.Time, document string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create digest directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("digest-%s.md", generatedAt.UTC().Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	return path, nil
}

func codeSpans(items []string) []string {
	return lo.Map(items, func(item string, _ int) string {
		return "`" + item + "`"
	})
}

func formatHit(hit score.Hit) string {
	switch hit.Kind {
	case score.HitPath:
		return fmt.Sprintf("path `%s` matched `%s` %s", hit.Key, hit.File, formatWeight(hit.Weight))
	default:
		return fmt.Sprintf("%s `%s` %s", hit.Kind, hit.Key, formatWeight(hit.Weight))
	}
}

func formatWeight(weight float64) string {
	if weight > 0 {
		return fmt.Sprintf("+%g", weight)
	}
	return fmt.Sprintf("%g", weight)
}
