package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/toxin-don/rails-security-pr-digest/internal/digest"
	"github.com/toxin-don/rails-security-pr-digest/internal/journal"
	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/rules"
	"github.com/toxin-don/rails-security-pr-digest/internal/score"
)

// Lister supplies the merged pull requests of one scan window. Satisfied
// by pull.Client; tests substitute a fixture.
type Lister interface {
	Repo() string
	MergedSince(ctx context.Context, since time.Time) ([]pull.PullRequest, error)
}

// Scanner runs one scan: fetch merged pull requests for the rule window,
// evaluate each against the rule set, journal every decision, and write
// the digest of adopted ones.
type Scanner struct {
	lister    Lister
	rules     *rules.RuleSet
	filter    *score.Filter
	journal   journal.Journal
	history   *pull.History
	outputDir string
	html      bool

	// now is stubbed in tests for a fixed window and digest date.
	now func() time.Time
}

// NewScanner wires a scanner. filter may be nil (no pre-filtering) and
// history may be nil (every scan evaluates the full window, single-run
// mode).
func NewScanner(
	lister Lister,
	ruleSet *rules.RuleSet,
	filter *score.Filter,
	jrnl journal.Journal,
	history *pull.History,
	outputDir string,
	html bool,
) *Scanner {
	return &Scanner{
		lister:    lister,
		rules:     ruleSet,
		filter:    filter,
		journal:   jrnl,
		history:   history,
		outputDir: outputDir,
		html:      html,
		now:       time.Now,
	}
}

// Run performs one scan and writes the digest. Retrieval and write errors
// are returned to the caller as run failures; evaluating a well-formed
// pull request never fails.
func (s *Scanner) Run(ctx context.Context) error {
	now := s.now()
	since := now.Add(-s.rules.Window.Duration())
	repo := s.lister.Repo()

	prs, err := s.lister.MergedSince(ctx, since)
	if err != nil {
		return err
	}

	var entries []digest.Entry
	evaluated := 0
	for _, pr := range prs {
		if s.history != nil && s.history.Contains(repo, pr.Number) {
			slog.Debug("Already digested", "repo", repo, "pr", pr.Number)
			continue
		}
		if !s.filter.Keep(pr) {
			slog.Debug("Filtered out", "repo", repo, "pr", pr.Number)
			continue
		}

		decision := score.Evaluate(pr, s.rules)
		evaluated++
		s.journal.Append(repo, pr, decision)
		if s.history != nil {
			s.history.Record(repo, pr.Number)
		}

		if decision.Adopt {
			entries = append(entries, digest.Entry{PR: pr, Decision: decision})
		}
	}

	digest.Sort(entries)
	document := digest.Render(entries, digest.Meta{
		Repo:        repo,
		Window:      s.rules.Window,
		GeneratedAt: now,
		Evaluated:   evaluated,
	})

	path, err := digest.WriteFile(s.outputDir, now, document)
	if err != nil {
		return err
	}
	if s.html {
		if _, err := digest.WriteHTMLFile(path, document); err != nil {
			return err
		}
	}

	slog.Info("Scan complete",
		"repo", repo,
		"evaluated", evaluated,
		"adopted", len(entries),
		"digest", path,
	)
	return nil
}
