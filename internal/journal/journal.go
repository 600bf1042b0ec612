package journal

import (
	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/score"
)

// Journal records every evaluated pull request, adopted or not, as an
// audit trail the digest itself does not carry.
type Journal interface {
	Append(repo string, pr pull.PullRequest, decision score.Decision)
	Close()
}

// Nop is the journal used when no journal file is configured.
type Nop struct{}

func (Nop) Append(string, pull.PullRequest, score.Decision) {}

func (Nop) Close() {}
