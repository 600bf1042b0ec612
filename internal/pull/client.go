package pull

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

const perPage = 100

// Client retrieves merged pull requests from a GitHub repository.
// It is a thin retrieval collaborator: errors propagate to the caller as
// fatal run failures, retry policy is deliberately not part of it.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewClient creates a GitHub client for owner/repo. The token is an opaque
// credential passed through to an oauth2 static token source; an empty
// token leaves the client unauthenticated, which works for public
// repositories within the anonymous rate limit.
func NewClient(token, owner, repo string) *Client {
	var gh *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = github.NewClient(nil)
	}

	return &Client{gh: gh, owner: owner, repo: repo}
}

// Repo returns the "owner/name" form of the scanned repository.
func (c *Client) Repo() string {
	return c.owner + "/" + c.repo
}

// MergedSince lists pull requests merged at or after since, each with its
// labels and resolved file paths.
//
// Closed pull requests are paged in descending update order; paging stops
// at the first page entry whose update time predates since, because a pull
// request cannot be merged after its last update. Closed-but-unmerged
// pull requests are skipped.
func (c *Client) MergedSince(ctx context.Context, since time.Time) ([]PullRequest, error) {
	opt := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var result []PullRequest
	for {
		page, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opt)
		if err != nil {
			return nil, fmt.Errorf("list pull requests for %s: %w", c.Repo(), err)
		}

		exhausted := false
		for _, pr := range page {
			if pr.GetUpdatedAt().Before(since) {
				exhausted = true
				break
			}
			if pr.MergedAt == nil || pr.GetMergedAt().Before(since) {
				continue
			}

			files, err := c.listFiles(ctx, pr.GetNumber())
			if err != nil {
				return nil, err
			}

			labels := make([]string, 0, len(pr.Labels))
			for _, label := range pr.Labels {
				labels = append(labels, label.GetName())
			}

			result = append(result, PullRequest{
				Number:   pr.GetNumber(),
				Title:    pr.GetTitle(),
				Body:     pr.GetBody(),
				Labels:   labels,
				Files:    files,
				URL:      pr.GetHTMLURL(),
				Author:   pr.GetUser().GetLogin(),
				MergedAt: pr.GetMergedAt().Time,
			})
		}

		if exhausted || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	slog.Debug("Merged pull requests resolved", "repo", c.Repo(), "since", since, "count", len(result))
	return result, nil
}

func (c *Client) listFiles(ctx context.Context, number int) ([]string, error) {
	opt := &github.ListOptions{PerPage: perPage}

	var files []string
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opt)
		if err != nil {
			return nil, fmt.Errorf("list files for %s#%d: %w", c.Repo(), number, err)
		}
		for _, f := range page {
			files = append(files, f.GetFilename())
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opt.Page = resp.NextPage
	}
}
