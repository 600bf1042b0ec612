package pull

import "time"

// PullRequest is one merged change request resolved from the data source.
// Title and Body default to empty strings when absent on the remote side;
// the scoring engine treats them as empty text, never as errors.
type PullRequest struct {
	// Number — repository-local pull request number, the identifying key.
	Number int `json:"number"`
	// Title — display title.
	Title string `json:"title"`
	// Body — free-text description, may be empty.
	Body string `json:"body,omitempty"`
	// Labels — label names attached to the pull request.
	Labels []string `json:"labels,omitempty"`
	// Files — touched file paths, in API order. Duplicates are possible
	// and each occurrence is scored independently.
	Files []string `json:"files,omitempty"`
	// URL — canonical web link.
	URL string `json:"url"`
	// Author — login of the author.
	Author string `json:"author,omitempty"`
	// MergedAt — merge timestamp.
	MergedAt time.Time `json:"merged_at"`
}
