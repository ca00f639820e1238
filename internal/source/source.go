// Package source discovers candidate articles on a news site and extracts
// their body text and representative image. The pipeline depends only on
// the Source interface, so new sites plug in without touching it.
package source

import "context"

// Candidate is a discovered (title, link) pair not yet verified as
// publishable.
type Candidate struct {
	Title string
	Link  string
}

// Article is extracted, normalized content. ImageURL is empty when the
// page has no usable representative image; that is not an error.
type Article struct {
	Title    string
	Link     string
	Body     string
	ImageURL string
}

// Source is the site adapter boundary.
type Source interface {
	// ListCandidates visits the configured sections in order and returns up
	// to limit candidates across all of them combined. A section that fails
	// to load is logged and skipped.
	ListCandidates(ctx context.Context, limit int) []Candidate

	// ExtractArticle fetches one article page and returns its normalized
	// body and image. Fetch or parse failures return an error so the caller
	// can tell "no content" apart from "fetch broke".
	ExtractArticle(ctx context.Context, cand Candidate) (*Article, error)
}
