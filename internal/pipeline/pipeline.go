// Package pipeline turns discovered candidates into publish-ready queue
// items, filtering out already-published, too-short and image-less
// articles.
package pipeline

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"passionbot/internal/ledger"
	"passionbot/internal/metrics"
	"passionbot/internal/queue"
	"passionbot/internal/source"
	"passionbot/internal/textclean"
)

// Deps wires the pipeline's collaborators.
type Deps struct {
	Source source.Source
	Ledger ledger.Ledger
	Queue  *queue.Queue
	Logger *slog.Logger

	MinContentRunes int
	CaptionMaxRunes int
}

type Pipeline struct {
	source source.Source
	ledger ledger.Ledger
	queue  *queue.Queue
	log    *slog.Logger

	minContent int
	maxCaption int
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		ledger:     deps.Ledger,
		queue:      deps.Queue,
		log:        deps.Logger,
		minContent: deps.MinContentRunes,
		maxCaption: deps.CaptionMaxRunes,
	}
}

// Ingest discovers up to limit candidates and enqueues the publishable
// ones. Per-candidate failures are logged and skipped; they never abort
// the run. Returns the number of items enqueued.
func (p *Pipeline) Ingest(ctx context.Context, limit int) int {
	candidates := p.source.ListCandidates(ctx, limit)
	metrics.Global.AddCandidates(len(candidates))

	enqueued := 0
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}

		posted, err := p.ledger.Has(ctx, cand.Link)
		if err != nil {
			// Without a ledger answer we cannot guarantee the dedup
			// invariant, so the candidate sits out this run.
			p.log.Error("ledger lookup failed", "link", cand.Link, "error", err)
			continue
		}
		if posted {
			p.log.Debug("already published", "title", cand.Title)
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}

		article, err := p.source.ExtractArticle(ctx, cand)
		if err != nil {
			p.log.Error("extraction failed", "link", cand.Link, "error", err)
			metrics.Global.IncrementFetchErrors()
			continue
		}

		if utf8.RuneCountInString(article.Body) < p.minContent {
			p.log.Info("content too short", "title", cand.Title, "runes", utf8.RuneCountInString(article.Body))
			metrics.Global.IncrementArticlesRejected()
			continue
		}
		if article.ImageURL == "" {
			p.log.Info("no image", "title", cand.Title)
			metrics.Global.IncrementArticlesRejected()
			continue
		}

		p.queue.Push(queue.Item{
			ID:       ledger.NewsID(cand.Link),
			Title:    cand.Title,
			Link:     cand.Link,
			Content:  textclean.TruncateAtSentence(article.Body, p.maxCaption),
			ImageURL: article.ImageURL,
		})
		metrics.Global.IncrementItemsQueued()
		enqueued++
		p.log.Info("queued for publishing", "title", cand.Title)
	}

	p.log.Info("ingestion finished", "enqueued", enqueued)
	return enqueued
}
