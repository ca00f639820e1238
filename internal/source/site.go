package source

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"passionbot/internal/fetch"
	"passionbot/internal/textclean"
)

// Section is one listing endpoint. Kind selects how candidates are
// discovered: "html" (default) scans news cards, "rss" parses a feed.
type Section struct {
	Name string
	URL  string
	Kind string
}

// Options configures a Site adapter. Zero values get sensible defaults.
type Options struct {
	BaseURL        string
	ArticlePath    string
	Sections       []Section
	ContentClasses []string
	MinTitleRunes  int
	ListingTimeout time.Duration
	ArticleTimeout time.Duration
}

// card class hints that mark a listing container as a news card.
var cardHints = []string{"news", "item", "post", "article", "card", "story"}

const (
	minParagraphRunes     = 40
	minFallbackParaRunes  = 30
	minPrimaryBodyRunes   = 200
	defaultMinTitleRunes  = 15
	defaultListingTimeout = 15 * time.Second
	defaultArticleTimeout = 25 * time.Second
)

// Site discovers and extracts articles from one news site.
type Site struct {
	opts    Options
	client  *fetch.Client
	cleaner *textclean.Cleaner
	feeds   *gofeed.Parser
	log     *slog.Logger
}

func NewSite(opts Options, client *fetch.Client, cleaner *textclean.Cleaner, log *slog.Logger) *Site {
	if opts.MinTitleRunes <= 0 {
		opts.MinTitleRunes = defaultMinTitleRunes
	}
	if opts.ListingTimeout <= 0 {
		opts.ListingTimeout = defaultListingTimeout
	}
	if opts.ArticleTimeout <= 0 {
		opts.ArticleTimeout = defaultArticleTimeout
	}
	if len(opts.ContentClasses) == 0 {
		opts.ContentClasses = []string{"article-content", "post-content", "news-content", "text-content"}
	}
	return &Site{
		opts:    opts,
		client:  client,
		cleaner: cleaner,
		feeds:   gofeed.NewParser(),
		log:     log,
	}
}

// ListCandidates walks the sections in order, stopping once limit
// candidates are collected across all of them. Duplicate links within one
// pass are suppressed, first occurrence wins.
func (s *Site) ListCandidates(ctx context.Context, limit int) []Candidate {
	var found []Candidate
	seen := make(map[string]bool)

	for _, section := range s.opts.Sections {
		if len(found) >= limit {
			break
		}

		var cands []Candidate
		var err error
		if section.Kind == "rss" {
			cands, err = s.listFeed(ctx, section.URL)
		} else {
			cands, err = s.listPage(ctx, section.URL)
		}
		if err != nil {
			s.log.Error("section scan failed", "section", section.URL, "error", err)
			continue
		}

		for _, cand := range cands {
			if seen[cand.Link] {
				continue
			}
			seen[cand.Link] = true
			found = append(found, cand)
			if len(found) >= limit {
				break
			}
		}
	}

	s.log.Info("candidates discovered", "count", len(found))
	return found
}

func (s *Site) listPage(ctx context.Context, url string) ([]Candidate, error) {
	doc, err := s.client.Document(ctx, url, s.opts.ListingTimeout)
	if err != nil {
		return nil, err
	}

	var cands []Candidate
	doc.Find("article, div").Each(func(_ int, card *goquery.Selection) {
		if !isCard(card) {
			return
		}

		link := card.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			return strings.Contains(href, s.opts.ArticlePath)
		}).First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		title := strings.TrimSpace(link.Text())
		if utf8.RuneCountInString(title) <= s.opts.MinTitleRunes {
			return
		}

		full, ok := s.resolveLink(href)
		if !ok {
			return
		}
		cands = append(cands, Candidate{Title: title, Link: full})
	})

	return cands, nil
}

func (s *Site) listFeed(ctx context.Context, url string) ([]Candidate, error) {
	feed, err := s.feeds.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	var cands []Candidate
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if item.Link == "" || utf8.RuneCountInString(title) <= s.opts.MinTitleRunes {
			continue
		}
		cands = append(cands, Candidate{Title: title, Link: item.Link})
	}
	return cands, nil
}

func isCard(sel *goquery.Selection) bool {
	class, ok := sel.Attr("class")
	if !ok {
		return false
	}
	class = strings.ToLower(class)
	for _, hint := range cardHints {
		if strings.Contains(class, hint) {
			return true
		}
	}
	return false
}

// resolveLink turns a root-relative href into an absolute URL and rejects
// external links.
func (s *Site) resolveLink(href string) (string, bool) {
	if strings.HasPrefix(href, "/") {
		return s.opts.BaseURL + href, true
	}
	if strings.Contains(href, hostOf(s.opts.BaseURL)) {
		return href, true
	}
	return "", false
}

func hostOf(baseURL string) string {
	host := strings.TrimPrefix(baseURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// ExtractArticle fetches the article page, strips non-content elements and
// pulls body text with a two-tier strategy: the semantic <article> tag
// first, then configured content-class blocks.
func (s *Site) ExtractArticle(ctx context.Context, cand Candidate) (*Article, error) {
	doc, err := s.client.Document(ctx, cand.Link, s.opts.ArticleTimeout)
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, nav, footer, aside, form, iframe").Remove()

	body := collectParagraphs(doc.Find("article p"), minParagraphRunes)
	if utf8.RuneCountInString(body) < minPrimaryBodyRunes {
		for _, class := range s.opts.ContentClasses {
			block := collectParagraphs(doc.Find("div[class*='"+class+"'] p"), minFallbackParaRunes)
			if block != "" {
				body = block
				break
			}
		}
	}

	return &Article{
		Title:    cand.Title,
		Link:     cand.Link,
		Body:     s.cleaner.Normalize(body),
		ImageURL: s.metaImage(doc),
	}, nil
}

func collectParagraphs(paragraphs *goquery.Selection, minRunes int) string {
	var texts []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if utf8.RuneCountInString(text) > minRunes {
			texts = append(texts, text)
		}
	})
	return strings.Join(texts, "\n\n")
}

// metaImage reads og:image and upgrades protocol-relative or root-relative
// references to fully-qualified URLs. Missing image yields "".
func (s *Site) metaImage(doc *goquery.Document) string {
	image, ok := doc.Find("meta[property='og:image']").Attr("content")
	if !ok || image == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(image, "//"):
		return "https:" + image
	case strings.HasPrefix(image, "/"):
		return s.opts.BaseURL + image
	}
	return image
}
