package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/futuresagent/pkg/models"
)

// DefaultRSSSearchURL is a keyword search feed; %s is the escaped query.
const DefaultRSSSearchURL = "https://news.google.com/rss/search?q=%s&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"

// RSSSearch answers news queries from a keyword RSS feed. It needs no API key.
type RSSSearch struct {
	feedURL string
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewRSSSearch creates an RSS searcher. An empty feedURL uses DefaultRSSSearchURL.
func NewRSSSearch(feedURL string) *RSSSearch {
	if feedURL == "" {
		feedURL = DefaultRSSSearchURL
	}
	p := gofeed.NewParser()
	p.Client = HTTPClient
	p.UserAgent = DefaultUserAgent
	return &RSSSearch{
		feedURL: feedURL,
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  p,
	}
}

// Name returns the searcher name.
func (r *RSSSearch) Name() string { return "rss" }

// Search fetches the feed for query and returns the newest items first.
func (r *RSSSearch) Search(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := r.parser.ParseURLWithContext(fmt.Sprintf(r.feedURL, url.QueryEscape(query)), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS: %w", err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		title, source := splitTitleSource(it.Title)
		if source == "" {
			source = feed.Title
		}
		n := models.NewsItem{
			Title:   title,
			Source:  source,
			URL:     it.Link,
			Snippet: cleanHTML(it.Description),
		}
		if it.PublishedParsed != nil {
			n.PublishedAt = *it.PublishedParsed
		}
		items = append(items, n)
	}

	sortItemsByDate(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// FallbackSearcher tries each searcher in order and returns the first
// non-empty result. It is an ordered preference, not a retry.
type FallbackSearcher struct {
	searchers []Searcher
}

// NewFallbackSearcher chains searchers; nil entries are skipped.
func NewFallbackSearcher(searchers ...Searcher) *FallbackSearcher {
	fs := &FallbackSearcher{}
	for _, s := range searchers {
		if s != nil {
			fs.searchers = append(fs.searchers, s)
		}
	}
	return fs
}

// Name lists the chained searchers.
func (f *FallbackSearcher) Name() string {
	names := make([]string, len(f.searchers))
	for i, s := range f.searchers {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// Search returns the first searcher's non-empty result.
func (f *FallbackSearcher) Search(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	var errs []error
	for _, s := range f.searchers {
		items, err := s.Search(ctx, query, limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

// --- Internal helpers ---

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// splitTitleSource splits "headline - Publisher" titles used by aggregator feeds.
func splitTitleSource(title string) (string, string) {
	title = strings.TrimSpace(title)
	if i := strings.LastIndex(title, " - "); i > 0 {
		return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
	}
	return title, ""
}

// sortItemsByDate sorts items by published date (newest first).
func sortItemsByDate(items []models.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
