package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"ContentRanker/internal/scanner"
)

const userAgent = "ContentRanker/1.0"

// FeedScanner pulls RSS/Atom feeds and turns entries into raw records.
type FeedScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires an HTTP client; nil uses a 20s timeout client.
func NewFeedScanner(client *http.Client) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan fetches every target feed. A failing feed is skipped; Scan errors
// only when no feed could be read.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]any, error) {
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("no targets provided for site %s", req.SiteName)
	}

	var (
		results []any
		errs    []error
	)
	for _, target := range req.Targets {
		feed, err := f.fetchFeed(ctx, target.URL)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", target.Name, err))
			continue
		}
		for _, entry := range feed.Items {
			if entry == nil {
				continue
			}
			results = append(results, entryRecord(feed, entry, target.Name))
		}
	}

	if len(errs) == len(req.Targets) {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func (f *FeedScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func entryRecord(feed *gofeed.Feed, entry *gofeed.Item, category string) map[string]any {
	body := entry.Content
	if strings.TrimSpace(body) == "" {
		body = entry.Description
	}

	record := map[string]any{
		"title":   strings.TrimSpace(entry.Title),
		"content": htmlToText(body),
		"url":     entry.Link,
	}
	if feed.Title != "" {
		record["feed_title"] = feed.Title
	}
	if category != "" {
		record["category"] = category
	}
	if entry.GUID != "" {
		record["guid"] = entry.GUID
	}
	if entry.PublishedParsed != nil {
		record["published_at"] = entry.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if entry.Author != nil && entry.Author.Name != "" {
		record["author"] = entry.Author.Name
	}
	if len(entry.Categories) > 0 {
		tags := make([]any, 0, len(entry.Categories))
		for _, c := range entry.Categories {
			tags = append(tags, c)
		}
		record["tags"] = tags
	}
	return record
}

// htmlToText flattens markup to whitespace-normalized text. Input that does
// not parse is returned trimmed.
func htmlToText(body string) string {
	if !strings.ContainsAny(body, "<&") {
		return strings.TrimSpace(body)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.TrimSpace(body)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
