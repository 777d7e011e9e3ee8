package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentRanker/internal/scanner"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	defaultPageSize  = 200
	lookbackOption   = "lookbackDays"
	defaultLookback  = 1
	arxivDateLayout  = "2 Jan 2006"
	arxivAbsSelector = `a[href*="/abs/"]`
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls arXiv listing pages and returns entries published
// within the lookback window ending on the request day.
type ArxivScanner struct {
	client   *http.Client
	pageSize int
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client) *ArxivScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivScanner{client: client, pageSize: defaultPageSize}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks every target listing page by page until entries fall before
// the window. Option lookbackDays widens the window (default 1).
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]any, error) {
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("no targets provided for site %s", req.SiteName)
	}

	lastDay := req.At.UTC().Truncate(24 * time.Hour)
	firstDay := lastDay.AddDate(0, 0, 1-lookbackDays(req.Options))

	var results []any
	seen := map[string]struct{}{}

	for _, target := range req.Targets {
		for skip := 0; ; skip += a.pageSize {
			pageURL, err := buildPageURL(target.URL, skip, a.pageSize)
			if err != nil {
				return nil, fmt.Errorf("target %s: %w", target.Name, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("target %s: %w", target.Name, err)
			}

			records, more := a.extractRecords(doc, firstDay, lastDay, target.Name)
			for _, record := range records {
				id, _ := record["arxiv_id"].(string)
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				results = append(results, record)
			}

			if !more {
				break
			}
		}
	}

	return results, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extractRecords reports whether the next page may still hold entries in the window.
func (a *ArxivScanner) extractRecords(doc *goquery.Document, firstDay, lastDay time.Time, category string) ([]map[string]any, bool) {
	var (
		collected []map[string]any
		more      = true
		processed int
	)

	doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		processed++

		record, publishedAt, ok := parseEntry(dt, dt.Next(), category)
		if !ok {
			return true
		}

		day := publishedAt.UTC().Truncate(24 * time.Hour)
		if day.Before(firstDay) {
			more = false
			return false
		}
		if !day.After(lastDay) {
			collected = append(collected, record)
		}
		return true
	})

	if processed < a.pageSize {
		more = false
	}
	return collected, more
}

// parseEntry turns one dt/dd pair into a raw record. Entries without a
// parseable date are skipped.
func parseEntry(dt, dd *goquery.Selection, category string) (map[string]any, time.Time, bool) {
	link := dt.Find(arxivAbsSelector).First()
	href, _ := link.Attr("href")

	id := strings.TrimSpace(link.Text())
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = arxivBaseURL + href
	}
	if id == "" {
		id = href
	}

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	publishedAt, err := time.Parse(arxivDateLayout, dateExpr.FindString(dateText))
	if err != nil {
		return nil, time.Time{}, false
	}

	title := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(dd.Find(".list-title").First().Text()), "Title:"))
	abstract := strings.TrimSpace(strings.TrimPrefix(dd.Find("p.mathjax").First().Text(), "Abstract:"))

	record := map[string]any{
		"title":        title,
		"content":      strings.Join(strings.Fields(abstract), " "),
		"url":          href,
		"arxiv_id":     id,
		"published_at": publishedAt.UTC().Format(time.RFC3339),
	}
	if category != "" {
		record["category"] = category
	}
	return record, publishedAt, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func lookbackDays(options map[string]string) int {
	if n, err := strconv.Atoi(options[lookbackOption]); err == nil && n > 0 {
		return n
	}
	return defaultLookback
}
