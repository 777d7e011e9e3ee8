package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentRanker/internal/scanner"
)

const arxivListing = `
<dl>
  <dt>
    <span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span>
  </dt>
  <dd>
    <div class="list-date">Date: 8 Nov 2025</div>
    <div class="list-title mathjax">Title: Fresh Article</div>
    <p class="mathjax">Abstract: brand
      new.</p>
  </dd>
  <dt>
    <span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span>
  </dt>
  <dd>
    <div class="list-date">Date: 7 Nov 2025</div>
    <div class="list-title mathjax">Title: Yesterday Article</div>
    <p class="mathjax">Abstract: older.</p>
  </dd>
  <dt>
    <span class="list-identifier"><a href="/abs/2501.00003">arXiv:2501.00003</a></span>
  </dt>
  <dd>
    <div class="list-date">Date: 1 Nov 2025</div>
    <div class="list-title mathjax">Title: Ancient Article</div>
    <p class="mathjax">Abstract: ancient.</p>
  </dd>
</dl>`

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://export.arxiv.org/list/cs.AI/pastweek", 200, 100)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if parsed.Host != "export.arxiv.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}
	q := parsed.Query()
	if q.Get("skip") != "200" || q.Get("show") != "100" {
		t.Fatalf("unexpected query: %s", parsed.RawQuery)
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(arxivListing))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	record, publishedAt, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "cs.AI")
	if !ok {
		t.Fatal("expected entry to parse")
	}
	if record["arxiv_id"] != "arXiv:2501.00001" {
		t.Fatalf("unexpected id: %v", record["arxiv_id"])
	}
	if record["title"] != "Fresh Article" || record["content"] != "brand new." {
		t.Fatalf("unexpected text fields: %v", record)
	}
	if record["url"] != "https://arxiv.org/abs/2501.00001" || record["category"] != "cs.AI" {
		t.Fatalf("unexpected link fields: %v", record)
	}
	if want := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC); !publishedAt.Equal(want) {
		t.Fatalf("unexpected published date: %v", publishedAt)
	}
}

func TestParseEntryWithoutDate(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<dl><dt><a href="/abs/1">arXiv:1</a></dt><dd><div class="list-title">Title: x</div></dd></dl>`))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, _, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), ""); ok {
		t.Fatal("entry without date must be skipped")
	}
}

func TestArxivScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(arxivListing))
	}))
	defer server.Close()

	sc := NewArxivScanner(server.Client())
	sc.pageSize = 10

	req := scanner.Request{
		At:       time.Date(2025, time.November, 8, 15, 0, 0, 0, time.UTC),
		SiteName: "arxiv-ai",
		Targets:  []scanner.Target{{Name: "cs.AI", URL: server.URL + "/list/cs.AI"}},
	}

	records, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].(map[string]any)["title"]; got != "Fresh Article" {
		t.Fatalf("unexpected title: %v", got)
	}

	req.Options = map[string]string{lookbackOption: "2"}
	records, err = sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records with two-day window, got %d", len(records))
	}
}

func TestArxivScannerHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewArxivScanner(server.Client()).Scan(context.Background(), scanner.Request{
		Targets: []scanner.Target{{Name: "cs.AI", URL: server.URL}},
	})
	if err == nil || !strings.Contains(err.Error(), "target cs.AI") {
		t.Fatalf("expected target error, got %v", err)
	}
}
