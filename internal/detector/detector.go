// Package detector classifies content that is unsuitable for rewriting:
// paywalled pages, comparison pieces, listicles and badly sized bodies.
// Every detector is pure and never panics.
package detector

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"ContentRanker/internal/domain"
)

const (
	PaywallPenalty = 0.9

	comparisonBasePenalty  = 0.3
	comparisonExtraPenalty = 0.15
	comparisonMaxPenalty   = 0.75

	ListiclePenalty = 0.3

	MinContentRunes     = 300
	MaxOptimalRunes     = 1500
	veryShortRunes      = 100
	veryShortPenalty    = -0.5
	shortPenalty        = -0.3
	optimalLengthBonus  = 0.1
	longContentPenalty  = -0.05
	invalidLengthResult = -0.2
)

var paywallDomains = []string{
	"wsj.com",
	"ft.com",
	"nytimes.com",
	"bloomberg.com",
	"economist.com",
	"washingtonpost.com",
	"thetimes.co.uk",
	"telegraph.co.uk",
	"newyorker.com",
	"theatlantic.com",
	"barrons.com",
	"businessinsider.com",
	"wired.com",
	"hbr.org",
	"theinformation.com",
}

var paywallPhrases = []string{
	"subscriber only",
	"subscribers only",
	"subscriber-only",
	"subscribe to continue",
	"subscribe to read",
	"subscription required",
	"premium content",
	"members only",
	"sign in to continue reading",
	"log in to continue reading",
	"this article is for subscribers",
	"become a member to read",
	"paywall",
}

var (
	versusExpr     = regexp.MustCompile(`(?i)\b[\w.+#-]+\s+(?:vs\.?|versus)\s+[\w.+#-]+`)
	bestExpr       = regexp.MustCompile(`(?i)\bbest\s+(?:[\w-]+\s+){0,3}(?:products|tools|apps|deals|gadgets|picks|options|alternatives|laptops|phones|headphones|services)\b`)
	prosExpr       = regexp.MustCompile(`(?im)^\s*[*-]?\s*pros\s*:`)
	consExpr       = regexp.MustCompile(`(?im)^\s*[*-]?\s*cons\s*:`)
	priceRangeExpr = regexp.MustCompile(`(?i)\$\s?\d[\d,]*(?:\.\d+)?\s*(?:to|-|–)\s*\$\s?\d`)

	listicleExprs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btop\s+\d+\b`),
		regexp.MustCompile(`(?i)\b\d+\s+(?:\w+\s+)?ways\s+to\b`),
		regexp.MustCompile(`(?i)\bhere\s+are\s+\d+\s+(?:\w+\s+)?things?\b`),
		regexp.MustCompile(`(?i)\b\d+\s+reasons\s+(?:why|to)\b`),
		regexp.MustCompile(`(?i)\b\d+\s+(?:\w+\s+)?(?:things|tips|tricks|mistakes|facts|habits)\b`),
	}
)

// DetectPaywall flags known paywalled domains or paywall wording in the body.
func DetectPaywall(title, content, rawURL string) (bool, float64) {
	if isPaywalledDomain(rawURL) {
		return true, PaywallPenalty
	}

	lowered := strings.ToLower(title + "\n" + content)
	for _, phrase := range paywallPhrases {
		if strings.Contains(lowered, phrase) {
			return true, PaywallPenalty
		}
	}
	return false, 0
}

func isPaywalledDomain(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range paywallDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// DetectComparison flags product comparisons and buying guides.
func DetectComparison(title, content string) (bool, float64) {
	text := title + "\n" + content

	signals := 0
	if versusExpr.MatchString(text) {
		signals++
	}
	if bestExpr.MatchString(text) {
		signals++
	}
	if prosExpr.MatchString(content) && consExpr.MatchString(content) {
		signals++
	}
	if priceRangeExpr.MatchString(text) {
		signals++
	}

	if signals == 0 {
		return false, 0
	}
	penalty := comparisonBasePenalty + float64(signals-1)*comparisonExtraPenalty
	return true, min(penalty, comparisonMaxPenalty)
}

// DetectListicle matches numbered-list headlines such as "Top 10" or
// "7 ways to". Only the title is inspected.
func DetectListicle(title, _ string) (bool, float64) {
	for _, expr := range listicleExprs {
		if expr.MatchString(title) {
			return true, ListiclePenalty
		}
	}
	return false, 0
}

// DetectContentLength returns whether the trimmed body is long enough and the
// score contribution of its length.
func DetectContentLength(content string) (bool, float64) {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	switch {
	case n < veryShortRunes:
		return false, veryShortPenalty
	case n < MinContentRunes:
		return false, shortPenalty
	case n <= MaxOptimalRunes:
		return true, optimalLengthBonus
	default:
		return true, longContentPenalty
	}
}

// DetectContentLengthValue handles untyped content; a non-string has no
// measurable length and is penalized.
func DetectContentLengthValue(content any) (bool, float64) {
	s, ok := content.(string)
	if !ok {
		return false, invalidLengthResult
	}
	return DetectContentLength(s)
}

// DetectContentQuality runs all detectors. Only paywall and poor length
// make an item unsuitable.
func DetectContentQuality(title, content, rawURL string) domain.DetectionResult {
	var res domain.DetectionResult

	res.IsPaywalled, res.PaywallPenalty = DetectPaywall(title, content, rawURL)
	res.IsComparison, res.ComparisonPenalty = DetectComparison(title, content)
	res.IsListicle, res.ListiclePenalty = DetectListicle(title, content)

	lengthOK, lengthScore := DetectContentLength(content)
	res.ContentLengthScore = lengthScore

	res.Detections = make([]string, 0, 4)
	if res.IsPaywalled {
		res.Detections = append(res.Detections, domain.LabelPaywall)
	}
	if res.IsComparison {
		res.Detections = append(res.Detections, domain.LabelComparison)
	}
	if res.IsListicle {
		res.Detections = append(res.Detections, domain.LabelListicle)
	}
	if !lengthOK {
		res.Detections = append(res.Detections, domain.LabelPoorLength)
	}

	res.Suitable = !res.IsPaywalled && lengthOK
	return res
}

// DetectItem runs DetectContentQuality over a typed item.
func DetectItem(item domain.ContentItem) domain.DetectionResult {
	return DetectContentQuality(item.Title, item.Content, item.URL)
}

// DetectRecord runs all detectors over an undecoded record.
func DetectRecord(raw any) domain.DetectionResult {
	record, ok := raw.(map[string]any)
	if !ok {
		return invalidInput()
	}
	title, ok := record["title"].(string)
	if !ok {
		return invalidInput()
	}
	content, ok := record["content"].(string)
	if !ok {
		return invalidInput()
	}
	rawURL, _ := record["url"].(string)
	return DetectContentQuality(title, content, rawURL)
}

func invalidInput() domain.DetectionResult {
	return domain.DetectionResult{
		ContentLengthScore: invalidLengthResult,
		Detections:         []string{domain.LabelInvalidInput},
		Suitable:           false,
	}
}
