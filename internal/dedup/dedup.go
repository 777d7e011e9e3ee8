// Package dedup fingerprints content and drops in-batch duplicates.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"ContentRanker/internal/domain"
)

const (
	// ContentPrefixRunes bounds how much of the body feeds the fingerprint.
	ContentPrefixRunes = 500
	separator          = "|"
)

// HashContent fingerprints trimmed title plus the first 500 runes of the
// trimmed content. The title is length-prefixed so no split of the same
// bytes between title and content collides. The result is 64 lowercase hex
// characters.
func HashContent(title, content string) string {
	title = strings.TrimSpace(title)
	content = prefix(strings.TrimSpace(content), ContentPrefixRunes)

	sum := sha256.Sum256([]byte(strconv.Itoa(len(title)) + separator + title + separator + content))
	return hex.EncodeToString(sum[:])
}

// HashValues is HashContent for untyped values; non-strings yield "".
func HashValues(title, content any) string {
	t, ok := title.(string)
	if !ok {
		return ""
	}
	c, ok := content.(string)
	if !ok {
		return ""
	}
	return HashContent(t, c)
}

// Fingerprint hashes an item, or returns "" when it cannot be deduplicated.
func Fingerprint(item domain.ContentItem) string {
	if !item.Valid() {
		return ""
	}
	return HashContent(item.Title, item.Content)
}

// FilterDuplicatesInBatch keeps the first occurrence of each fingerprint in
// input order. Items with blank title or content are dropped.
func FilterDuplicatesInBatch(items []domain.ContentItem) []domain.ContentItem {
	out, _ := filter(items)
	return out
}

// FilterDuplicatesCounted is FilterDuplicatesInBatch that also reports how
// many items were dropped as duplicates.
func FilterDuplicatesCounted(items []domain.ContentItem) ([]domain.ContentItem, int) {
	return filter(items)
}

// FilterRawDuplicates applies the same rule to undecoded batch entries;
// entries that are not records are dropped.
func FilterRawDuplicates(raw []any) []domain.ContentItem {
	items := make([]domain.ContentItem, 0, len(raw))
	for _, entry := range raw {
		item, reason := domain.ParseItem(entry)
		if reason != domain.SkipNone {
			continue
		}
		items = append(items, item)
	}
	return FilterDuplicatesInBatch(items)
}

func filter(items []domain.ContentItem) ([]domain.ContentItem, int) {
	out := make([]domain.ContentItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	dropped := 0

	for _, item := range items {
		fp := Fingerprint(item)
		if fp == "" {
			continue
		}
		if _, ok := seen[fp]; ok {
			dropped++
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, item)
	}

	return out, dropped
}

func prefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
