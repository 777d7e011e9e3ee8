package usecase

import (
	"errors"
	"fmt"

	"ContentRanker/internal/domain"
)

// ErrNotAList is reported when the batch itself is absent.
var ErrNotAList = errors.New("items must be a list")

// ValidateItem accepts a record with non-blank string title and content.
// The returned error wraps one of the domain validation sentinels.
func ValidateItem(raw any) (domain.ContentItem, error) {
	item, reason := domain.ParseItem(raw)
	if reason != domain.SkipNone {
		return domain.ContentItem{}, reason.Err()
	}
	return item, nil
}

// ValidateItems partitions a batch into valid items and error strings, in
// input order. A nil batch yields one error.
func ValidateItems(raw []any) ([]domain.ContentItem, []string) {
	valid, errs, _ := validateBatch(raw)
	return valid, errs
}

func validateBatch(raw []any) ([]domain.ContentItem, []string, map[domain.SkipReason]int) {
	if raw == nil {
		return []domain.ContentItem{}, []string{ErrNotAList.Error()}, nil
	}

	valid := make([]domain.ContentItem, 0, len(raw))
	var errs []string
	var skipped map[domain.SkipReason]int

	for i, entry := range raw {
		item, reason := domain.ParseItem(entry)
		if reason != domain.SkipNone {
			errs = append(errs, fmt.Sprintf("item %d: %v", i, reason.Err()))
			if skipped == nil {
				skipped = map[domain.SkipReason]int{}
			}
			skipped[reason]++
			continue
		}
		valid = append(valid, item)
	}

	return valid, errs, skipped
}
