package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

const (
	// UnknownSource groups items that carry no source.
	UnknownSource = "unknown"

	keyTitle        = "title"
	keyContent      = "content"
	keySource       = "source"
	keyURL          = "url"
	keyQualityScore = "_quality_score"
)

var (
	ErrNotARecord   = errors.New("item is not a record")
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("field must be a string")
)

// SkipReason explains why a raw entry did not become a ContentItem.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipNotARecord     SkipReason = "not_a_record"
	SkipMissingTitle   SkipReason = "missing_title"
	SkipMissingContent SkipReason = "missing_content"
	SkipInvalidTitle   SkipReason = "invalid_title"
	SkipInvalidContent SkipReason = "invalid_content"
)

// Err maps the reason onto the sentinel validation errors.
func (r SkipReason) Err() error {
	switch r {
	case SkipNone:
		return nil
	case SkipNotARecord:
		return ErrNotARecord
	case SkipMissingTitle:
		return fmt.Errorf("%w: %s", ErrMissingField, keyTitle)
	case SkipMissingContent:
		return fmt.Errorf("%w: %s", ErrMissingField, keyContent)
	case SkipInvalidTitle:
		return fmt.Errorf("%w: %s", ErrInvalidField, keyTitle)
	case SkipInvalidContent:
		return fmt.Errorf("%w: %s", ErrInvalidField, keyContent)
	default:
		return fmt.Errorf("skipped: %s", string(r))
	}
}

// ContentItem is one collected piece of content. Keys other than the typed
// fields live in Metadata and are written back untouched on encode.
type ContentItem struct {
	Title        string
	Content      string
	Source       string
	URL          string
	Metadata     map[string]any
	QualityScore *float64
}

// SourceOrUnknown returns the grouping key used by the diversity cap.
func (c ContentItem) SourceOrUnknown() string {
	if strings.TrimSpace(c.Source) == "" {
		return UnknownSource
	}
	return c.Source
}

// Valid reports whether both title and content are non-blank.
func (c ContentItem) Valid() bool {
	return strings.TrimSpace(c.Title) != "" && strings.TrimSpace(c.Content) != ""
}

// Clone returns a copy whose metadata map and score pointer are not shared.
func (c ContentItem) Clone() ContentItem {
	out := c
	if c.Metadata != nil {
		out.Metadata = maps.Clone(c.Metadata)
	}
	if c.QualityScore != nil {
		score := *c.QualityScore
		out.QualityScore = &score
	}
	return out
}

// Meta returns a metadata value by key.
func (c ContentItem) Meta(key string) (any, bool) {
	if c.Metadata == nil {
		return nil, false
	}
	v, ok := c.Metadata[key]
	return v, ok
}

// WithMeta returns a clone carrying key=value in its metadata.
func (c ContentItem) WithMeta(key string, value any) ContentItem {
	out := c.Clone()
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	out.Metadata[key] = value
	return out
}

// Record flattens the item back into a JSON-compatible map.
func (c ContentItem) Record() map[string]any {
	record := make(map[string]any, len(c.Metadata)+5)
	maps.Copy(record, c.Metadata)
	record[keyTitle] = c.Title
	record[keyContent] = c.Content
	if c.Source != "" {
		record[keySource] = c.Source
	}
	if c.URL != "" {
		record[keyURL] = c.URL
	}
	if c.QualityScore != nil {
		record[keyQualityScore] = *c.QualityScore
	}
	return record
}

// MarshalJSON encodes the item as one flat object.
func (c ContentItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Record())
}

// UnmarshalJSON accepts any JSON object; numbers are kept as json.Number so
// passthrough metadata is not rounded through float64.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return fmt.Errorf("decode content item: %w", err)
	}
	if record == nil {
		return ErrNotARecord
	}

	*c = FromRecord(record)
	return nil
}

// FromRecord lifts string-typed well-known keys into fields and keeps
// everything else as metadata. It does not validate.
func FromRecord(record map[string]any) ContentItem {
	item := ContentItem{Metadata: make(map[string]any, len(record))}
	for key, value := range record {
		s, isString := value.(string)
		switch {
		case key == keyTitle && isString:
			item.Title = s
		case key == keyContent && isString:
			item.Content = s
		case key == keySource && isString:
			item.Source = s
		case key == keyURL && isString:
			item.URL = s
		case key == keyQualityScore:
			if f, ok := Float(value); ok {
				item.QualityScore = &f
			} else {
				item.Metadata[key] = value
			}
		default:
			item.Metadata[key] = value
		}
	}
	if len(item.Metadata) == 0 {
		item.Metadata = nil
	}
	return item
}

// ParseItem classifies one raw batch entry. Records, ContentItem values and
// pointers are accepted; anything else is SkipNotARecord.
func ParseItem(raw any) (ContentItem, SkipReason) {
	var record map[string]any
	switch v := raw.(type) {
	case map[string]any:
		record = v
	case ContentItem:
		return v, checkFields(v.Title, v.Content)
	case *ContentItem:
		if v == nil {
			return ContentItem{}, SkipNotARecord
		}
		return *v, checkFields(v.Title, v.Content)
	default:
		return ContentItem{}, SkipNotARecord
	}
	if record == nil {
		return ContentItem{}, SkipNotARecord
	}

	if reason := checkValue(record, keyTitle, SkipMissingTitle, SkipInvalidTitle); reason != SkipNone {
		return ContentItem{}, reason
	}
	if reason := checkValue(record, keyContent, SkipMissingContent, SkipInvalidContent); reason != SkipNone {
		return ContentItem{}, reason
	}

	return FromRecord(record), SkipNone
}

func checkValue(record map[string]any, key string, missing, invalid SkipReason) SkipReason {
	value, ok := record[key]
	if !ok || value == nil {
		return missing
	}
	s, ok := value.(string)
	if !ok {
		return invalid
	}
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return SkipNone
}

func checkFields(title, content string) SkipReason {
	if strings.TrimSpace(title) == "" {
		return SkipMissingTitle
	}
	if strings.TrimSpace(content) == "" {
		return SkipMissingContent
	}
	return SkipNone
}

// Float converts JSON-ish numeric values. Strings are not converted.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
