package scoring

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ContentRanker/internal/domain"
)

const (
	engagementLogScale = 4.0
	monetizationHits   = 3.0
	recencyDecay       = 48 * time.Hour
	unknownRecency     = 0.5
)

var (
	upvoteKeys    = []string{"score", "upvotes", "ups", "likes"}
	commentKeys   = []string{"num_comments", "comments", "comment_count"}
	unixTimeKeys  = []string{"created_utc", "published_ts"}
	isoTimeKeys   = []string{"published_at", "created_at", "timestamp"}
	moneyKeywords = []string{
		"ai", "software", "saas", "cloud", "finance", "investing", "investment",
		"crypto", "stock", "startup", "business", "marketing", "insurance",
		"mortgage", "loan", "credit", "security", "productivity", "career",
		"health", "fitness", "travel", "energy", "ecommerce",
	}
)

// TopicScorer rates items for the standalone topic ranking by weighted
// engagement, monetization potential, recency and title quality.
type TopicScorer struct {
	cfg domain.RankingConfig
}

// NewTopicScorer binds a ranking configuration.
func NewTopicScorer(cfg domain.RankingConfig) *TopicScorer {
	return &TopicScorer{cfg: cfg}
}

// Score computes all components for item relative to now.
func (s *TopicScorer) Score(item domain.ContentItem, now time.Time) domain.TopicScore {
	score := domain.TopicScore{
		Engagement:   EngagementScore(item),
		Monetization: MonetizationScore(item),
		Recency:      RecencyScore(item, now),
		TitleQuality: TitleQualityScore(item.Title),
	}
	score.Total = Clamp(score.Engagement*s.cfg.EngagementWeight +
		score.Monetization*s.cfg.MonetizationWeight +
		score.Recency*s.cfg.RecencyWeight +
		score.TitleQuality*s.cfg.TitleQualityWeight)
	return score
}

// EngagementScore is log10(1 + upvotes + 2*comments)/4 capped at 1.
func EngagementScore(item domain.ContentItem) float64 {
	upvotes := firstNumber(item, upvoteKeys)
	comments := firstNumber(item, commentKeys)
	total := max(upvotes, 0) + 2*max(comments, 0)
	return Clamp(math.Log10(1+total) / engagementLogScale)
}

// MonetizationScore counts distinct commercial keywords in title and body.
func MonetizationScore(item domain.ContentItem) float64 {
	words := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(item.Title+" "+item.Content), notWordRune) {
		words[w] = struct{}{}
	}

	hits := 0
	for _, kw := range moneyKeywords {
		if _, ok := words[kw]; ok {
			hits++
		}
	}
	return Clamp(float64(hits) / monetizationHits)
}

// RecencyScore decays as exp(-age/48h), so a two-day-old item scores 1/e;
// unknown age scores 0.5 and timestamps in the future score 1.
func RecencyScore(item domain.ContentItem, now time.Time) float64 {
	published, ok := publishedAt(item)
	if !ok {
		return unknownRecency
	}
	age := now.Sub(published)
	if age <= 0 {
		return 1
	}
	return math.Exp(-age.Hours() / recencyDecay.Hours())
}

// TitleQualityScore favors titles of headline length and penalizes shouting.
func TitleQualityScore(title string) float64 {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)

	var score float64
	switch {
	case n >= 30 && n <= 90:
		score = 1
	case (n >= 15 && n < 30) || (n > 90 && n <= 120):
		score = 0.6
	default:
		score = 0.2
	}

	if strings.ContainsAny(title, "0123456789?") {
		score += 0.1
	}
	if isShouting(title) {
		score -= 0.3
	}
	return Clamp(score)
}

func firstNumber(item domain.ContentItem, keys []string) float64 {
	for _, key := range keys {
		if v, ok := item.Meta(key); ok {
			if f, ok := domain.Float(v); ok {
				return f
			}
		}
	}
	return 0
}

func publishedAt(item domain.ContentItem) (time.Time, bool) {
	for _, key := range unixTimeKeys {
		if v, ok := item.Meta(key); ok {
			if f, ok := domain.Float(v); ok && f > 0 {
				sec, frac := math.Modf(f)
				return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
			}
		}
	}
	for _, key := range isoTimeKeys {
		if v, ok := item.Meta(key); ok {
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
					return t, true
				}
			}
		}
	}
	return time.Time{}, false
}

func isShouting(title string) bool {
	letters, upper := 0, 0
	for _, r := range title {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 8 && upper == letters
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
