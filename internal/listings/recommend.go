package listings

import (
	"sort"
	"strings"

	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
)

const (
	DefaultMinReviews  = 5
	maxRecommendations = 5
	ratingWeight       = 70.0
	reviewWeight       = 30.0
	maxRating          = 5.0
)

// Recommendation is a recommended record and its blended score. Score is
// nil when the review floor could not be met and the rating fallback was used.
type Recommendation struct {
	Record
	Score *float64 `json:"score"`
}

// Recommend returns up to five records for category (case-insensitive
// substring match, falling back to every record when nothing matches).
// Candidates need at least minReviews reviews and are ranked by
// rating/5*70 + reviews/maxReviews*30. When no candidate clears the floor the
// top five rated records across all records are returned instead.
func Recommend(records []Record, category string, minReviews int) []Recommendation {
	if len(records) == 0 {
		return []Recommendation{}
	}

	needle := strings.ToLower(category)
	pool := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Category), needle) {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		pool = records
	}

	candidates := make([]Record, 0, len(pool))
	maxReviews := 0
	for _, r := range pool {
		if r.ReviewCount >= minReviews {
			candidates = append(candidates, r)
			if r.ReviewCount > maxReviews {
				maxReviews = r.ReviewCount
			}
		}
	}

	if len(candidates) == 0 {
		rated := make([]Record, 0, len(records))
		for _, r := range records {
			if r.Rating != nil {
				rated = append(rated, r)
			}
		}
		top := RankTopN(rated, maxRecommendations, enums.ListingSortKeyRating)
		out := make([]Recommendation, 0, len(top))
		for _, r := range top {
			out = append(out, Recommendation{Record: r})
		}
		return out
	}

	scored := make([]Recommendation, 0, len(candidates))
	for _, r := range candidates {
		score := Score(r, maxReviews)
		scored = append(scored, Recommendation{Record: r, Score: &score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Score > *scored[j].Score
	})
	if len(scored) > maxRecommendations {
		scored = scored[:maxRecommendations]
	}
	return scored
}

// Score blends rating and relative review volume. It is relative to maxReviews.
func Score(r Record, maxReviews int) float64 {
	rating := 0.0
	if r.Rating != nil {
		rating = *r.Rating
	}
	score := rating / maxRating * ratingWeight
	if maxReviews > 0 {
		score += float64(r.ReviewCount) / float64(maxReviews) * reviewWeight
	}
	return score
}
