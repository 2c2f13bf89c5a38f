package listings

import (
	"sort"

	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
)

// RankTopN sorts by key descending, keeps the original order among ties,
// and truncates to n. Records lacking the field sort after all others.
func RankTopN(records []Record, n int, key enums.ListingSortKey) []Record {
	if n <= 0 || len(records) == 0 {
		return []Record{}
	}
	ranked := make([]Record, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, okI := SortValue(ranked[i], key)
		vj, okJ := SortValue(ranked[j], key)
		if okI != okJ {
			return okI
		}
		return okI && vi > vj
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// SortValue returns the numeric field named by key, or false when absent.
func SortValue(r Record, key enums.ListingSortKey) (float64, bool) {
	switch key {
	case enums.ListingSortKeySalesProxy:
		return r.SalesProxy, true
	case enums.ListingSortKeyPrice:
		return optional(r.Price)
	case enums.ListingSortKeyRating:
		return optional(r.Rating)
	case enums.ListingSortKeyReviewCount:
		return float64(r.ReviewCount), true
	case enums.ListingSortKeySearchPosition:
		return float64(r.SearchPosition), true
	case enums.ListingSortKeyCompetitorCount:
		return float64(r.CompetitorCount), true
	case enums.ListingSortKeyAvgCompetitorPrice:
		return optional(r.AvgCompetitorPrice)
	case enums.ListingSortKeyPriceVsMarket:
		return r.PriceVsMarket, true
	default:
		return 0, false
	}
}

func optional(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
