package enums

import (
	"fmt"
	"strings"
)

// ListingSortKey names the numeric listing field used for ranking.
type ListingSortKey string

const (
	ListingSortKeySalesProxy         ListingSortKey = "sales_proxy"
	ListingSortKeyPrice              ListingSortKey = "price"
	ListingSortKeyRating             ListingSortKey = "rating"
	ListingSortKeyReviewCount        ListingSortKey = "review_count"
	ListingSortKeySearchPosition     ListingSortKey = "search_position"
	ListingSortKeyCompetitorCount    ListingSortKey = "competitor_count"
	ListingSortKeyAvgCompetitorPrice ListingSortKey = "avg_competitor_price"
	ListingSortKeyPriceVsMarket      ListingSortKey = "price_vs_market"
)

var validListingSortKeys = []ListingSortKey{
	ListingSortKeySalesProxy,
	ListingSortKeyPrice,
	ListingSortKeyRating,
	ListingSortKeyReviewCount,
	ListingSortKeySearchPosition,
	ListingSortKeyCompetitorCount,
	ListingSortKeyAvgCompetitorPrice,
	ListingSortKeyPriceVsMarket,
}

func (k ListingSortKey) IsValid() bool {
	for _, candidate := range validListingSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseListingSortKey converts the raw query value to ListingSortKey.
func ParseListingSortKey(value string) (ListingSortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validListingSortKeys {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing sort key %q", value)
}
