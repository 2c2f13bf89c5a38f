package listings

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
)

const (
	OthersBrand          = "Others"
	DefaultBrandShareTop = 5
	DefaultTopRatedFloor = 10
)

// Overview holds the market KPIs of one snapshot.
type Overview struct {
	Products               int      `json:"products"`
	TotalSalesProxy        float64  `json:"total_sales_proxy"`
	TotalSalesProxyDisplay string   `json:"total_sales_proxy_display"`
	Brands                 int      `json:"brands"`
	AvgRating              *float64 `json:"avg_rating"`
	AvgReviews             *float64 `json:"avg_reviews"`
}

// Summarize computes the KPIs. AvgRating is nil when no record is rated.
func Summarize(records []Record) Overview {
	ids := make(map[string]struct{}, len(records))
	brands := make(map[string]struct{})
	var salesSum, ratingSum, reviewSum float64
	var rated int

	for _, r := range records {
		ids[r.ID] = struct{}{}
		brands[r.Brand] = struct{}{}
		salesSum += r.SalesProxy
		reviewSum += float64(r.ReviewCount)
		if r.Rating != nil {
			ratingSum += *r.Rating
			rated++
		}
	}

	ov := Overview{
		Products:               len(ids),
		TotalSalesProxy:        salesSum,
		TotalSalesProxyDisplay: FormatLargeNumber(salesSum, "units"),
		Brands:                 len(brands),
	}
	if rated > 0 {
		ov.AvgRating = floatPtr(ratingSum / float64(rated))
	}
	if len(records) > 0 {
		ov.AvgReviews = floatPtr(reviewSum / float64(len(records)))
	}
	return ov
}

// BrandStat aggregates the records of one brand.
type BrandStat struct {
	Brand           string   `json:"brand"`
	ProductCount    int      `json:"product_count"`
	AvgRating       *float64 `json:"avg_rating"`
	TotalReviews    int      `json:"total_reviews"`
	TotalSalesProxy float64  `json:"total_sales_proxy"`
}

// BrandStats groups records by brand in order of first appearance.
func BrandStats(records []Record) []BrandStat {
	index := make(map[string]int)
	stats := make([]BrandStat, 0)
	ratingSums := make([]float64, 0)
	ratedCounts := make([]int, 0)

	for _, r := range records {
		i, ok := index[r.Brand]
		if !ok {
			i = len(stats)
			index[r.Brand] = i
			stats = append(stats, BrandStat{Brand: r.Brand})
			ratingSums = append(ratingSums, 0)
			ratedCounts = append(ratedCounts, 0)
		}
		stats[i].ProductCount++
		stats[i].TotalReviews += r.ReviewCount
		stats[i].TotalSalesProxy += r.SalesProxy
		if r.Rating != nil {
			ratingSums[i] += *r.Rating
			ratedCounts[i]++
		}
	}
	for i := range stats {
		if ratedCounts[i] > 0 {
			stats[i].AvgRating = floatPtr(ratingSums[i] / float64(ratedCounts[i]))
		}
	}
	return stats
}

// TopBrandsByProductCount returns the n brands carrying the most records.
func TopBrandsByProductCount(records []Record, n int) []BrandStat {
	stats := BrandStats(records)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].ProductCount > stats[j].ProductCount
	})
	return headBrands(stats, n)
}

// TopBrandsBySalesProxy returns the n brands with the highest summed sales proxy.
func TopBrandsBySalesProxy(records []Record, n int) []BrandStat {
	stats := BrandStats(records)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalSalesProxy > stats[j].TotalSalesProxy
	})
	return headBrands(stats, n)
}

func headBrands(stats []BrandStat, n int) []BrandStat {
	if n <= 0 {
		return []BrandStat{}
	}
	if n < len(stats) {
		return stats[:n]
	}
	return stats
}

// ShareSlice is one wedge of the brand share chart.
type ShareSlice struct {
	Brand   string  `json:"brand"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// BrandShare returns the top brands by product count plus an Others bucket
// holding the remainder. Others is omitted when it would be empty.
func BrandShare(records []Record, top int) []ShareSlice {
	if len(records) == 0 || top <= 0 {
		return []ShareSlice{}
	}
	stats := TopBrandsByProductCount(records, len(records))
	total := float64(len(records))

	out := make([]ShareSlice, 0, top+1)
	others := 0
	for i, s := range stats {
		if i < top {
			out = append(out, ShareSlice{Brand: s.Brand, Count: s.ProductCount})
			continue
		}
		others += s.ProductCount
	}
	if others > 0 {
		out = append(out, ShareSlice{Brand: OthersBrand, Count: others})
	}
	for i := range out {
		out[i].Percent = round(float64(out[i].Count)/total*100, 1)
	}
	return out
}

// MostReviewed returns the n records with the most reviews.
func MostReviewed(records []Record, n int) []Record {
	return RankTopN(records, n, enums.ListingSortKeyReviewCount)
}

// TopRated returns the n best rated records among those with at least
// minReviews reviews.
func TopRated(records []Record, n, minReviews int) []Record {
	eligible := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ReviewCount >= minReviews && r.Rating != nil {
			eligible = append(eligible, r)
		}
	}
	return RankTopN(eligible, n, enums.ListingSortKeyRating)
}

// FormatLargeNumber renders v as 4.2M, 1.5B, 12.0K or 950, followed by unit.
func FormatLargeNumber(v float64, unit string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	var out string
	switch abs := math.Abs(v); {
	case abs >= 1e9:
		out = fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		out = fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		out = fmt.Sprintf("%.1fK", v/1e3)
	default:
		out = fmt.Sprintf("%.0f", v)
	}
	return strings.TrimSpace(out + " " + unit)
}
