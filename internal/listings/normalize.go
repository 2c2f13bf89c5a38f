package listings

import (
	"math"
	"strings"

	"github.com/angelmondragon/campaign-intel-backend/pkg/serpapi"
	"github.com/shopspring/decimal"
)

// NormalizeStats counts the rows dropped while normalizing.
type NormalizeStats struct {
	Input      int `json:"input"`
	Kept       int `json:"kept"`
	Incomplete int `json:"incomplete"`
	Duplicates int `json:"duplicates"`
}

// Normalize maps raw search results onto Records of one category. Rows
// without an identifier or title are skipped, as are repeated identifiers
// (the first occurrence is kept). Malformed optional fields fall back to
// their defaults; this never fails.
func Normalize(raw []serpapi.ShoppingResult, category string) ([]Record, NormalizeStats) {
	stats := NormalizeStats{Input: len(raw)}
	out := make([]Record, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, item := range raw {
		id := strings.TrimSpace(string(item.ProductID))
		title := strings.TrimSpace(string(item.Title))
		if id == "" || title == "" {
			stats.Incomplete++
			continue
		}
		if _, dup := seen[id]; dup {
			stats.Duplicates++
			continue
		}
		seen[id] = struct{}{}

		brand := strings.TrimSpace(string(item.Source))
		if brand == "" {
			brand = DefaultBrand
		}

		rec := Record{
			ID:             id,
			Title:          title,
			Brand:          brand,
			Category:       category,
			Price:          CoercePrice(item.Price),
			ReviewCount:    0,
			SearchPosition: DefaultSearchPosition,
			IsSponsored:    bool(item.Sponsored),
		}
		if item.Rating.Valid && isFinite(item.Rating.Value) {
			rec.Rating = floatPtr(item.Rating.Value)
		}
		if item.Reviews.Valid && isFinite(item.Reviews.Value) && item.Reviews.Value > 0 {
			rec.ReviewCount = int(item.Reviews.Value)
		}
		if item.Position.Valid && isFinite(item.Position.Value) && int(item.Position.Value) != 0 {
			rec.SearchPosition = int(item.Position.Value)
		}
		out = append(out, rec)
	}

	stats.Kept = len(out)
	return out, stats
}

// CoercePrice decodes the provider price shapes into a number, or nil.
func CoercePrice(p serpapi.Price) *float64 {
	switch p.Kind {
	case serpapi.PriceNumber, serpapi.PriceObject, serpapi.PriceString:
	default:
		return nil
	}
	if !p.IsText {
		if !isFinite(p.Number) {
			return nil
		}
		return floatPtr(p.Number)
	}
	return ParseNumber(p.Text)
}

// ParseNumber parses a numeric string, returning nil when it is not one.
func ParseNumber(text string) *float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return nil
	}
	v := d.InexactFloat64()
	if !isFinite(v) {
		return nil
	}
	return floatPtr(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
