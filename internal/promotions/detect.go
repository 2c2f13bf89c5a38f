package promotions

import (
	"math"
	"math/big"

	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	flashSaleThreshold = 30.0
	discountThreshold  = 15.0
	exactFloatDigits   = 1074
)

// PricePoint is one observation in a per-item price history.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Event is a price decrease between two adjacent points.
type Event struct {
	Date            string                `json:"date"`
	PriceBefore     float64               `json:"price_before"`
	PriceDuring     float64               `json:"price_during"`
	DiscountPercent float64               `json:"discount_percent"`
	Tactic          enums.PromotionTactic `json:"tactic"`
}

// Detect walks adjacent pairs in the order given and emits an event for
// every strict decrease. Rises, flat steps and non-positive prior prices are
// ignored.
func Detect(series []PricePoint) []Event {
	events := make([]Event, 0)
	for i := 1; i < len(series); i++ {
		prev, curr := series[i-1].Price, series[i].Price
		if !isDecrease(prev, curr) {
			continue
		}
		discount := (prev - curr) / prev * 100
		events = append(events, Event{
			Date:            series[i].Date,
			PriceBefore:     prev,
			PriceDuring:     curr,
			DiscountPercent: roundDiscount(discount),
			Tactic:          Classify(discount),
		})
	}
	return events
}

// roundDiscount rounds to one decimal, half to even on the exact binary value.
func roundDiscount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(v).Text('f', exactFloatDigits))
	if err != nil {
		return v
	}
	return exact.RoundBank(1).InexactFloat64()
}

func isDecrease(prev, curr float64) bool {
	return curr < prev && prev > 0
}

// Classify buckets a discount percentage. Both thresholds are exclusive.
func Classify(discountPercent float64) enums.PromotionTactic {
	switch {
	case discountPercent > flashSaleThreshold:
		return enums.PromotionTacticFlashSale
	case discountPercent > discountThreshold:
		return enums.PromotionTacticDiscount
	default:
		return enums.PromotionTacticMinorDiscount
	}
}

// Statistics summarizes a non-empty set of events.
type Statistics struct {
	Total       int     `json:"total"`
	AvgDiscount float64 `json:"avg_discount"`
	MaxDiscount float64 `json:"max_discount"`
	MinDiscount float64 `json:"min_discount"`
}

// Summarize aggregates the rounded discounts. ok is false for an empty
// input, in which case the aggregates are undefined.
func Summarize(events []Event) (Statistics, bool) {
	if len(events) == 0 {
		return Statistics{}, false
	}
	stats := Statistics{
		Total:       len(events),
		MaxDiscount: events[0].DiscountPercent,
		MinDiscount: events[0].DiscountPercent,
	}
	var sum float64
	for _, e := range events {
		sum += e.DiscountPercent
		if e.DiscountPercent > stats.MaxDiscount {
			stats.MaxDiscount = e.DiscountPercent
		}
		if e.DiscountPercent < stats.MinDiscount {
			stats.MinDiscount = e.DiscountPercent
		}
	}
	stats.AvgDiscount = sum / float64(len(events))
	return stats, true
}
