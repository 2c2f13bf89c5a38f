package listings

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// exactFloatDigits is enough fractional digits to print any float64 exactly.
const exactFloatDigits = 1074

// Enrich computes the derived competitive fields for one fetch. The input is
// not modified; the output has the same length and order. Derived fields are
// recomputed from base fields only, so reapplying Enrich is a no-op.
func Enrich(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	if len(out) == 0 {
		return out
	}

	type priceAgg struct {
		members int
		sum     float64
		priced  int
	}
	byCategory := make(map[string]*priceAgg)
	var totalSum float64
	var totalPriced int

	for i := range out {
		r := &out[i]
		position := r.SearchPosition
		if position < 1 {
			position = 1
		}
		r.SalesProxy = salesProxyNumerator / float64(position)

		agg, ok := byCategory[r.Category]
		if !ok {
			agg = &priceAgg{}
			byCategory[r.Category] = agg
		}
		agg.members++
		if r.Price != nil {
			agg.sum += *r.Price
			agg.priced++
			totalSum += *r.Price
			totalPriced++
		}
	}

	var overall *float64
	if totalPriced > 0 {
		overall = floatPtr(totalSum / float64(totalPriced))
	}

	for i := range out {
		r := &out[i]
		agg := byCategory[r.Category]

		r.CompetitorCount = agg.members - 1
		if r.CompetitorCount < 0 {
			r.CompetitorCount = 0
		}

		r.AvgCompetitorPrice = nil
		if agg.priced > 0 {
			r.AvgCompetitorPrice = floatPtr(agg.sum / float64(agg.priced))
		} else if overall != nil {
			r.AvgCompetitorPrice = floatPtr(*overall)
		}

		r.PriceVsMarket = priceVsMarket(r.Price, r.AvgCompetitorPrice)
	}
	return out
}

func priceVsMarket(price, avg *float64) float64 {
	if price == nil || avg == nil || *avg <= 0 {
		return 0
	}
	return round((*price-*avg) / *avg * 100, 2)
}

// round rounds the exact binary value of v half to even.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(v).Text('f', exactFloatDigits))
	if err != nil {
		return v
	}
	return exact.RoundBank(places).InexactFloat64()
}
