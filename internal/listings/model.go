package listings

const (
	DefaultBrand          = "Unknown"
	DefaultSearchPosition = 1000
	salesProxyNumerator   = 1000.0
)

// Record is one marketplace search result. Price, Rating and
// AvgCompetitorPrice are nil when absent.
type Record struct {
	ID             string   `json:"product_id"`
	Title          string   `json:"title"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category"`
	Price          *float64 `json:"price"`
	Rating         *float64 `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	SearchPosition int      `json:"search_position"`
	IsSponsored    bool     `json:"is_sponsored"`

	SalesProxy         float64  `json:"sales_proxy"`
	CompetitorCount    int      `json:"competitor_count"`
	AvgCompetitorPrice *float64 `json:"avg_competitor_price"`
	// PriceVsMarket is 0 both at market price and when it cannot be computed.
	PriceVsMarket float64 `json:"price_vs_market"`
}

// FindByID returns the record with the given identifier.
func FindByID(records []Record, id string) (Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func floatPtr(v float64) *float64 {
	return &v
}
