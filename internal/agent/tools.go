package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	"github.com/angelmondragon/campaign-intel-backend/pkg/openai"
)

const (
	ToolTopProducts           = "get_top_products"
	ToolBrandAnalysis         = "get_brand_analysis"
	ToolProductRecommendation = "product_recommendation"

	defaultToolLimit    = 5
	defaultToolCategory = "peanut butter"

	noProductsText      = "No products found from Google Shopping."
	noDataText          = "No data available."
	noProductsAvailable = "No products available."
	notAvailable        = "N/A"
	unknownToolLabel    = "unknown"
)

var limitParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"n": {"type": "integer", "description": "Number of entries to return", "default": 5}
	}
}`)

var categoryParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"category": {"type": "string", "description": "Category to filter on", "default": "peanut butter"}
	}
}`)

// Definitions lists the tools offered to the model.
func Definitions() []openai.Tool {
	return []openai.Tool{
		openai.FunctionTool(ToolTopProducts, "Return the top N products by sales proxy.", limitParameters),
		openai.FunctionTool(ToolBrandAnalysis, "Analyze top brands by product count and average rating.", limitParameters),
		openai.FunctionTool(ToolProductRecommendation, "Get product recommendations based on reviews and ratings.", categoryParameters),
	}
}

// toolMetricLabel keeps the metric label set bounded to the offered tools.
func toolMetricLabel(name string) string {
	switch name {
	case ToolTopProducts, ToolBrandAnalysis, ToolProductRecommendation:
		return name
	default:
		return unknownToolLabel
	}
}

type toolArgs struct {
	N        *int    `json:"n"`
	Category *string `json:"category"`
}

func parseToolArgs(raw string) (toolArgs, error) {
	var args toolArgs
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return args, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

func (a toolArgs) limit() int {
	if a.N == nil || *a.N < 0 {
		return defaultToolLimit
	}
	return *a.N
}

func (a toolArgs) category() string {
	if a.Category == nil || strings.TrimSpace(*a.Category) == "" {
		return defaultToolCategory
	}
	return strings.TrimSpace(*a.Category)
}

// TopProducts reports the n records with the highest sales proxy.
func TopProducts(records []listings.Record, n int) string {
	if len(records) == 0 {
		return noProductsText
	}
	top := listings.RankTopN(records, n, enums.ListingSortKeySalesProxy)
	rows := make([]string, 0, len(top))
	for _, r := range top {
		rows = append(rows, fmt.Sprintf("ID %s | %s | brand=%s | price=%s | rating=%s | reviews=%d",
			r.ID, r.Title, r.Brand, formatPrice(r.Price), formatRating(r.Rating, 1), r.ReviewCount))
	}
	return strings.Join(rows, "\n")
}

// BrandAnalysis reports the n brands carrying the most records.
func BrandAnalysis(records []listings.Record, n int) string {
	if len(records) == 0 {
		return noDataText
	}
	rows := []string{"Top Brands Analysis:"}
	for _, b := range listings.TopBrandsByProductCount(records, n) {
		rows = append(rows, fmt.Sprintf("%s: %d products, avg rating %s, total reviews %d",
			b.Brand, b.ProductCount, formatRating(b.AvgRating, 2), b.TotalReviews))
	}
	return strings.Join(rows, "\n")
}

// ProductRecommendation reports the recommendations for category.
func ProductRecommendation(records []listings.Record, category string) string {
	if len(records) == 0 {
		return noProductsAvailable
	}
	rows := []string{fmt.Sprintf("Top Recommendations in %s:", category)}
	for _, r := range listings.Recommend(records, category, listings.DefaultMinReviews) {
		rows = append(rows, fmt.Sprintf("• %s (%s) - Rating: %s (%d reviews) - %s",
			r.Title, r.Brand, formatRating(r.Rating, 1), r.ReviewCount, formatPrice(r.Price)))
	}
	return strings.Join(rows, "\n")
}

// runTool executes one tool call. Unknown tools and bad arguments are
// reported back to the model as text.
func runTool(name, rawArgs string, records []listings.Record) string {
	args, err := parseToolArgs(rawArgs)
	if err != nil {
		return err.Error()
	}
	switch name {
	case ToolTopProducts:
		return TopProducts(records, args.limit())
	case ToolBrandAnalysis:
		return BrandAnalysis(records, args.limit())
	case ToolProductRecommendation:
		return ProductRecommendation(records, args.category())
	default:
		return fmt.Sprintf("unknown tool %q", name)
	}
}

func formatPrice(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("$%.2f", *v)
}

func formatRating(v *float64, places int) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.*f", places, *v)
}
