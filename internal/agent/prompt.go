package agent

import (
	"fmt"

	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
)

const QuotaRemediation = "⚠️ **OpenAI API Quota Exceeded**\n\n" +
	"Add credits at [OpenAI Billing](https://platform.openai.com/account/billing/overview)"

// FormatContextPrompt prefixes prompt with the selected product's details.
// A nil product leaves the prompt untouched.
func FormatContextPrompt(product *listings.Record, prompt string) string {
	if product == nil {
		return prompt
	}
	return fmt.Sprintf("For product '%s' (brand: %s, rating: %s, reviews: %d), provide campaign strategy. User asks: %s",
		product.Title, product.Brand, formatRating(product.Rating, 2), product.ReviewCount, prompt)
}

// MapFailure turns an agent error into the text shown in the conversation.
func MapFailure(err error) string {
	if err == nil {
		return ""
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeQuotaExceeded) {
		return QuotaRemediation
	}
	return "❌ Error: " + err.Error()
}
