package enums

import "fmt"

// PromotionTactic labels a detected price decrease by its magnitude.
type PromotionTactic string

const (
	PromotionTacticFlashSale     PromotionTactic = "FLASH_SALE"
	PromotionTacticDiscount      PromotionTactic = "DISCOUNT"
	PromotionTacticMinorDiscount PromotionTactic = "MINOR_DISCOUNT"
)

var validPromotionTactics = []PromotionTactic{
	PromotionTacticFlashSale,
	PromotionTacticDiscount,
	PromotionTacticMinorDiscount,
}

// IsValid reports whether the value is a known promotion tactic.
func (t PromotionTactic) IsValid() bool {
	for _, candidate := range validPromotionTactics {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePromotionTactic converts the raw string to PromotionTactic.
func ParsePromotionTactic(value string) (PromotionTactic, error) {
	for _, candidate := range validPromotionTactics {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion tactic %q", value)
}
