package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/api/validators"
	"github.com/angelmondragon/campaign-intel-backend/internal/promotions"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

type promotionsResponse struct {
	promotions.Analysis
	NoData  bool            `json:"no_data"`
	Reason  upstream.Reason `json:"reason,omitempty"`
	Warning string          `json:"warning,omitempty"`
}

// PromotionsAnalyze fetches the price history of one ASIN. Provider failures
// yield 200 with empty data and a warning.
func PromotionsAnalyze(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}
		asin := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "asin")))
		if err := validators.ValidateVar("asin", asin, "required,alphanum,len=10"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.Analyze(r.Context(), asin)
		if !result.OK() {
			empty := promotions.Analyze(nil)
			empty.ASIN = asin
			responses.WriteSuccess(w, promotionsResponse{
				Analysis: empty,
				NoData:   true,
				Reason:   result.Reason,
				Warning:  result.Warning(),
			})
			return
		}
		responses.WriteSuccess(w, promotionsResponse{Analysis: result.Data})
	}
}

type pricePointRequest struct {
	Date  string   `json:"date" validate:"required,max=64"`
	Price *float64 `json:"price" validate:"required"`
}

type detectRequest struct {
	PriceHistory []pricePointRequest `json:"price_history" validate:"required,max=10000,dive"`
}

// PromotionsDetect runs detection over a caller-supplied series.
func PromotionsDetect(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload detectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		series := make([]promotions.PricePoint, 0, len(payload.PriceHistory))
		for _, p := range payload.PriceHistory {
			series = append(series, promotions.PricePoint{Date: p.Date, Price: *p.Price})
		}
		analysis := promotions.Analyze(series)
		responses.WriteSuccess(w, promotionsResponse{
			Analysis: analysis,
			NoData:   len(analysis.Promotions) == 0,
		})
	}
}
