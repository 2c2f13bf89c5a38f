// Package upstream carries the outcome of a third-party call without raising a fault.
package upstream

import (
	stdErrors "errors"

	"github.com/angelmondragon/campaign-intel-backend/pkg/errors"
)

// Reason explains why a Result carries no data.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNotConfigured     Reason = "not_configured"
	ReasonTransportError    Reason = "transport_error"
	ReasonBadStatus         Reason = "bad_status"
	ReasonMalformedResponse Reason = "malformed_response"
	ReasonNoResults         Reason = "no_results"
)

// ErrMalformed marks a provider body that could not be decoded.
var ErrMalformed = stdErrors.New("malformed provider response")

var warningByReason = map[Reason]string{
	ReasonNotConfigured:     "provider API key is not configured",
	ReasonTransportError:    "provider could not be reached",
	ReasonBadStatus:         "provider returned an error status",
	ReasonMalformedResponse: "provider returned an unreadable response",
	ReasonNoResults:         "provider returned no results",
}

// Result is either success-with-data or empty-with-reason.
type Result[T any] struct {
	Data   T
	Reason Reason
	Err    error
}

func Success[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

func Empty[T any](reason Reason, err error) Result[T] {
	if reason == ReasonNone {
		reason = Classify(err)
	}
	if reason == ReasonNone {
		reason = ReasonNoResults
	}
	return Result[T]{Reason: reason, Err: err}
}

// OK reports whether the result carries data.
func (r Result[T]) OK() bool {
	return r.Reason == ReasonNone
}

// Warning returns the display text for an empty result.
func (r Result[T]) Warning() string {
	if r.OK() {
		return ""
	}
	if msg, ok := warningByReason[r.Reason]; ok {
		return msg
	}
	return string(r.Reason)
}

// Classify maps a client error onto the reason an empty result reports.
func Classify(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	var statusErr *errors.UpstreamError
	if stdErrors.As(err, &statusErr) {
		return ReasonBadStatus
	}
	if stdErrors.Is(err, ErrMalformed) {
		return ReasonMalformedResponse
	}
	return ReasonTransportError
}
