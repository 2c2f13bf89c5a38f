package upstream

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessResult(t *testing.T) {
	res := Success([]int{1, 2})
	require.True(t, res.OK())
	assert.Equal(t, []int{1, 2}, res.Data)
	assert.Empty(t, res.Warning())
}

func TestEmptyResultCarriesReason(t *testing.T) {
	res := Empty[[]int](ReasonNotConfigured, nil)
	require.False(t, res.OK())
	assert.Nil(t, res.Data)
	assert.Equal(t, ReasonNotConfigured, res.Reason)
	assert.Equal(t, "provider API key is not configured", res.Warning())
}

func TestEmptyResultClassifiesError(t *testing.T) {
	statusErr := errors.Wrap(errors.CodeDependency, &errors.UpstreamError{Provider: "serpapi", StatusCode: http.StatusInternalServerError}, "search failed")
	assert.Equal(t, ReasonBadStatus, Empty[int](ReasonNone, statusErr).Reason)

	malformed := errors.Wrap(errors.CodeDependency, fmt.Errorf("%w: unexpected EOF", ErrMalformed), "decode search response")
	assert.Equal(t, ReasonMalformedResponse, Empty[int](ReasonNone, malformed).Reason)

	transport := errors.Wrap(errors.CodeDependency, stdErrors.New("dial tcp: refused"), "execute search request")
	assert.Equal(t, ReasonTransportError, Empty[int](ReasonNone, transport).Reason)

	assert.Equal(t, ReasonNoResults, Empty[int](ReasonNone, nil).Reason)
}
