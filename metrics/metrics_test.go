package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteTransitions(t *testing.T) {
	before := testutil.ToFloat64(VoteTransitions.WithLabelValues("soumis"))
	VoteTransitions.WithLabelValues("soumis").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(VoteTransitions.WithLabelValues("soumis")))
}

func TestHandler(t *testing.T) {
	VoteRejections.WithLabelValues("deja_vote").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "espace_clubs_votes_rejected_total")
}
