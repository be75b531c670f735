package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-livepreview"
)

func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.EditNotified(livepreview.EditSource)
	r.EditNotified(livepreview.EditSource)
	r.EditNotified(livepreview.EditImages)
	r.AttemptStarted(1)
	r.AttemptStarted(2)
	r.StaleDiscarded(1)
	r.ImagesSkipped(3)

	assert.InDelta(t, 2, testutil.ToFloat64(r.edits.WithLabelValues("source")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.edits.WithLabelValues("images")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.attempts), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.inflight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.stale), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.skipped), 0)
}

func TestRecorder_AttemptFinished(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    livepreview.Mode
		err     error
		outcome string
	}{
		{"success", livepreview.ModeMarkup, nil, OutcomeSuccess},
		{"render error", livepreview.ModeMarkup, &livepreview.RenderError{Message: "x"}, OutcomeFailure},
		{"empty source", livepreview.ModeBinary, livepreview.ErrEmptySource, OutcomeFailure},
		{"canceled", livepreview.ModeMarkup, context.Canceled, OutcomeCanceled},
		{"wrapped cancel", livepreview.ModeBinary, errors.Join(errors.New("x"), context.Canceled), OutcomeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewRecorder()
			r.AttemptStarted(1)
			r.AttemptFinished(1, tt.mode, 40*time.Millisecond, tt.err)

			got := testutil.ToFloat64(r.results.WithLabelValues(tt.mode.String(), tt.outcome))
			assert.InDelta(t, 1, got, 0)
			assert.InDelta(t, 0, testutil.ToFloat64(r.inflight), 0)
			assert.Equal(t, 1, testutil.CollectAndCount(r.durations))
		})
	}
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.EditNotified(livepreview.EditBibliography)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `livepreview_edits_total{kind="bibliography"} 1`), string(body))
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	t.Parallel()

	a, b := NewRecorder(), NewRecorder()
	a.StaleDiscarded(1)

	assert.InDelta(t, 1, testutil.ToFloat64(a.stale), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.stale), 0)
}
