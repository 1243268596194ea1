package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/pubsub"
)

func TestGetControls(t *testing.T) {
	ts := setupTestServer(t)

	rr := ts.do(t, http.MethodGet, "/controls", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	c := decode[engine.Controls](t, rr)
	assert.ElementsMatch(t, catalog.FlowTypes, c.VisibleLinkTypes)
	assert.Equal(t, 140.0, c.Effective[catalog.LinkStructure])
	assert.Equal(t, 100.0, c.Effective[catalog.LinkServiceFlow])
	assert.Equal(t, 1000.0, c.Viewport.Width)
}

func TestSetLinkDistances(t *testing.T) {
	ts := setupTestServer(t)
	sub, err := ts.Bus().Subscribe(t.Context(), pubsub.TopicControlsChanged)
	require.NoError(t, err)

	rr := ts.do(t, http.MethodPut, "/controls/link-distances",
		LinkDistancesRequest{Distances: map[catalog.LinkType]float64{catalog.LinkServiceFlow: 50}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	c := decode[engine.Controls](t, rr)
	assert.Equal(t, 50.0, c.Effective[catalog.LinkServiceFlow])
	assert.Equal(t, 140.0, c.Effective[catalog.LinkStructure])

	ev := <-sub.Channel()
	assert.Equal(t, pubsub.TopicControlsChanged, ev.Topic)

	rr = ts.do(t, http.MethodPost, "/controls/link-distances/reset", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	c = decode[engine.Controls](t, rr)
	assert.Equal(t, 100.0, c.Effective[catalog.LinkServiceFlow])
}

func TestSetLinkDistancesRejectsInvalid(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"negative", `{"distances": {"service-flow": -5}}`},
		{"zero", `{"distances": {"structure": 0}}`},
		{"unknown type", `{"distances": {"teleport": 10}}`},
		{"unknown field", `{"distance": {"structure": 10}}`},
		{"trailing data", `{"distances": {}} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPut, "/controls/link-distances", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	// A rejected update changes nothing.
	rr := ts.do(t, http.MethodPut, "/controls/link-distances", `{"distances": {"grant-flow": 80, "structure": -1}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	c := decode[engine.Controls](t, ts.do(t, http.MethodGet, "/controls", nil))
	assert.Equal(t, 100.0, c.Effective[catalog.LinkGrantFlow])
	assert.Equal(t, 140.0, c.Effective[catalog.LinkStructure])
}

func TestSetLinkTypes(t *testing.T) {
	ts := setupTestServer(t)

	rr := ts.do(t, http.MethodPut, "/controls/link-types", LinkTypesRequest{Types: []catalog.LinkType{catalog.LinkServiceFlow}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	c := decode[engine.Controls](t, rr)
	assert.Equal(t, []catalog.LinkType{catalog.LinkServiceFlow}, c.VisibleLinkTypes)

	// Structure links stay visible whatever the filter.
	stats := decode[StatsResponse](t, ts.do(t, http.MethodGet, "/stats", nil))
	assert.Equal(t, 3, stats.VisibleLinks)

	rr = ts.do(t, http.MethodPut, "/controls/link-types", `{"types": ["teleport"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResize(t *testing.T) {
	ts := setupTestServer(t)

	rr := ts.do(t, http.MethodPut, "/viewport", ViewportRequest{Width: 500, Height: 400})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	c := decode[engine.Controls](t, rr)
	assert.Equal(t, 500.0, c.Viewport.Width)
	assert.Equal(t, 400.0, c.Viewport.Height)
	assert.InDelta(t, 56.0, c.Effective[catalog.LinkStructure], 1e-9)
	assert.InDelta(t, 40.0, c.Effective[catalog.LinkServiceFlow], 1e-9)

	for _, body := range []string{`{"width": 0, "height": 400}`, `{"width": 500, "height": -1}`} {
		rr := ts.do(t, http.MethodPut, "/viewport", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}
