package server

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gomlx/go-vnaug/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	s := New(engine.Build(engine.Components{}))
	s.NewRand = func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string, response any) int {
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if response != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(response))
	}
	return resp.StatusCode
}

func TestAugment(t *testing.T) {
	ts := newTestServer(t)

	var resp Response
	status := post(t, ts, "/augment/blank", `{"text": "Tôi yêu Hà Nội", "exclude": ["Hà Nội"], "p_aug": 1, "max_aug": 10}`, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"_ _ Hà Nội"}, resp.Texts)
	assert.Equal(t, "Tôi yêu Hà Nội", resp.OrgText)
	assert.NotEmpty(t, resp.ID)

	resp = Response{}
	status = post(t, ts, "/spelling/word", `{"text": "tôi đi", "action": "duplicate", "p_aug": 1}`, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"tôi tôi đi đi"}, resp.Texts)
}

func TestAugmentErrors(t *testing.T) {
	ts := newTestServer(t)
	for _, tc := range []struct {
		name, path, body string
		status           int
		contains         string
	}{
		{"unknown action", "/augment/typo", `{"text": "xin chào", "action": "bogus"}`, http.StatusBadRequest, "telex"},
		{"unknown type", "/augment/nope", `{"text": "xin chào"}`, http.StatusBadRequest, "blank"},
		{"not a spelling type", "/spelling/blank", `{"text": "xin chào"}`, http.StatusBadRequest, "spelling"},
		{"bad json", "/augment/blank", `{"text": `, http.StatusBadRequest, "JSON"},
		{"bad params", "/augment/blank", `{"text": "xin chào", "p_aug": 2}`, http.StatusBadRequest, "probability"},
		{"no eligible token", "/augment/word", `{"text": "xin chào", "action": "insert"}`, http.StatusUnprocessableEntity, "insufficient"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var resp errorResponse
			status := post(t, ts, tc.path, tc.body, &resp)
			assert.Equal(t, tc.status, status)
			assert.Contains(t, resp.Error, tc.contains)
		})
	}
}

func TestPipeline(t *testing.T) {
	ts := newTestServer(t)

	var resp PipelineResponse
	status := post(t, ts, "/pipeline", `{"text": "tôi đi học", "n_sent": 2,
		"pipeline": [{"type": "word", "action": "duplicate", "p_aug": 1, "max_aug": 5}]}`, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"tôi tôi đi đi học học"}, resp.Texts)
	assert.Equal(t, [][]string{{"word:duplicate"}}, resp.Labels)
	assert.False(t, resp.Degraded)

	// A failing stage degrades to the original text.
	resp = PipelineResponse{}
	status = post(t, ts, "/pipeline", `{"text": "tôi đi học", "pipeline": [{"type": "word", "action": "insert"}]}`, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"tôi đi học"}, resp.Texts)
	assert.True(t, resp.Degraded)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "word:insert", resp.Failures[0].Stage)

	var errResp errorResponse
	status = post(t, ts, "/pipeline", `{"text": "tôi", "pipeline": [{"type": "synonym", "action": "substitute"}]}`, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errResp.Error, "synonym")
}

func TestTypes(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/types")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var types map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&types))
	assert.Contains(t, types["typo"], "telex")
	assert.Equal(t, []string{}, types["blank"])
}
