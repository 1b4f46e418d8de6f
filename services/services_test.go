package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gomlx/go-vnaug/augment/deptree"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{Timeout: 5 * time.Second, CacheCapacity: 10, MaxRetry: 2}
}

func TestTranslator(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req translateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(translateResponse{TranslatedText: req.Target + ":" + req.Q})
	}))
	defer srv.Close()

	tr, err := NewTranslator(srv.URL, testOptions())
	require.NoError(t, err)
	got, err := tr.Translate(context.Background(), "xin chào", "vi", "en")
	require.NoError(t, err)
	assert.Equal(t, "en:xin chào", got)

	// Cached.
	got, err = tr.Translate(context.Background(), "xin chào", "vi", "en")
	require.NoError(t, err)
	assert.Equal(t, "en:xin chào", got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesThenGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewDepParser(srv.URL, testOptions())
	require.NoError(t, err)
	_, err = p.Annotate(context.Background(), "Tôi đi học")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExternal))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDepParserRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "oops", http.StatusInternalServerError)
			return
		}
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Tôi đi", req["text"])
		_, _ = w.Write([]byte(`[{"form":"Tôi","index":1,"head":2,"depLabel":"sub"},{"form":"đi","index":2,"head":0,"depLabel":"root"}]`))
	}))
	defer srv.Close()

	p, err := NewDepParser(srv.URL, testOptions())
	require.NoError(t, err)
	annotations, err := p.Annotate(context.Background(), "Tôi đi")
	require.NoError(t, err)
	assert.Equal(t, []deptree.Annotation{
		{Form: "Tôi", Index: 1, Head: 2, DepLabel: "sub"},
		{Form: "đi", Index: 2, Head: 0, DepLabel: "root"},
	}, annotations)
}

func TestSegmenter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SegmenterPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "wseg", r.PostForm.Get("props"))
		assert.Equal(t, "Tôi là sinh viên. Tôi học.", r.PostForm.Get("text"))
		_, _ = w.Write([]byte(`{"status":true,"sentences":[[{"form":"Tôi"},{"form":"là"},{"form":"sinh_viên"},{"form":"."}],[{"form":"Tôi"},{"form":"học"},{"form":"."}]]}`))
	}))
	defer srv.Close()

	s, err := NewSegmenter(srv.URL, testOptions())
	require.NoError(t, err)
	got, err := s.Segment(context.Background(), "Tôi là sinh viên. Tôi học.")
	require.NoError(t, err)
	assert.Equal(t, "Tôi là sinh_viên . Tôi học .", got)

	got, err = s.Segment(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}

func TestMaskedLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fillMaskRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 50, req.TopK)
		_, _ = w.Write([]byte(`[{"token_str":" xinh","score":0.5},{"token_str":"đẹp","score":0.3},{"token_str":" ","score":0.1}]`))
	}))
	defer srv.Close()

	lm, err := NewMaskedLM(srv.URL, testOptions())
	require.NoError(t, err)
	fills, err := lm.FillMask(context.Background(), "cô ấy <mask> lắm", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"xinh", "đẹp"}, fills)
}

func TestInvalidEndpoint(t *testing.T) {
	_, err := NewTranslator("ftp://example.com", testOptions())
	require.Error(t, err)
	_, err = NewMaskedLM("://bad", testOptions())
	require.Error(t, err)
}
