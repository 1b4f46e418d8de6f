// Package server exposes the augmenters over HTTP.
//
// Routes:
//
//	POST /augment/{type}   augment a text with one augmenter
//	POST /spelling/{type}  same, restricted to the spelling noise types
//	POST /pipeline         run a pipeline of augmenters
//	GET  /types            list the available augmenter types
//	GET  /healthz          liveness
//
// Responses carry the generated texts in "text" and the input in "org_text". Invalid requests get a
// 400 response; a pipeline never fails because of one of its stages.
package server

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	"github.com/gomlx/go-vnaug/augment"
	"github.com/gomlx/go-vnaug/augment/accent"
	"github.com/gomlx/go-vnaug/augment/char"
	"github.com/gomlx/go-vnaug/augment/consonant"
	"github.com/gomlx/go-vnaug/augment/typo"
	"github.com/gomlx/go-vnaug/augment/word"
	"github.com/gomlx/go-vnaug/engine"
	"github.com/gomlx/go-vnaug/pipeline"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MaxBodyBytes is the maximum size of a request body.
const MaxBodyBytes = 1 << 20

// SpellingTypes are the augmenter types served under /spelling/.
var SpellingTypes = []string{typo.Name, accent.Name, char.Name, word.Name, consonant.Name}

// Server handles the augmentation requests with an engine.Engine.
type Server struct {
	engine *engine.Engine
	mux    *http.ServeMux

	// NewRand returns the random generator of a request.
	NewRand func() *rand.Rand
}

// New creates the server handler.
func New(e *engine.Engine) *Server {
	s := &Server{
		engine:  e,
		mux:     http.NewServeMux(),
		NewRand: func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
	}
	s.mux.HandleFunc("POST /augment/{type}", s.handleAugment)
	s.mux.HandleFunc("POST /spelling/{type}", s.handleSpelling)
	s.mux.HandleFunc("POST /pipeline", s.handlePipeline)
	s.mux.HandleFunc("GET /types", s.handleTypes)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	klog.V(1).Infof("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
}

// AugmentRequest is the body of /augment/{type}: the text and the augment.Params, defaulted to
// augment.DefaultParams.
type AugmentRequest struct {
	Text string `json:"text"`
	augment.Params
}

// Response is returned by all augmentation routes.
type Response struct {
	ID      string   `json:"id"`
	Texts   []string `json:"text"`
	OrgText string   `json:"org_text"`
}

// PipelineRequest is the body of /pipeline.
type PipelineRequest struct {
	Text string `json:"text"`
	pipeline.File
}

// PipelineResponse is returned by /pipeline. Labels[i] lists the stages that produced Texts[i].
type PipelineResponse struct {
	Response
	Labels   [][]string     `json:"labels"`
	Degraded bool           `json:"degraded,omitempty"`
	Failures []StageFailure `json:"failures,omitempty"`
}

// StageFailure reports a failed stage of a pipeline.
type StageFailure struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type errorResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

func (s *Server) handleAugment(w http.ResponseWriter, r *http.Request) {
	s.augment(w, r, r.PathValue("type"))
}

func (s *Server) handleSpelling(w http.ResponseWriter, r *http.Request) {
	typeName := r.PathValue("type")
	if !slices.Contains(SpellingTypes, typeName) {
		writeError(w, "", errors.Wrapf(augment.ErrValidation, "unknown spelling type %q, please choose type in %v",
			typeName, SpellingTypes))
		return
	}
	s.augment(w, r, typeName)
}

func (s *Server) augment(w http.ResponseWriter, r *http.Request, typeName string) {
	id := uuid.NewString()
	req := AugmentRequest{Params: augment.DefaultParams()}
	if err := decode(w, r, &req); err != nil {
		writeError(w, id, err)
		return
	}
	texts, err := s.engine.Augment(r.Context(), typeName, req.Text, req.Params, s.NewRand())
	if err != nil {
		klog.Warningf("request %s: %s(%s) failed: %+v", id, typeName, req.Action, err)
		writeError(w, id, err)
		return
	}
	klog.V(2).Infof("request %s: %s(%s) %q -> %q", id, typeName, req.Action, req.Text, texts)
	writeJSON(w, http.StatusOK, Response{ID: id, Texts: texts, OrgText: req.Text})
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	req := PipelineRequest{File: pipeline.File{NumSentences: pipeline.DefaultNumSentences}}
	if err := decode(w, r, &req); err != nil {
		writeError(w, id, err)
		return
	}
	result, err := s.engine.Pipeline().Run(r.Context(), req.Text, req.Stages, req.Options(), s.NewRand())
	if err != nil {
		writeError(w, id, err)
		return
	}
	resp := PipelineResponse{
		Response: Response{ID: id, Texts: result.Texts(), OrgText: req.Text},
		Labels:   make([][]string, len(result.Outputs)),
		Degraded: result.Degraded,
	}
	for ii, out := range result.Outputs {
		resp.Labels[ii] = out.Labels
		if resp.Labels[ii] == nil {
			resp.Labels[ii] = []string{}
		}
	}
	for _, f := range result.Failures() {
		resp.Failures = append(resp.Failures, StageFailure{Stage: f.Stage.Label(), Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	types := make(map[string][]string)
	for _, name := range s.engine.Types() {
		aug, _ := s.engine.Augmenter(name)
		actions := aug.Actions()
		if actions == nil {
			actions = []string{}
		}
		types[name] = actions
	}
	writeJSON(w, http.StatusOK, types)
}

// decode reads the JSON body of r into v. Malformed bodies return an error wrapping augment.ErrValidation.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(augment.ErrValidation, "invalid JSON body: %v", err)
	}
	return nil
}

// statusOf maps an error to the HTTP status of its response.
func statusOf(err error) int {
	switch {
	case errors.Is(err, augment.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, augment.ErrInsufficientTokens):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, id string, err error) {
	writeJSON(w, statusOf(err), errorResponse{ID: id, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.Errorf("failed to write response: %v", err)
	}
}

// ListenAndServe serves handler on addr until ctx is done, and then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		klog.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return errors.Wrapf(err, "server on %s", addr)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	klog.Infof("server on %s stopped", addr)
	return nil
}
