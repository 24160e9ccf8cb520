package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"randomnet/app"
	"randomnet/domain/core"
	"randomnet/domain/dataset"
	"randomnet/domain/replicate"

	"github.com/go-chi/chi/v5"
)

const maxListLimit = 500

// createRunRequest is the body of POST /v1/runs.
type createRunRequest struct {
	Statistic  string             `json:"statistic"`
	Request    *replicate.Request `json:"request,omitempty"`
	Dataset    *datasetRequest    `json:"dataset,omitempty"`
	Replicates int                `json:"replicates,omitempty"`
	Processes  int                `json:"processes,omitempty"`
	Timeout    string             `json:"timeout,omitempty"`
	Seed       int64              `json:"seed,omitempty"`
}

type datasetRequest struct {
	Path         string `json:"path"`
	Top          string `json:"top"`
	Bottom       string `json:"bottom"`
	Attribute    string `json:"attribute,omitempty"`
	MinFrequency *int   `json:"min_frequency,omitempty"`
}

// toNullRequest fills omitted pool options from the server defaults.
func (s *Server) toNullRequest(body createRunRequest) (app.NullRequest, error) {
	kind, err := replicate.ParseStatisticKind(body.Statistic)
	if err != nil {
		return app.NullRequest{}, err
	}

	opts := replicate.Options{
		Replicates:    s.defaults.Replicates,
		Processes:     s.defaults.Processes,
		Timeout:       s.defaults.Timeout,
		ProgressEvery: s.defaults.ProgressEvery,
		Seed:          s.defaults.Seed,
	}
	if body.Replicates != 0 {
		opts.Replicates = body.Replicates
	}
	if body.Processes != 0 {
		opts.Processes = body.Processes
	}
	if body.Timeout != "" {
		d, err := time.ParseDuration(body.Timeout)
		if err != nil {
			return app.NullRequest{}, core.NewInvalidRequestError("timeout", fmt.Sprintf("%q is not a duration", body.Timeout))
		}
		opts.Timeout = d
	}
	if body.Seed != 0 {
		opts.Seed = body.Seed
	}

	if err := s.checkLimits(opts, body.Request); err != nil {
		return app.NullRequest{}, err
	}

	req := app.NullRequest{Statistic: kind, Request: body.Request, Options: opts}
	if ds := body.Dataset; ds != nil {
		path, err := s.resolveDataset(ds.Path)
		if err != nil {
			return app.NullRequest{}, err
		}
		minFreq := dataset.DefaultMinFrequency
		if ds.MinFrequency != nil {
			minFreq = *ds.MinFrequency
		}
		req.Dataset = &app.DatasetSpec{
			Path:         path,
			Top:          ds.Top,
			Bottom:       ds.Bottom,
			Attribute:    ds.Attribute,
			MinFrequency: minFreq,
		}
	}
	return req, nil
}

// checkLimits applies the server caps; a zero cap is not enforced here.
func (s *Server) checkLimits(opts replicate.Options, req *replicate.Request) error {
	if limit := s.defaults.MaxReplicates; limit > 0 && opts.Replicates > limit {
		return core.NewInvalidRequestError("replicates", fmt.Sprintf("must be at most %d", limit))
	}
	if limit := s.defaults.MaxProcesses; limit > 0 && opts.Processes > limit {
		return core.NewInvalidRequestError("processes", fmt.Sprintf("must be at most %d", limit))
	}
	if limit := s.defaults.MaxNodes; limit > 0 && req != nil && (req.TopN > limit || req.BottomN > limit) {
		return core.NewInvalidRequestError("request", fmt.Sprintf("top_n and bottom_n must be at most %d", limit))
	}
	return nil
}

// resolveDataset maps a client path onto the data directory.
func (s *Server) resolveDataset(path string) (string, error) {
	if s.dataDir == "" {
		return "", core.NewInvalidRequestError("dataset", "dataset paths are disabled on this server")
	}
	if !filepath.IsLocal(path) {
		return "", core.NewInvalidRequestError("dataset", fmt.Sprintf("%q must be a relative path inside the data directory", path))
	}
	return filepath.Join(s.dataDir, path), nil
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var body createRunRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, core.NewInvalidRequestError("body", err.Error()))
		return
	}

	req, err := s.toNullRequest(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.runs.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/runs/"+result.Run.ID.String())
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, core.NewInvalidRequestError("id", err.Error()))
		return
	}
	run, err := s.runs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			s.writeError(w, core.NewInvalidRequestError("limit", fmt.Sprintf("must be within [1, %d]", maxListLimit)))
			return
		}
		limit = n
	}
	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*replicate.Run{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
